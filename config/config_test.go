package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flavord.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Hour, cfg.Cache.Length.Std())
	assert.Equal(t, time.Hour, cfg.Cache.CleanupInterval.Std())
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
}

func TestLoadOverlaysFile(t *testing.T) {
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	path := writeFile(t, `
cache:
  length: 1d
  cleanup_interval: 900
upstream:
  base_url: http://localhost:8080
retry:
  max_attempts: 3
  base_delay: 250ms
calendar:
  time_zone: America/New_York
log:
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Cache.Length.Std())
	assert.Equal(t, 15*time.Minute, cfg.Cache.CleanupInterval.Std())
	assert.Equal(t, "http://localhost:8080", cfg.Upstream.BaseURL)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay.Std())
	assert.Equal(t, "json", cfg.Log.Format)

	// untouched settings keep their defaults
	assert.Equal(t, 16*time.Second, cfg.Retry.MaxDelay.Std())
	assert.Equal(t, 4, cfg.Calendar.LocationConcurrency)
	assert.Equal(t, 10.0, cfg.Upstream.RateLimit)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8443")
	cfg, err := Load(writeFile(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8443", cfg.Server.Addr())

	t.Setenv("PORT", "eighty")
	_, err = Load(writeFile(t, ""))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	t.Setenv(PathEnv, "")
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err, "a missing default file falls back to defaults")
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvPath(t *testing.T) {
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	t.Setenv(PathEnv, writeFile(t, "server:\n  port: 4000\n"))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	cases := map[string]string{
		"bad duration":  "cache:\n  length: soon\n",
		"bad yaml":      "cache: [",
		"bad zone":      "calendar:\n  time_zone: Mars/Olympus\n",
		"bad format":    "log:\n  format: xml\n",
		"zero attempts": "retry:\n  max_attempts: 0\n",
		"bad port":      "server:\n  port: 70000\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			assert.Error(t, err)
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{Duration(90 * time.Minute)})
	require.NoError(t, err)

	var back struct {
		D Duration `yaml:"d"`
	}
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, 90*time.Minute, back.D.Std())
}

func TestPolicies(t *testing.T) {
	cfg := Default()
	r := cfg.Retry.Policy()
	assert.Equal(t, 5, r.MaxAttempts)
	assert.Equal(t, time.Second, r.BaseDelay)
	b := cfg.Upstream.Breaker.Policy()
	assert.Equal(t, 5, b.FailureThreshold)
	assert.Equal(t, 30*time.Second, b.OpenTimeout)
}
