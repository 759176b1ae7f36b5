// Package config loads the flavord process configuration: built-in
// defaults, overlaid by an optional YAML file, overlaid by HOST and PORT
// from the environment.
package config

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/breaker"
	"github.com/IronManRust/culvers-ice-cream-ical/retry"
	"github.com/cockroachdb/errors"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable consulted when no path is given.
const PathEnv = "FLAVORD_CONFIG"

// DefaultPath is the file looked for when neither a path nor PathEnv is set.
const DefaultPath = "flavord.yaml"

// Duration is a time.Duration that reads from YAML as "90s", "1h30m" or
// "1d". A bare integer is taken as seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return str2duration.String(time.Duration(d)) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return errors.Wrapf(err, "line %d: duration", n.Line)
	}
	if secs, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	v, err := str2duration.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "line %d: duration %q", n.Line, s)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Retry    RetryConfig    `yaml:"retry"`
	Calendar CalendarConfig `yaml:"calendar"`
	Log      LogConfig      `yaml:"log"`
	Warm     WarmConfig     `yaml:"warm"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	MetricsAddr    string   `yaml:"metrics_addr"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	RequestTimeout Duration `yaml:"request_timeout"`
	ShutdownPeriod Duration `yaml:"shutdown_period"`
	Trace          bool     `yaml:"trace"`
}

// Addr returns the gRPC listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type CacheConfig struct {
	Length          Duration `yaml:"length"`
	CleanupInterval Duration `yaml:"cleanup_interval"`
	MaxBytes        int64    `yaml:"max_bytes"`
}

type UpstreamConfig struct {
	BaseURL        string   `yaml:"base_url"`
	UserAgent      string   `yaml:"user_agent"`
	RequestTimeout Duration `yaml:"request_timeout"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	Breaker        Breaker  `yaml:"breaker"`
}

type Breaker struct {
	FailureThreshold int      `yaml:"failure_threshold"`
	OpenTimeout      Duration `yaml:"open_timeout"`
	HalfOpenMax      int      `yaml:"half_open_max"`
}

type RetryConfig struct {
	MaxAttempts    int      `yaml:"max_attempts"`
	BaseDelay      Duration `yaml:"base_delay"`
	MaxDelay       Duration `yaml:"max_delay"`
	Jitter         float64  `yaml:"jitter"`
	AttemptTimeout Duration `yaml:"attempt_timeout"`
}

type CalendarConfig struct {
	TimeZone            string `yaml:"time_zone"`
	LocationConcurrency int    `yaml:"location_concurrency"`
	DateConcurrency     int    `yaml:"date_concurrency"`
}

type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// WarmConfig schedules catalog pre-population with a cron spec. An empty
// Schedule disables it.
type WarmConfig struct {
	Schedule string `yaml:"schedule"`
	OnStart  bool   `yaml:"on_start"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           3000,
			MetricsAddr:    ":9090",
			RateLimit:      100,
			RateBurst:      200,
			RequestTimeout: Duration(time.Minute),
			ShutdownPeriod: Duration(10 * time.Second),
		},
		Cache: CacheConfig{
			Length:          Duration(time.Hour),
			CleanupInterval: Duration(time.Hour),
			MaxBytes:        64 << 20,
		},
		Upstream: UpstreamConfig{
			BaseURL:        "https://www.culvers.com",
			UserAgent:      "flavord/1.0",
			RequestTimeout: Duration(15 * time.Second),
			RateLimit:      10,
			RateBurst:      10,
			Breaker: Breaker{
				FailureThreshold: 5,
				OpenTimeout:      Duration(30 * time.Second),
				HalfOpenMax:      1,
			},
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
			BaseDelay:   Duration(time.Second),
			MaxDelay:    Duration(16 * time.Second),
			Jitter:      0.1,
		},
		Calendar: CalendarConfig{
			TimeZone:            "America/Chicago",
			LocationConcurrency: 4,
			DateConcurrency:     8,
		},
		Log: LogConfig{
			Format: "console",
			Level:  "info",
		},
		Warm: WarmConfig{
			Schedule: "@every 55m",
			OnStart:  true,
		},
	}
}

// Load builds the configuration. An empty path falls back to PathEnv and
// then DefaultPath; a missing default file is not an error, a missing
// explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(PathEnv)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", path)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, errors.Wrapf(err, "read %s", path)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("HOST"); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "PORT %q", v)
		}
		c.Server.Port = p
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return errors.Newf("server.port %d out of range", c.Server.Port)
	case c.Cache.Length <= 0:
		return errors.New("cache.length must be positive")
	case c.Cache.CleanupInterval <= 0:
		return errors.New("cache.cleanup_interval must be positive")
	case c.Upstream.BaseURL == "":
		return errors.New("upstream.base_url is required")
	case c.Retry.MaxAttempts < 1:
		return errors.New("retry.max_attempts must be at least 1")
	case c.Retry.Jitter < 0 || c.Retry.Jitter > 1:
		return errors.Newf("retry.jitter %v outside [0, 1]", c.Retry.Jitter)
	case c.Calendar.LocationConcurrency < 1 || c.Calendar.DateConcurrency < 1:
		return errors.New("calendar concurrency limits must be at least 1")
	}
	if _, err := time.LoadLocation(c.Calendar.TimeZone); err != nil {
		return errors.Wrapf(err, "calendar.time_zone %q", c.Calendar.TimeZone)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Newf("log.format %q must be console or json", c.Log.Format)
	}
	return nil
}

// Policy converts the retry settings. Retryable and the observer are left
// for the caller.
func (r RetryConfig) Policy() retry.Config {
	return retry.Config{
		MaxAttempts:    r.MaxAttempts,
		BaseDelay:      r.BaseDelay.Std(),
		MaxDelay:       r.MaxDelay.Std(),
		Jitter:         r.Jitter,
		AttemptTimeout: r.AttemptTimeout.Std(),
	}
}

// Policy converts the breaker settings.
func (b Breaker) Policy() breaker.Config {
	return breaker.Config{
		FailureThreshold:   b.FailureThreshold,
		OpenTimeout:        b.OpenTimeout.Std(),
		HalfOpenMaxSuccess: b.HalfOpenMax,
	}
}
