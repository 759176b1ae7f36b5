package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/cache"
	"github.com/IronManRust/culvers-ice-cream-ical/config"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/IronManRust/culvers-ice-cream-ical/retry"
	"github.com/IronManRust/culvers-ice-cream-ical/service"
	"github.com/IronManRust/culvers-ice-cream-ical/upstream"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// app is the wired core shared by every command.
type app struct {
	cfg      config.Config
	log      logger.Logger
	cache    *cache.Memory
	upstream *upstream.Client
	svc      *service.Service
}

// flagOrEnv returns the flag value when set, then the environment value,
// then def.
func flagOrEnv(cmd *cobra.Command, flag, env, def string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	if v, ok := os.LookupEnv(env); ok && v != "" {
		return v
	}
	return def
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.Log.Level = flagOrEnv(cmd, "log-level", "FLAVORD_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = flagOrEnv(cmd, "log-format", "FLAVORD_LOG_FORMAT", cfg.Log.Format)

	// one-shot commands print JSON on stdout, so logs go to stderr
	log := logger.NewWithWriter(os.Stderr, cfg.Log.Format, logger.LevelFromString(cfg.Log.Level))

	c, err := cache.NewMemory(
		cache.WithCacheLength(cfg.Cache.Length.Std()),
		cache.WithCleanupInterval(cfg.Cache.CleanupInterval.Std()),
		cache.WithMaxCost(cfg.Cache.MaxBytes),
		cache.WithLogger(log),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cache")
	}

	up, err := upstream.NewClient(cfg.Upstream.BaseURL,
		upstream.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.RequestTimeout.Std()}),
		upstream.WithRateLimit(cfg.Upstream.RateLimit, cfg.Upstream.RateBurst),
		upstream.WithBreaker(cfg.Upstream.Breaker.Policy()),
		upstream.WithUserAgent(cfg.Upstream.UserAgent),
		upstream.WithLogger(log),
	)
	if err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "create upstream client")
	}

	tz, err := time.LoadLocation(cfg.Calendar.TimeZone)
	if err != nil {
		_ = c.Close()
		return nil, errors.Wrapf(err, "load time zone %q", cfg.Calendar.TimeZone)
	}

	rc := cfg.Retry.Policy()
	rc.OnFailedAttempt = func(a retry.Attempt) {
		log.Debug("upstream attempt %d failed, next in %s", a.Number, a.Delay)
	}

	svc := service.New(c, up,
		service.WithRetry(rc),
		service.WithLogger(log),
		service.WithTimeZone(tz),
		service.WithConcurrency(cfg.Calendar.LocationConcurrency, cfg.Calendar.DateConcurrency),
		service.WithHealthCheck(up.Healthy),
	)

	return &app{cfg: cfg, log: log, cache: c, upstream: up, svc: svc}, nil
}

func (a *app) Close() error {
	return a.cache.Close()
}

// run builds the app for cmd, calls fn and releases the app.
func run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
