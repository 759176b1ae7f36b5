// Package resolve turns upstream fetches into cached assets. Every entity
// follows the same path: read the cache, on a miss fetch with retries, write
// the result back and return what was written. Concurrent misses for one key
// may both fetch; the last write wins.
package resolve

import (
	"context"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/apperr"
	"github.com/IronManRust/culvers-ice-cream-ical/cache"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/IronManRust/culvers-ice-cream-ical/retry"
	"github.com/IronManRust/culvers-ice-cream-ical/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Option configures a resolver.
type Option func(*base)

// WithRetry replaces the default retry policy. Retryable defaults to
// apperr.Retryable when unset.
func WithRetry(cfg retry.Config) Option {
	return func(b *base) { b.retry = cfg }
}

// WithLogger sets the resolver logger.
func WithLogger(l logger.Logger) Option {
	return func(b *base) { b.log = l }
}

func withClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// base holds what every resolver shares.
type base struct {
	cache cache.Cache
	retry retry.Config
	log   logger.Logger
	now   func() time.Time
}

func newBase(c cache.Cache, opts []Option) base {
	b := base{
		cache: c,
		retry: retry.DefaultConfig(),
		log:   logger.Nop(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(&b)
	}
	if b.retry.Retryable == nil {
		b.retry.Retryable = apperr.Retryable
	}
	b.log = b.log.WithPrefix("[resolve]")
	return b
}

// load is the cache-or-fetch state machine shared by all resolvers.
func load[T any](ctx context.Context, b *base, entity, key string, fetch func(context.Context) (T, error)) (cache.CachedAsset[T], error) {
	if asset, ok := cache.Read[T](ctx, b.cache, key); ok {
		return asset, nil
	}
	v, err := fetchWithRetry(ctx, b, entity, key, fetch)
	if err != nil {
		return cache.CachedAsset[T]{}, err
	}
	return cache.Write(ctx, b.cache, key, v), nil
}

// fetchWithRetry runs fetch under the retry policy with logging, metrics and
// a span. The returned error always carries an apperr kind.
func fetchWithRetry[T any](ctx context.Context, b *base, entity, key string, fetch func(context.Context) (T, error)) (T, error) {
	ctx, span := tracing.Start(ctx, "fetch "+entity, attribute.String("cache.key", key))

	log := b.log.With(map[string]any{"entity": entity, "key": key})
	log.Debug("fetch %s %s - begin", entity, key)

	cfg := b.retry
	next := cfg.OnFailedAttempt
	cfg.OnFailedAttempt = func(a retry.Attempt) {
		retriesTotal.WithLabelValues(entity).Inc()
		log.Warn("attempt %d failed (%d left): %v", a.Number, a.RetriesLeft, a.Err)
		if next != nil {
			next(a)
		}
	}

	started := b.now()
	v, err := retry.Do(ctx, cfg, fetch)
	if err != nil {
		err = apperr.Classify(err, "fetch %s %s", entity, key)
		fetchTotal.WithLabelValues(entity, outcome(err)).Inc()
		log.Error("fetch %s %s - failure: %v", entity, key, err)
		tracing.End(span, err)
		var zero T
		return zero, err
	}
	fetchTotal.WithLabelValues(entity, "success").Inc()
	log.Debug("fetch %s %s - success in %s", entity, key, b.now().Sub(started))
	tracing.End(span, nil)
	return v, nil
}

func outcome(err error) string {
	switch {
	case apperr.IsNotFound(err):
		return "not_found"
	case apperr.IsValidation(err):
		return "invalid"
	default:
		return "failure"
	}
}
