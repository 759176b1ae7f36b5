// Package service exposes the flavor-of-the-day operations to the transport
// and the CLI. It wires the cache, the resolvers and the calendar
// aggregator together.
package service

import (
	"context"
	"runtime"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/cache"
	"github.com/IronManRust/culvers-ice-cream-ical/calendar"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/IronManRust/culvers-ice-cream-ical/model"
	"github.com/IronManRust/culvers-ice-cream-ical/resolve"
	"github.com/IronManRust/culvers-ice-cream-ical/retry"
	"github.com/IronManRust/culvers-ice-cream-ical/upstream"
)

// Service implements the core operations. It is safe for concurrent use.
type Service struct {
	cache      cache.Cache
	flavors    *resolve.Flavors
	locations  *resolve.Locations
	aggregator *calendar.Aggregator
	health     func(context.Context) error
	log        logger.Logger
	started    time.Time
	now        func() time.Time
}

// Option configures a Service.
type Option func(*options)

type options struct {
	retry               *retry.Config
	log                 logger.Logger
	tz                  *time.Location
	locationConcurrency int
	dateConcurrency     int
	health              func(context.Context) error
	now                 func() time.Time
}

// WithRetry sets the retry policy for every upstream fetch.
func WithRetry(cfg retry.Config) Option {
	return func(o *options) { o.retry = &cfg }
}

// WithLogger sets the logger handed to every component.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithTimeZone sets the calendar time zone.
func WithTimeZone(loc *time.Location) Option {
	return func(o *options) { o.tz = loc }
}

// WithConcurrency bounds the calendar fan-out per location and per date.
func WithConcurrency(locations, dates int) Option {
	return func(o *options) {
		o.locationConcurrency = locations
		o.dateConcurrency = dates
	}
}

// WithHealthCheck sets a probe reported by Status. A failing probe marks
// the service as degraded.
func WithHealthCheck(fn func(context.Context) error) Option {
	return func(o *options) { o.health = fn }
}

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a Service on top of c and src.
func New(c cache.Cache, src upstream.Source, opts ...Option) *Service {
	o := options{
		log:                 logger.Nop(),
		locationConcurrency: calendar.DefaultLocationConcurrency,
		dateConcurrency:     calendar.DefaultDateConcurrency,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ropts := []resolve.Option{resolve.WithLogger(o.log)}
	if o.retry != nil {
		ropts = append(ropts, resolve.WithRetry(*o.retry))
	}
	flavors := resolve.NewFlavors(c, src, ropts...)
	locations := resolve.NewLocations(c, src, ropts...)
	headers := resolve.NewHeaders(c, src, ropts...)

	copts := []calendar.Option{
		calendar.WithLogger(o.log),
		calendar.WithLocationConcurrency(o.locationConcurrency),
		calendar.WithDateConcurrency(o.dateConcurrency),
	}
	if o.tz != nil {
		copts = append(copts, calendar.WithTimeZone(o.tz))
	}

	return &Service{
		cache:      c,
		flavors:    flavors,
		locations:  locations,
		aggregator: calendar.New(flavors, locations, headers, copts...),
		health:     o.health,
		log:        o.log.WithPrefix("[service]"),
		started:    o.now(),
		now:        o.now,
	}
}

// FlavorCatalog returns every known flavor.
func (s *Service) FlavorCatalog(ctx context.Context) (cache.CachedAsset[[]model.FlavorDetail], error) {
	return s.flavors.Catalog(ctx)
}

// Flavor returns one flavor by key.
func (s *Service) Flavor(ctx context.Context, key string) (cache.CachedAsset[model.FlavorDetail], error) {
	return s.flavors.ByKey(ctx, key)
}

// Location returns one store location.
func (s *Service) Location(ctx context.Context, id int) (cache.CachedAsset[model.LocationDetail], error) {
	return s.locations.Get(ctx, id)
}

// SearchLocations returns the locations nearest to a postal code.
func (s *Service) SearchLocations(ctx context.Context, postal string) ([]model.LocationSummary, error) {
	return s.locations.Search(ctx, postal)
}

// Calendar returns the flavor calendar for a normalized query.
func (s *Service) Calendar(ctx context.Context, q model.CalendarQuery) cache.CachedAsset[[]model.CalendarItem] {
	return s.aggregator.Calendar(ctx, q)
}

// CacheStatistics counts live cache keys per prefix.
func (s *Service) CacheStatistics(prefixes []string) map[string]int {
	return s.cache.Statistics(prefixes)
}

// Status reports health, memory, uptime and per-prefix cache counts. A
// failing health probe makes the service Degraded while the cache still
// holds entries to serve, and Unhealthy once it holds none.
func (s *Service) Status(ctx context.Context) model.Status {
	stats := s.cache.Statistics(cache.Prefixes())
	cached := 0
	for _, n := range stats {
		cached += n
	}

	health := model.Healthy
	if s.health != nil {
		if err := s.health(ctx); err != nil {
			s.log.Warn("health check failed: %v", err)
			health = model.Degraded
			if cached == 0 {
				health = model.Unhealthy
			}
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	out := model.Status{
		Health:          health,
		MemoryUsed:      mem.HeapAlloc,
		Uptime:          s.now().Sub(s.started),
		CacheStatistics: make([]model.CacheStatistic, 0, len(stats)),
	}
	for _, p := range cache.Prefixes() {
		out.CacheStatistics = append(out.CacheStatistics, model.CacheStatistic{Prefix: p, Count: stats[p]})
	}
	return out
}

// Warm loads the flavor catalog into the cache.
func (s *Service) Warm(ctx context.Context) error {
	asset, err := s.flavors.Catalog(ctx)
	if err != nil {
		s.log.Error("warm-up failed: %v", err)
		return err
	}
	s.log.Info("warm-up loaded %d flavors, fresh until %s", len(asset.Data), asset.Expires.Format(time.RFC3339))
	return nil
}
