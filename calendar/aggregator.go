// Package calendar builds flavor-of-the-day calendars by fanning out over
// locations and dates and joining the cached headers with flavor and
// location details.
package calendar

import (
	"context"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/cache"
	"github.com/IronManRust/culvers-ice-cream-ical/fanout"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/IronManRust/culvers-ice-cream-ical/model"
	"github.com/IronManRust/culvers-ice-cream-ical/resolve"
	"github.com/IronManRust/culvers-ice-cream-ical/tracing"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultTimeZone            = "America/Chicago"
	DefaultLocationConcurrency = 4
	DefaultDateConcurrency     = 8
)

// Aggregator assembles calendars. It is safe for concurrent use.
type Aggregator struct {
	flavors   *resolve.Flavors
	locations *resolve.Locations
	headers   *resolve.Headers

	tz                  *time.Location
	locationConcurrency int
	dateConcurrency     int
	log                 logger.Logger
	now                 func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTimeZone sets the zone used to compute the date window and opening
// hours.
func WithTimeZone(loc *time.Location) Option {
	return func(a *Aggregator) { a.tz = loc }
}

// WithLocationConcurrency bounds how many locations are resolved at once.
func WithLocationConcurrency(n int) Option {
	return func(a *Aggregator) { a.locationConcurrency = n }
}

// WithDateConcurrency bounds how many dates of one location are resolved at
// once.
func WithDateConcurrency(n int) Option {
	return func(a *Aggregator) { a.dateConcurrency = n }
}

// WithLogger sets the aggregator logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) { a.log = l }
}

func withClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New creates an Aggregator. The default zone is America/Chicago, falling
// back to UTC if the zone database is unavailable.
func New(flavors *resolve.Flavors, locations *resolve.Locations, headers *resolve.Headers, opts ...Option) *Aggregator {
	a := &Aggregator{
		flavors:             flavors,
		locations:           locations,
		headers:             headers,
		locationConcurrency: DefaultLocationConcurrency,
		dateConcurrency:     DefaultDateConcurrency,
		log:                 logger.Nop(),
		now:                 time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	if a.tz == nil {
		tz, err := time.LoadLocation(DefaultTimeZone)
		if err != nil {
			tz = time.UTC
		}
		a.tz = tz
	}
	a.log = a.log.WithPrefix("[calendar]")
	return a
}

// locationItems is what one location contributes to a calendar.
type locationItems struct {
	items   []model.CalendarItem
	expires time.Time
}

// Calendar returns the items for every requested location across the
// current window, optionally restricted to the query's flavor keys. Missing
// locations and dates are left out rather than failing the request. The
// result expires when the first contributing asset does; an empty result
// expires immediately.
func (a *Aggregator) Calendar(ctx context.Context, q model.CalendarQuery) cache.CachedAsset[[]model.CalendarItem] {
	ctx, span := tracing.Start(ctx, "calendar",
		attribute.Int("calendar.locations", len(q.LocationIDs)),
		attribute.Int("calendar.flavor_filters", len(q.FlavorKeys)),
	)
	defer span.End()

	now := a.now()
	first, last := Window(now, a.tz)
	dates := Dates(first, last)

	// One catalog snapshot serves every location and date of the call.
	flavors, err := a.flavors.Index(ctx)
	catalogExpires := flavors.Expires()
	if err != nil {
		a.log.Warn("flavor catalog unavailable, using placeholders: %v", err)
		catalogExpires = now
	}

	filter := make(map[string]bool, len(q.FlavorKeys))
	for _, k := range q.FlavorKeys {
		if k = model.NormalizeKey(k); k != "" {
			filter[k] = true
		}
	}

	tasks := make([]fanout.Task[locationItems], 0, len(q.LocationIDs))
	for _, id := range q.LocationIDs {
		tasks = append(tasks, func(ctx context.Context) (locationItems, error) {
			return a.location(ctx, id, dates, flavors, filter)
		})
	}

	results := fanout.All(ctx, a.locationConcurrency, tasks)
	for i, r := range results {
		if r.Err != nil {
			a.log.Warn("skipping location %d: %v", q.LocationIDs[i], r.Err)
		}
	}

	var items []model.CalendarItem
	expires := catalogExpires
	for _, li := range fanout.Values(results) {
		if len(li.items) == 0 {
			continue
		}
		items = append(items, li.items...)
		expires = cache.Earliest(expires, li.expires)
	}

	span.SetAttributes(attribute.Int("calendar.items", len(items)))
	if len(items) == 0 {
		return cache.CachedAsset[[]model.CalendarItem]{Data: []model.CalendarItem{}, Expires: now}
	}
	return cache.CachedAsset[[]model.CalendarItem]{Data: items, Expires: expires}
}

func (a *Aggregator) location(ctx context.Context, id int, dates []model.Date, flavors *resolve.FlavorIndex, filter map[string]bool) (locationItems, error) {
	loc, err := a.locations.Get(ctx, id)
	if err != nil {
		return locationItems{}, err
	}

	tasks := make([]fanout.Task[cache.CachedAsset[model.CalendarHeader]], len(dates))
	for i, d := range dates {
		tasks[i] = func(ctx context.Context) (cache.CachedAsset[model.CalendarHeader], error) {
			return a.headers.Get(ctx, id, d, flavors)
		}
	}

	out := locationItems{expires: loc.Expires}
	for i, r := range fanout.All(ctx, a.dateConcurrency, tasks) {
		if r.Err != nil {
			a.log.Debug("skipping location %d on %s: %v", id, dates[i], r.Err)
			continue
		}
		header := r.Value.Data
		key := model.NormalizeKey(header.FlavorKey)
		if len(filter) > 0 && !filter[key] {
			continue
		}
		flavor, ok := flavors.ByKey(key)
		if !ok {
			flavor = placeholder(header)
		}
		start, end := model.Hours(loc.Data.Schedule, header.Date, a.tz)
		out.items = append(out.items, model.CalendarItem{
			Date:     header.Date,
			Start:    start,
			End:      end,
			Flavor:   flavor,
			Location: loc.Data,
		})
		out.expires = cache.Earliest(out.expires, r.Value.Expires)
	}
	return out, nil
}

// placeholder stands in for a flavor missing from the catalog, keeping the
// upstream display name when the header carries one.
func placeholder(h model.CalendarHeader) model.FlavorDetail {
	if h.FlavorName == "" {
		return model.UnknownFlavor(h.FlavorKey)
	}
	fl := model.UnknownFlavor(h.FlavorName)
	fl.Key = h.FlavorKey
	return fl
}
