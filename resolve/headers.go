package resolve

import (
	"context"

	"github.com/IronManRust/culvers-ice-cream-ical/cache"
	"github.com/IronManRust/culvers-ice-cream-ical/model"
	"github.com/IronManRust/culvers-ice-cream-ical/upstream"
)

// Headers resolves which flavor a location serves on a date.
type Headers struct {
	base
	src upstream.Source
}

func NewHeaders(c cache.Cache, src upstream.Source, opts ...Option) *Headers {
	return &Headers{base: newBase(c, opts), src: src}
}

// Get returns the calendar header for a location and date. The day's flavor
// name is mapped to a key through flavors, which callers resolve once and
// share across dates. When flavors is unavailable the placeholder key is
// used and the header is returned without being cached.
func (h *Headers) Get(ctx context.Context, locationID int, date model.Date, flavors *FlavorIndex) (cache.CachedAsset[model.CalendarHeader], error) {
	key := cache.CalendarKey(locationID, date)
	if asset, ok := cache.Read[model.CalendarHeader](ctx, h.cache, key); ok {
		return asset, nil
	}

	name, err := fetchWithRetry(ctx, &h.base, "calendar", key, func(ctx context.Context) (string, error) {
		return h.src.DailyFlavor(ctx, locationID, date)
	})
	if err != nil {
		return cache.CachedAsset[model.CalendarHeader]{}, err
	}

	flavor, ok := flavors.ByName(name)
	header := model.CalendarHeader{
		LocationID: locationID,
		Date:       date,
		FlavorKey:  flavor.Key,
		FlavorName: flavor.Name,
	}
	if !flavors.Available() {
		return cache.CachedAsset[model.CalendarHeader]{Data: header, Expires: h.now()}, nil
	}
	if !ok {
		h.log.Warn("flavor %q served at location %d is not in the catalog", flavor.Name, locationID)
	}
	return cache.Write(ctx, h.cache, key, header), nil
}
