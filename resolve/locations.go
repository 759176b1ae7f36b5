package resolve

import (
	"context"
	"regexp"
	"strings"

	"github.com/IronManRust/culvers-ice-cream-ical/apperr"
	"github.com/IronManRust/culvers-ice-cream-ical/cache"
	"github.com/IronManRust/culvers-ice-cream-ical/model"
	"github.com/IronManRust/culvers-ice-cream-ical/upstream"
)

var postalPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// ValidatePostal checks that postal is a US ZIP or ZIP+4 code.
func ValidatePostal(postal string) error {
	if !postalPattern.MatchString(strings.TrimSpace(postal)) {
		return apperr.Validation("invalid postal code %q", postal)
	}
	return nil
}

// Locations resolves store locations.
type Locations struct {
	base
	src upstream.Source
}

func NewLocations(c cache.Cache, src upstream.Source, opts ...Option) *Locations {
	return &Locations{base: newBase(c, opts), src: src}
}

// Get returns the location with the given id.
func (l *Locations) Get(ctx context.Context, id int) (cache.CachedAsset[model.LocationDetail], error) {
	if id <= 0 {
		return cache.CachedAsset[model.LocationDetail]{}, apperr.Validation("invalid location id %d", id)
	}
	return load(ctx, &l.base, "location", cache.LocationKey(id), func(ctx context.Context) (model.LocationDetail, error) {
		return l.src.Location(ctx, id)
	})
}

// Search returns the locations nearest to postal. Results are not cached.
func (l *Locations) Search(ctx context.Context, postal string) ([]model.LocationSummary, error) {
	if err := ValidatePostal(postal); err != nil {
		return nil, err
	}
	postal = strings.TrimSpace(postal)
	return fetchWithRetry(ctx, &l.base, "search", postal, func(ctx context.Context) ([]model.LocationSummary, error) {
		return l.src.SearchLocations(ctx, postal)
	})
}
