// Package upstream defines the contract for fetching flavor data from the
// slow, unreliable upstream and provides an HTTP JSON implementation.
package upstream

import (
	"context"

	"github.com/IronManRust/culvers-ice-cream-ical/model"
)

// Source fetches raw entity data. Implementations return apperr.NotFound
// when the upstream reports an entity as absent and apperr.Upstream for any
// other failure.
type Source interface {
	// Flavors returns the full flavor catalog.
	Flavors(ctx context.Context) ([]model.FlavorDetail, error)
	// Location returns one store location.
	Location(ctx context.Context, id int) (model.LocationDetail, error)
	// DailyFlavor returns the display name of the flavor a location serves
	// on a date.
	DailyFlavor(ctx context.Context, locationID int, date model.Date) (string, error)
	// SearchLocations returns the locations nearest to a postal code.
	SearchLocations(ctx context.Context, postal string) ([]model.LocationSummary, error)
}
