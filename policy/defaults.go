package policy

import "time"

const servicePrefix = "/fotd.FlavorService/"

// Default returns the resolver the flavor server installs unless told
// otherwise. Calendar aggregation fans out over many upstream calls, so it
// gets a tighter rate and a longer deadline than the single-entity lookups.
// Location search hits the upstream uncached and is limited separately.
func Default() *Resolver {
	return NewResolver(
		Group("calendar").
			Exact(servicePrefix+"GetCalendar").
			Policy(Policy{
				RateLimit: &RateLimitRule{Rate: 30, Window: time.Minute},
				Timeout:   2 * time.Minute,
			}),
		Group("search").
			Exact(servicePrefix+"SearchLocations").
			Policy(Policy{
				RateLimit: &RateLimitRule{Rate: 60, Window: time.Minute},
				Timeout:   time.Minute,
			}),
		Group("lookup").
			Prefix(servicePrefix).
			Policy(Policy{Timeout: time.Minute}),
	)
}
