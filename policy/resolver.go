package policy

import "sync"

// Resolver maps full gRPC method names to the best-matching group and its
// policy. Results are memoized per method; groups are fixed at construction.
type Resolver struct {
	groups []*GroupBuilder
	memo   sync.Map // full method -> resolution
}

type resolution struct {
	group string
	pol   *Policy
	ok    bool
}

// NewResolver creates a Resolver from the supplied group builders.
func NewResolver(groups ...*GroupBuilder) *Resolver {
	return &Resolver{groups: groups}
}

// Groups returns the group names in registration order.
func (res *Resolver) Groups() []string {
	names := make([]string, 0, len(res.groups))
	for _, g := range res.groups {
		names = append(names, g.name)
	}
	return names
}

// Resolve finds the best-matching group for fullMethod.
//
// Priority rules:
//   - Exact matches beat prefix matches, which beat regex matches.
//   - Among matches of the same kind the longer match wins.
//   - When two matches have equal kind and length the group that was
//     registered first wins.
//
// If no group matches, ok is false.
func (res *Resolver) Resolve(fullMethod string) (groupName string, pol *Policy, ok bool) {
	if v, hit := res.memo.Load(fullMethod); hit {
		r := v.(resolution)
		return r.group, r.pol, r.ok
	}
	r := res.resolve(fullMethod)
	res.memo.Store(fullMethod, r)
	return r.group, r.pol, r.ok
}

func (res *Resolver) resolve(fullMethod string) resolution {
	var best resolution
	bestKind := matchKind(-1)
	bestLen := -1

	for _, g := range res.groups {
		for _, r := range g.rules {
			matched, mLen := r.match(fullMethod)
			if !matched {
				continue
			}
			if bestKind < 0 || r.kind < bestKind || (r.kind == bestKind && mLen > bestLen) {
				bestKind, bestLen = r.kind, mLen
				best = resolution{group: g.name, pol: g.policy, ok: true}
			}
		}
	}
	return best
}
