// Package policy maps gRPC method names to per-group rate limits and
// deadlines.
package policy

import (
	"regexp"
	"strings"
	"time"
)

// RateLimitRule describes a rate-limiting policy for a group of methods.
type RateLimitRule struct {
	// Rate is the maximum number of requests allowed within Window.
	Rate int
	// Window is the time window for the rate limit.
	Window time.Duration
}

// PerSecond returns the sustained refill rate of the rule.
func (r RateLimitRule) PerSecond() float64 {
	if r.Window <= 0 {
		return float64(r.Rate)
	}
	return float64(r.Rate) / r.Window.Seconds()
}

// Policy holds the configuration that applies to a matched method group.
// A nil RateLimit falls back to the global limiter; a zero Timeout falls
// back to the server default.
type Policy struct {
	RateLimit *RateLimitRule
	Timeout   time.Duration
}

type matchKind int

// Lower kinds win.
const (
	kindExact matchKind = iota
	kindPrefix
	kindRegex
)

type rule struct {
	kind    matchKind
	pattern string
	re      *regexp.Regexp
}

// match reports whether r matches fullMethod and how many bytes matched,
// which breaks ties among rules of the same kind.
func (r *rule) match(fullMethod string) (bool, int) {
	switch r.kind {
	case kindExact:
		return fullMethod == r.pattern, len(r.pattern)
	case kindPrefix:
		return strings.HasPrefix(fullMethod, r.pattern), len(r.pattern)
	case kindRegex:
		if loc := r.re.FindStringIndex(fullMethod); loc != nil {
			return true, loc[1] - loc[0]
		}
	}
	return false, 0
}

// GroupBuilder constructs a method group with one or more matching rules and
// a policy.
type GroupBuilder struct {
	name   string
	rules  []rule
	policy *Policy
}

// Group starts building a new method group with the given name.
func Group(name string) *GroupBuilder {
	return &GroupBuilder{name: name}
}

// Exact adds an exact-match rule for pattern.
func (g *GroupBuilder) Exact(pattern string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindExact, pattern: pattern})
	return g
}

// Prefix adds a prefix-match rule for pattern.
func (g *GroupBuilder) Prefix(pattern string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindPrefix, pattern: pattern})
	return g
}

// Regex adds a regex-match rule for pattern.
// The pattern is compiled immediately; an invalid regex will panic.
func (g *GroupBuilder) Regex(pattern string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindRegex, pattern: pattern, re: regexp.MustCompile(pattern)})
	return g
}

// Policy attaches a Policy to the group and returns the finished builder.
func (g *GroupBuilder) Policy(p Policy) *GroupBuilder {
	g.policy = &p
	return g
}
