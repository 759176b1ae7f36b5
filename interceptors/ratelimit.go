package interceptors

import (
	"context"
	"sync"

	"github.com/IronManRust/culvers-ice-cream-ical/policy"
	"github.com/IronManRust/culvers-ice-cream-ical/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errRateLimited = status.Error(codes.ResourceExhausted, "rate limit exceeded")

// rateLimitState holds the global limiter, an optional policy resolver, and
// the per-group limiters created lazily from resolved policies.
type rateLimitState struct {
	global   *ratelimit.Limiter
	resolver *policy.Resolver

	mu     sync.Mutex
	groups map[string]*ratelimit.Limiter
}

// limiterFor returns the group limiter when fullMethod resolves to a group
// with a RateLimit rule, and the global limiter otherwise. It returns nil
// when neither applies.
func (s *rateLimitState) limiterFor(fullMethod string) *ratelimit.Limiter {
	if s.resolver != nil {
		if name, pol, ok := s.resolver.Resolve(fullMethod); ok && pol != nil && pol.RateLimit != nil {
			return s.groupLimiter(name, pol.RateLimit)
		}
	}
	return s.global
}

func (s *rateLimitState) groupLimiter(name string, rl *policy.RateLimitRule) *ratelimit.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.groups[name]; ok {
		return l
	}
	l := ratelimit.NewLimiter(rl.PerSecond(), rl.Rate)
	s.groups[name] = l
	return l
}

// RateLimitUnary returns a unary server interceptor that rejects requests with
// ResourceExhausted once the applicable limiter is drained. A method whose
// group carries a RateLimit rule uses that group's limiter; every other
// method uses l. A nil l leaves unmatched methods unlimited.
func RateLimitUnary(l *ratelimit.Limiter, r *policy.Resolver) grpc.UnaryServerInterceptor {
	st := &rateLimitState{global: l, resolver: r, groups: make(map[string]*ratelimit.Limiter)}
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if lim := st.limiterFor(info.FullMethod); lim != nil && !lim.Allow() {
			return nil, errRateLimited
		}
		return handler(ctx, req)
	}
}
