package interceptors

import (
	"context"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/contextx"
	"github.com/IronManRust/culvers-ice-cream-ical/policy"
	"google.golang.org/grpc"
)

// TimeoutUnary returns a unary server interceptor that bounds each call with
// a deadline. The resolved group's Timeout wins over def; a zero result
// leaves the caller's deadline alone. The matched group name is recorded in
// the context either way.
func TimeoutUnary(def time.Duration, r *policy.Resolver) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		timeout := def
		if r != nil {
			if name, pol, ok := r.Resolve(info.FullMethod); ok {
				ctx = contextx.WithGroup(ctx, name)
				if pol != nil && pol.Timeout > 0 {
					timeout = pol.Timeout
				}
			}
		}
		if timeout <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}
