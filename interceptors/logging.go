package interceptors

import (
	"context"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/contextx"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingUnary returns a unary server interceptor that writes one line per
// call with the method, status code, duration and request ID. Client side
// failures log at warn, server side failures at error.
func LoggingUnary(log logger.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = logger.Nop()
	}
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		l := log.With(map[string]any{
			"method":      info.FullMethod,
			"code":        code.String(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  contextx.RequestIDFromContext(ctx),
		})
		if g := contextx.GroupFromContext(ctx); g != "" {
			l = l.With(map[string]any{"group": g})
		}

		switch {
		case err == nil:
			l.Info("%s - ok", info.FullMethod)
		case clientFault(code):
			l.Warn("%s - %v", info.FullMethod, err)
		default:
			l.Error("%s - %v", info.FullMethod, err)
		}
		return resp, err
	}
}

func clientFault(c codes.Code) bool {
	switch c {
	case codes.InvalidArgument, codes.NotFound, codes.Canceled, codes.ResourceExhausted:
		return true
	}
	return false
}
