package interceptors

import (
	"context"
	"runtime/debug"

	"github.com/IronManRust/culvers-ice-cream-ical/contextx"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoveryUnary returns a unary server interceptor that turns a panic in the
// handler into an Internal status and logs the panic value with its stack.
// A nil log discards the report.
func RecoveryUnary(log logger.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = logger.Nop()
	}
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.With(map[string]any{
					"method":     info.FullMethod,
					"request_id": contextx.RequestIDFromContext(ctx),
					"stack":      string(debug.Stack()),
				}).Error("panic in handler: %v", r)
				resp = nil
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
