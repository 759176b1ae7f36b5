package interceptors

import (
	"context"

	"github.com/IronManRust/culvers-ice-cream-ical/contextx"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestIDHeader is the metadata key carrying the request ID in both
// directions.
const RequestIDHeader = "x-request-id"

// maxRequestIDLen bounds caller supplied IDs.
const maxRequestIDLen = 128

// ensureRequestID returns the context enriched with a request ID. An ID
// already in the context wins, then one sent by the caller, then a fresh
// UUID.
func ensureRequestID(ctx context.Context) (context.Context, string) {
	if id := contextx.RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := incomingRequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	return contextx.WithRequestID(ctx, id), id
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(RequestIDHeader) {
		if v != "" && len(v) <= maxRequestIDLen {
			return v
		}
	}
	return ""
}

// RequestIDUnary returns a unary server interceptor that ensures a request ID
// is present in the context and echoes it back as a response header.
func RequestIDUnary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx, id := ensureRequestID(ctx)
		// SetHeader fails outside a real server transport; the ID is still
		// in the context.
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))
		return handler(ctx, req)
	}
}
