// Package tracing provides OpenTelemetry spans for the flavor service: a
// gRPC server interceptor for incoming calls and Start/End helpers for the
// resolver and aggregator internals.
package tracing

import (
	"context"
	"strings"

	"github.com/IronManRust/culvers-ice-cream-ical/contextx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	grpcStatus "google.golang.org/grpc/status"
)

// TracingConfig selects the provider and propagator used by the server
// interceptor. Nil fields fall back to the otel globals.
type TracingConfig struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
}

func (c *TracingConfig) tracer() trace.Tracer {
	if c.TracerProvider != nil {
		return c.TracerProvider.Tracer(instrumentationName)
	}
	return otel.Tracer(instrumentationName)
}

func (c *TracingConfig) propagator() propagation.TextMapPropagator {
	if c.Propagators != nil {
		return c.Propagators
	}
	return otel.GetTextMapPropagator()
}

// UnaryServerInterceptor opens a server span per call, continuing any trace
// context sent by the caller. A nil cfg yields a passthrough.
func UnaryServerInterceptor(cfg *TracingConfig) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if cfg == nil {
			return handler(ctx, req)
		}
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			ctx = cfg.propagator().Extract(ctx, mdCarrier(md))
		}

		svc, method := splitFullMethod(info.FullMethod)
		attrs := []attribute.KeyValue{
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", svc),
			attribute.String("rpc.method", method),
		}
		if id := contextx.RequestIDFromContext(ctx); id != "" {
			attrs = append(attrs, attribute.String("request.id", id))
		}
		ctx, span := cfg.tracer().Start(ctx, info.FullMethod,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		resp, err := handler(ctx, req)

		st := grpcStatus.Convert(err)
		span.SetAttributes(attribute.String("rpc.grpc.status_code", st.Code().String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, st.Message())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return resp, err
	}
}

// mdCarrier reads trace headers from incoming gRPC metadata.
type mdCarrier metadata.MD

func (c mdCarrier) Get(key string) string {
	if v := metadata.MD(c).Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c mdCarrier) Set(key, value string) { metadata.MD(c).Set(key, value) }

func (c mdCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// splitFullMethod splits "/service/method" into its two parts.
func splitFullMethod(fullMethod string) (string, string) {
	svc, method, ok := strings.Cut(strings.TrimPrefix(fullMethod, "/"), "/")
	if !ok {
		return svc, ""
	}
	return svc, method
}
