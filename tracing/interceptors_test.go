package tracing

import (
	"context"
	"testing"

	"github.com/IronManRust/culvers-ice-cream-ical/contextx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	grpcCodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	grpcStatus "google.golang.org/grpc/status"
)

func recorder(t *testing.T) (*TracingConfig, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return &TracingConfig{TracerProvider: tp, Propagators: propagation.TraceContext{}}, rec
}

func attrs(span sdktrace.ReadOnlySpan) map[string]string {
	out := map[string]string{}
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

// call runs one request through the interceptor and returns the single span
// it produced.
func call(t *testing.T, ctx context.Context, method string, handlerErr error) sdktrace.ReadOnlySpan {
	t.Helper()
	cfg, rec := recorder(t)
	_, err := UnaryServerInterceptor(cfg)(ctx, "req", &grpc.UnaryServerInfo{FullMethod: method},
		func(context.Context, any) (any, error) { return "ok", handlerErr })
	require.Equal(t, handlerErr, err)
	spans := rec.Ended()
	require.Len(t, spans, 1)
	return spans[0]
}

func TestUnaryServerInterceptor_Success(t *testing.T) {
	span := call(t, t.Context(), "/fotd.FlavorService/GetCalendar", nil)

	assert.Equal(t, "/fotd.FlavorService/GetCalendar", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, codes.Ok, span.Status().Code)
	a := attrs(span)
	assert.Equal(t, "grpc", a["rpc.system"])
	assert.Equal(t, "fotd.FlavorService", a["rpc.service"])
	assert.Equal(t, "GetCalendar", a["rpc.method"])
	assert.Equal(t, "OK", a["rpc.grpc.status_code"])
	assert.NotContains(t, a, "request.id")
}

func TestUnaryServerInterceptor_Error(t *testing.T) {
	err := grpcStatus.Error(grpcCodes.NotFound, "location 9 not found")
	span := call(t, t.Context(), "/fotd.FlavorService/GetLocation", err)

	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "location 9 not found", span.Status().Description)
	assert.Equal(t, "NotFound", attrs(span)["rpc.grpc.status_code"])
	assert.Len(t, span.Events(), 1, "error should be recorded as an event")
}

func TestUnaryServerInterceptor_ContinuesCallerTrace(t *testing.T) {
	md := metadata.Pairs("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	span := call(t, metadata.NewIncomingContext(t.Context(), md), "/fotd.FlavorService/ListFlavors", nil)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", span.Parent().SpanID().String())
}

func TestUnaryServerInterceptor_RequestID(t *testing.T) {
	ctx := contextx.WithRequestID(t.Context(), "req-42")
	span := call(t, ctx, "/fotd.FlavorService/GetStatus", nil)
	assert.Equal(t, "req-42", attrs(span)["request.id"])
}

func TestUnaryServerInterceptor_NilConfig(t *testing.T) {
	resp, err := UnaryServerInterceptor(nil)(t.Context(), "hello", &grpc.UnaryServerInfo{FullMethod: "/x/Y"},
		func(_ context.Context, req any) (any, error) { return req, nil })
	require.NoError(t, err)
	assert.Equal(t, "hello", resp)
}

func TestSplitFullMethod(t *testing.T) {
	cases := map[string][2]string{
		"/fotd.FlavorService/GetCalendar": {"fotd.FlavorService", "GetCalendar"},
		"/service/method":                 {"service", "method"},
		"noSlash":                         {"noSlash", ""},
	}
	for in, want := range cases {
		svc, method := splitFullMethod(in)
		assert.Equal(t, want, [2]string{svc, method}, in)
	}
}
