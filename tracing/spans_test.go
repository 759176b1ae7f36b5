package tracing

import (
	"bytes"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartAndEnd(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})

	_, ok := Start(t.Context(), "fetch location", attribute.Int("location.id", 7))
	End(ok, nil)
	_, failed := Start(t.Context(), "fetch flavors")
	End(failed, errors.New("upstream down"))

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "fetch location" || spans[0].Status().Code != codes.Ok {
		t.Fatalf("unexpected first span: %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Status().Code != codes.Error || spans[1].Status().Description != "upstream down" {
		t.Fatalf("unexpected second span status: %v", spans[1].Status())
	}
}

func TestNewStdoutProvider(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewStdoutProvider(&buf)
	if err != nil {
		t.Fatalf("NewStdoutProvider: %v", err)
	}
	_, span := tp.Tracer("test").Start(t.Context(), "calendar")
	span.End()
	if err := tp.Shutdown(t.Context()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"Name": "calendar"`)) {
		t.Fatalf("expected exported span in output, got %s", buf.String())
	}
}
