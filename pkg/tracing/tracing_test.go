package tracing

import (
	"bytes"
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestClampRatio(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0}, {0, 0}, {0.25, 0.25}, {1, 1}, {3, 1},
	}
	for _, tt := range tests {
		if got := clampRatio(tt.in); got != tt.want {
			t.Fatalf("clampRatio(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitDisabledLeavesGlobalProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown := Init(context.Background(), Config{Enabled: false}, "testing")
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatalf("global tracer provider replaced while disabled")
	}
}

func TestStdoutExporterWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	exp, err := buildExporter(context.Background(), Config{}, &buf)
	if err != nil {
		t.Fatalf("buildExporter: %v", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	_, span := tp.Tracer("test").Start(context.Background(), "chatbot.turn")
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte(`"chatbot.turn"`)) {
		t.Fatalf("span not exported: %s", buf.String())
	}
}
