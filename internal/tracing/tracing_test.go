package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{}, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracing produced a recording span")
	}
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitStdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{Enabled: true, ServiceName: "inview-test", Writer: &buf}, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "pair")
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, nil)

	if !strings.Contains(buf.String(), `"Name":"pair"`) {
		t.Errorf("exported spans missing the test span:\n%s", buf.String())
	}
	otel.SetTracerProvider(noop.NewTracerProvider())
}
