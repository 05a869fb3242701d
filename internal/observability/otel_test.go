package observability

import (
	"context"
	"testing"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

func TestExporterSettingsFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer x, bad ,=nokey,team=core")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "1")
	t.Setenv("OTEL_SAMPLER_RATIO", "4")

	s := ExporterSettingsFromEnv()
	if !s.Enabled || !s.Insecure || s.Endpoint != "collector:4318" {
		t.Fatalf("settings: got=%+v", s)
	}
	if s.SampleRatio != 1 {
		t.Fatalf("ratio should clamp: want=1 got=%v", s.SampleRatio)
	}
	if len(s.Headers) != 2 || s.Headers["authorization"] != "Bearer x" || s.Headers["team"] != "core" {
		t.Fatalf("headers: got=%v", s.Headers)
	}
}

func TestExporterSettingsDefaults(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SAMPLER_RATIO", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	s := ExporterSettingsFromEnv()
	if s.Enabled || s.SampleRatio != 0.1 || s.Headers != nil {
		t.Fatalf("defaults: got=%+v", s)
	}
}

func TestServiceNameDefault(t *testing.T) {
	if got := serviceName(OtelConfig{}); got != DefaultServiceName {
		t.Fatalf("service name: want=%s got=%s", DefaultServiceName, got)
	}
	if got := serviceName(OtelConfig{ServiceName: " api "}); got != "api" {
		t.Fatalf("service name: want=api got=%s", got)
	}
}

func TestTracerProviderWithStdoutExporter(t *testing.T) {
	tp := newTracerProvider(context.Background(), logger.Nop(), OtelConfig{ServiceName: "test"}, ExporterSettings{Enabled: true, SampleRatio: 1})
	_, span := tp.Tracer("test").Start(context.Background(), "op")
	if !span.SpanContext().IsValid() {
		t.Fatalf("span context should be valid")
	}
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
