package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/envutil"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
)

const DefaultServiceName = "mojocode"

type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string
}

// ExporterSettings is the OTEL_* environment resolved once at startup.
type ExporterSettings struct {
	Enabled     bool
	Endpoint    string
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

func ExporterSettingsFromEnv() ExporterSettings {
	return ExporterSettings{
		Enabled:     envutil.Bool("OTEL_ENABLED", false),
		Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Headers:     parseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		SampleRatio: clampRatio(envutil.Float("OTEL_SAMPLER_RATIO", 0.1)),
	}
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error = noopShutdown
)

func noopShutdown(context.Context) error { return nil }

// InitOTel installs the global tracer provider at most once per process. The
// returned func flushes and stops it; it is a no-op when tracing is disabled.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		settings := ExporterSettingsFromEnv()
		if !settings.Enabled {
			return
		}
		tp := newTracerProvider(ctx, log, cfg, settings)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		if log != nil {
			log.Info("otel tracing initialized", "service", serviceName(cfg), "endpoint", settings.Endpoint)
		}
	})
	return otelShutdown
}

func serviceName(cfg OtelConfig) string {
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		return name
	}
	return DefaultServiceName
}

func newTracerProvider(ctx context.Context, log *logger.Logger, cfg OtelConfig, settings ExporterSettings) *sdktrace.TracerProvider {
	name := serviceName(cfg)
	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
		),
	)
	if err != nil && log != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(settings.SampleRatio))),
		sdktrace.WithResource(res),
	}
	exporter, err := buildTraceExporter(ctx, log, settings)
	if err != nil && log != nil {
		log.Warn("otel exporter init failed (continuing)", "error", err)
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}
	return sdktrace.NewTracerProvider(opts...)
}

func buildTraceExporter(ctx context.Context, log *logger.Logger, settings ExporterSettings) (sdktrace.SpanExporter, error) {
	if settings.Endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(settings.Endpoint)}
		if settings.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(settings.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(settings.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	}
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	}
	return exp, nil
}

// parseHeaders reads "k1=v1,k2=v2"; malformed pairs are skipped.
func parseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		key, val := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

func clampRatio(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
