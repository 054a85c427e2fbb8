// Package observability wires OpenTelemetry trace export into Genkit's
// tracer provider. Spans cover generation, extraction and deployment, so
// a slow turn can be attributed to the model, the hub, or the engine.
//
// Export goes to any OTLP HTTP collector (default localhost:4318).
// Configure via ~/.sitesmith/config.yaml:
//
//	tracing:
//	  enabled: true
//	  endpoint: "localhost:4318"
//	  environment: "dev"
//	  service_name: "sitesmith"
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config for OTLP trace export.
type Config struct {
	// Endpoint is the collector's OTLP HTTP endpoint.
	Endpoint string
	// Environment tags spans (dev, staging, prod).
	Environment string
	// ServiceName appears on every exported span.
	ServiceName string
}

// DefaultEndpoint is the conventional local OTLP HTTP port.
const DefaultEndpoint = "localhost:4318"

// Setup registers an OTLP exporter with Genkit's TracerProvider and
// returns a shutdown function that flushes pending spans. An unreachable
// collector disables tracing instead of failing startup.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	// Genkit's TracerProvider reads these at span creation time.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		slog.Warn("failed to create otlp exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	slog.Debug("tracing enabled",
		"endpoint", endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment)

	return tracing.TracerProvider().Shutdown, nil
}
