// Package tracing sets up the OpenTelemetry SDK and exposes one tracer per
// subsystem, mirroring how each storage/client package in this service gets
// its own named tracer.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Config controls whether and where traces are exported.
type Config struct {
	ServiceName string
	Endpoint    string
	Enabled     bool
}

// Init configures the global trace provider. When cfg.Enabled is false it
// installs nothing, so otel's default no-op provider stays in place and
// tracer.Start calls remain cheap.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(shutdownCtx context.Context) error {
		c, cancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(c)
	}, nil
}

// Tracer names, one per subsystem that issues outbound calls.
const (
	VectorStoreTracerName = "resumatch/vectorstore"
	EmbedderTracerName    = "resumatch/embedder"
	LLMClientTracerName   = "resumatch/llmclient"
	IngestTracerName      = "resumatch/ingest"
)

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer { return otel.Tracer(name) }
