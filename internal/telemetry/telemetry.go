// Package telemetry installs the OpenTelemetry tracer provider. Without an
// OTLP endpoint the global provider stays a no-op and spans cost nothing.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/nadzzz/tandem/internal/config"
)

// Provider owns the SDK tracer provider. A Provider with a nil tracer
// provider is a no-op.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Init sets up trace export when cfg.OTLPEndpoint is set.
func Init(ctx context.Context, cfg config.TelemetryConfig) (*Provider, error) {
	if cfg.OTLPEndpoint == "" {
		slog.Info("trace export disabled")
		return &Provider{}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(cfg.ServiceName)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("trace export enabled", "endpoint", cfg.OTLPEndpoint, "service_name", cfg.ServiceName)
	return &Provider{tp: tp}, nil
}

func newResource(serviceName string) *resource.Resource {
	if serviceName == "" {
		serviceName = "tandem"
	}
	return resource.NewSchemaless(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version()),
	)
}

// Shutdown flushes pending spans. It is safe on a no-op Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down tracer provider: %w", err)
	}
	return nil
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}
