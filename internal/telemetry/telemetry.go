// Package telemetry configures OpenTelemetry tracing for pkgguard runs.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every pkgguard span.
const TracerName = "github.com/EmundoT/pkgguard"

// ShutdownFunc flushes and closes the exporter.
type ShutdownFunc func(context.Context) error

// Init installs a global tracer provider that writes spans as JSON to traceFile.
// With an empty traceFile the global no-op provider stays in place.
func Init(ctx context.Context, serviceVersion, traceFile string) (ShutdownFunc, error) {
	if traceFile == "" {
		return func(context.Context) error { return nil }, nil
	}

	f, err := os.OpenFile(traceFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := NewProvider(exporter, serviceVersion)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), f.Close())
	}, nil
}

// NewProvider builds a tracer provider exporting synchronously to exporter.
// Spans are few and runs are short, so nothing is batched.
func NewProvider(exporter sdktrace.SpanExporter, serviceVersion string) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", "pkgguard"),
		attribute.String("service.version", serviceVersion),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
}

// Tracer returns the pkgguard tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
