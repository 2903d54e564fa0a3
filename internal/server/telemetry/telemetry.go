// Package telemetry installs the OpenTelemetry tracer provider used by the
// server services.
package telemetry

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/rollcall/internal/buildinfo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const ServiceName = "rollcalld"

var newExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
}

// Setup installs a global tracer provider. With an empty endpoint spans are
// sampled but never exported. The returned function flushes and stops the
// provider.
func Setup(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", buildinfo.Version),
	)

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if endpoint != "" {
		exp, err := newExporter(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("error creating otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
