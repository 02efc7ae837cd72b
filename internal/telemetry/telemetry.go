// Package telemetry wires opt-in OpenTelemetry tracing for otsolve.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer of solver spans.
const InstrumentationName = "github.com/katalvlaran/lvlot/cmd/otsolve"

// Setup installs a global tracer provider exporting to the OTLP/HTTP
// endpoint. An empty endpoint leaves tracing off and returns a no-op
// shutdown. The returned shutdown flushes pending spans.
func Setup(ctx context.Context, endpoint, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns the solver tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSolve opens a span for one solve.
func StartSolve(ctx context.Context, method, precision, backend string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "otsolve.solve", trace.WithAttributes(
		attribute.String("ot.method", method),
		attribute.String("ot.precision", precision),
		attribute.String("ot.backend", backend),
	))
}

// EndSolve records the convergence outcome on span and ends it.
func EndSolve(span trace.Span, iterations int, residual float64, converged bool, err error) {
	span.SetAttributes(
		attribute.Int("ot.iterations", iterations),
		attribute.Float64("ot.residual", residual),
		attribute.Bool("ot.converged", converged),
	)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
