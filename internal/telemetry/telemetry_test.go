package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "otsolve")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSolveSpanAttributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSolve(context.Background(), "sinkhorn", "float64", "cpu")
	EndSolve(span, 12, 1e-10, true, errors.New("boom"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "otsolve.solve", ended[0].Name())
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	require.Equal(t, "sinkhorn", attrs["ot.method"].AsString())
	require.Equal(t, int64(12), attrs["ot.iterations"].AsInt64())
	require.True(t, attrs["ot.converged"].AsBool())
	require.Len(t, ended[0].Events(), 1)
}
