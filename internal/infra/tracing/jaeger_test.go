package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSamplerDescription(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(5).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestSamplerDecisions(t *testing.T) {
	params := sdktrace.SamplingParameters{ParentContext: context.Background(), Name: "root"}
	assert.Equal(t, sdktrace.RecordAndSample, sampler(1).ShouldSample(params).Decision)
	assert.Equal(t, sdktrace.Drop, sampler(0).ShouldSample(params).Decision)
}

func TestInitTracerInstallsPropagator(t *testing.T) {
	tp, err := InitTracer(context.Background(), "lastframe-test", "http://127.0.0.1:4318/v1/traces", 1)
	require.NoError(t, err)
	t.Cleanup(func() {
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
		_ = tp.Shutdown(context.Background())
	})

	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}
