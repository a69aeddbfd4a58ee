package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"poetica/internal/config"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(&config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	shutdown()
}

func TestCounter_ResolvesInstrumentOnce(t *testing.T) {
	reader := metric.NewManualReader()
	otel.SetMeterProvider(metric.NewMeterProvider(metric.WithReader(reader)))

	ctx := context.Background()
	c := NewCounter("poetica.test.decisions", "decisions in tests")
	c.Add(ctx, 1, attribute.String("decision", "approve"))
	first := c.counter
	require.NotNil(t, first)

	c.Add(ctx, 2, attribute.String("decision", "approve"))
	assert.Equal(t, first, c.counter)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.EqualValues(t, 3, sum.DataPoints[0].Value)
}

func TestStartSpan_NoopBeforeInit(t *testing.T) {
	_, span := StartSpan(context.Background(), "test")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
}
