package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordersCountOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := New(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordAuth(ctx, "login", time.Now(), nil)
	m.RecordAuth(ctx, "login", time.Now(), errors.New("boom"))
	m.RecordResume(ctx, "create", nil)
	m.RecordPayment(ctx, "stripe", nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	totals := map[string]int64{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		sum, ok := metric.Data.(metricdata.Sum[int64])
		if !ok {
			continue
		}
		for _, dp := range sum.DataPoints {
			totals[metric.Name] += dp.Value
		}
	}
	assert.Equal(t, int64(2), totals["auth_requests_total"])
	assert.Equal(t, int64(1), totals["resume_operations_total"])
	assert.Equal(t, int64(1), totals["payment_sessions_total"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *AppMetrics
	assert.NotPanics(t, func() {
		m.RecordAuth(context.Background(), "login", time.Now(), nil)
		m.RecordResume(context.Background(), "delete", nil)
		m.RecordPayment(context.Background(), "razorpay", nil)
	})
}
