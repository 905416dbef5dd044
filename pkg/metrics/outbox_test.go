package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.Observe("invoice_fully_paid", OutboxPublished)
	m.Observe("invoice_fully_paid", OutboxPublished)
	m.Observe("expense_recorded", OutboxDeadLettered)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.ObserveLag(created, created.Add(2*time.Second))
	m.ObserveLag(time.Time{}, created)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	published, err := fetchCounterValue(mfs, "stockledger_outbox_events_total", "outcome", OutboxPublished)
	require.NoError(t, err)
	assert.Equal(t, 2.0, published)

	lag := findMetricFamily(mfs, "stockledger_outbox_publish_lag_seconds")
	require.NotNil(t, lag)
	assert.Equal(t, uint64(1), lag.GetMetric()[0].GetHistogram().GetSampleCount())
	assert.Equal(t, 2.0, lag.GetMetric()[0].GetHistogram().GetSampleSum())
}

func TestOutboxMetricsNilSafe(t *testing.T) {
	var m *OutboxMetrics
	m.Observe("x", OutboxRetry)
	m.ObserveLag(time.Now(), time.Now())
	NewOutboxMetrics(nil).Observe("x", OutboxPublished)
}

func TestServeWithoutAddrIsNoop(t *testing.T) {
	require.NoError(t, Serve(context.Background(), "", prometheus.NewRegistry(), nil))
}
