package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outbox publish outcomes.
const (
	OutboxPublished    = "published"
	OutboxRetry        = "retry"
	OutboxDeadLettered = "dead_lettered"
)

// OutboxMetrics tracks the relay from the outbox table to Pub/Sub.
type OutboxMetrics struct {
	events *prometheus.CounterVec
	lag    prometheus.Histogram
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	m := &OutboxMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_total",
			Help:      "Outbox rows handled by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "publish_lag_seconds",
			Help:      "Time between an outbox row being written and its publish.",
			Buckets:   []float64{.1, .5, 1, 5, 30, 120, 600, 3600},
		}),
	}
	reg.MustRegister(m.events, m.lag)
	return m
}

func (m *OutboxMetrics) Observe(eventType, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), outcome).Inc()
}

// ObserveLag records how long a published row waited in the outbox.
func (m *OutboxMetrics) ObserveLag(createdAt, publishedAt time.Time) {
	if m == nil || m.lag == nil || createdAt.IsZero() {
		return
	}
	lag := publishedAt.Sub(createdAt)
	if lag < 0 {
		lag = 0
	}
	m.lag.Observe(lag.Seconds())
}
