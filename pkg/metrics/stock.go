package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics tracks stock ledger movements and rejected adjustments.
type StockMetrics struct {
	movements    *prometheus.CounterVec
	insufficient prometheus.Counter
}

func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_movements_total",
		Help:      "Applied stock adjustments by reason.",
	}, []string{"reason"})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_insufficient_total",
		Help:      "Adjustments rejected because they would drive stock negative.",
	})
	reg.MustRegister(movements, insufficient)
	return &StockMetrics{movements: movements, insufficient: insufficient}
}

func (s *StockMetrics) IncMovement(reason string) {
	if s == nil || s.movements == nil {
		return
	}
	s.movements.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (s *StockMetrics) IncInsufficient() {
	if s == nil || s.insufficient == nil {
		return
	}
	s.insufficient.Inc()
}
