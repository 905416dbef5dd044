package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PostingMetrics counts journal posting outcomes per source document type.
type PostingMetrics struct {
	postings *prometheus.CounterVec
}

func NewPostingMetrics(reg prometheus.Registerer) *PostingMetrics {
	if reg == nil {
		return &PostingMetrics{}
	}
	postings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_postings_total",
		Help:      "Journal posting attempts by source type and outcome.",
	}, []string{"source", "outcome"})
	reg.MustRegister(postings)
	return &PostingMetrics{postings: postings}
}

// Observe records one posting attempt.
func (p *PostingMetrics) Observe(source, outcome string) {
	if p == nil || p.postings == nil {
		return
	}
	p.postings.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}
