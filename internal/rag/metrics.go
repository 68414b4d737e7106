package rag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rerank outcome label values.
const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeTimeout  = "timeout"
	outcomeMismatch = "mismatch"
	outcomeDisabled = "disabled"
	outcomeEmpty    = "empty"
)

// pipelineMetrics holds the Prometheus metrics owned by a Pipeline.
type pipelineMetrics struct {
	// rerankTotal counts retrievals by rerank outcome: ok, error, timeout,
	// mismatch, disabled or empty (no candidates).
	rerankTotal *prometheus.CounterVec

	// durationSeconds records end-to-end retrieval latency for successful
	// retrievals, partitioned by rerank outcome.
	durationSeconds *prometheus.HistogramVec

	// candidates records how many candidates similarity search returned.
	candidates prometheus.Histogram
}

// newPipelineMetrics registers pipeline metrics against reg.
func newPipelineMetrics(reg prometheus.Registerer) *pipelineMetrics {
	factory := promauto.With(reg)

	return &pipelineMetrics{
		rerankTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "journal",
			Subsystem: "retrieval",
			Name:      "rerank_total",
			Help:      "Retrievals partitioned by rerank outcome.",
		}, []string{"outcome"}),

		durationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "journal",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "End-to-end retrieval latency: embed, search and rerank.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"outcome"}),

		candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "journal",
			Subsystem: "retrieval",
			Name:      "candidates",
			Help:      "Number of candidates returned by similarity search before reranking.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
	}
}
