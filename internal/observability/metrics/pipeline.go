package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// pipelineMetrics count action outcomes and extraction sources for both the API and the worker.
type pipelineMetrics struct {
	actionsTotal     *prometheus.CounterVec
	actionDuration   *prometheus.HistogramVec
	extractionsTotal *prometheus.CounterVec
}

func newPipelineMetrics(registry *prometheus.Registry) *pipelineMetrics {
	actionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "total",
			Help:      "Total dispatched actions by outcome.",
		},
		[]string{"service", "action", "status"},
	)
	actionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "duration_seconds",
			Help:      "Action handling duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service", "action"},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "total",
			Help:      "Successful extractions by source type and PDF text strategy.",
		},
		[]string{"service", "source_type", "strategy"},
	)

	registry.MustRegister(actionsTotal, actionDuration, extractionsTotal)
	return &pipelineMetrics{
		actionsTotal:     actionsTotal,
		actionDuration:   actionDuration,
		extractionsTotal: extractionsTotal,
	}
}

func (m *pipelineMetrics) observeAction(service, action string, duration time.Duration, err error) {
	if action == "" {
		action = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.actionsTotal.WithLabelValues(service, action, status).Inc()
	m.actionDuration.WithLabelValues(service, action).Observe(duration.Seconds())
}

func (m *pipelineMetrics) observeExtraction(service, sourceType, strategy string) {
	if strategy == "" {
		strategy = "none"
	}
	m.extractionsTotal.WithLabelValues(service, sourceType, strategy).Inc()
}
