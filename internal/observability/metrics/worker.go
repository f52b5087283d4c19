package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestsInFlight prometheus.Gauge
	pipeline         *pipelineMetrics
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	requestsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "requests_in_flight",
			Help:      "Number of action requests being answered.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	registry.MustRegister(requestsInFlight)

	return &WorkerMetrics{
		registry:         registry,
		service:          service,
		requestsInFlight: requestsInFlight,
		pipeline:         newPipelineMetrics(registry),
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRequest() {
	m.requestsInFlight.Inc()
}

func (m *WorkerMetrics) FinishRequest() {
	m.requestsInFlight.Dec()
}

func (m *WorkerMetrics) ObserveAction(action string, duration time.Duration, err error) {
	m.pipeline.observeAction(m.service, action, duration, err)
}

func (m *WorkerMetrics) ObserveExtraction(sourceType, strategy string) {
	m.pipeline.observeExtraction(m.service, sourceType, strategy)
}
