// Package metrics exports service operation metrics to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements the service's MetricsRecorder against a dedicated
// Prometheus registry, so multiple instances (tests, embedded uses) never
// fight over metric names.
type Metrics struct {
	registry *prometheus.Registry

	// Operations counts service operations by name and outcome.
	Operations *prometheus.CounterVec

	// OperationLatency tracks operation durations by name.
	OperationLatency *prometheus.HistogramVec
}

// New builds a Metrics instance with its own registry, including the standard
// process and Go runtime collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rpascore_operations_total",
			Help: "Total service operations by name and outcome",
		}, []string{"operation", "outcome"}),
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rpascore_operation_duration_seconds",
			Help:    "Duration of service operations by name",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

// Observe records one service operation outcome.
func (m *Metrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if m == nil || operation == "" {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for callers that register their
// own collectors alongside the service metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
