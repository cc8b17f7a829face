package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds the Prometheus metrics for the plateau service.
type MetricsRegistry struct {
	registry *prometheus.Registry

	QueryDuration  *prometheus.HistogramVec
	QueriesTotal   *prometheus.CounterVec
	IndexBuilds    *prometheus.CounterVec
	DatasetRecords prometheus.Gauge
	DatasetReloads prometheus.Counter
	WSConnections  prometheus.Gauge
}

// NewMetricsRegistry creates and registers all service metrics on a private
// registry, keeping the /metrics output free of unrelated collectors.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plateau_query_duration_seconds",
				Help:    "Duration of analysis queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"endpoint", "result"},
		),

		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plateau_queries_total",
				Help: "Total analysis queries by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),

		IndexBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plateau_index_lookups_total",
				Help: "Strategy index lookups by cache outcome",
			},
			[]string{"outcome"},
		),

		DatasetRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "plateau_dataset_records",
				Help: "Record count of the loaded sweep dataset",
			},
		),

		DatasetReloads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "plateau_dataset_reloads_total",
				Help: "Completed dataset reloads",
			},
		),

		WSConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "plateau_ws_connections",
				Help: "Open interactive WebSocket connections",
			},
		),
	}

	m.registry.MustRegister(
		m.QueryDuration,
		m.QueriesTotal,
		m.IndexBuilds,
		m.DatasetRecords,
		m.DatasetReloads,
		m.WSConnections,
	)
	return m
}

// Handler returns the /metrics endpoint handler.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IndexBuildHook adapts the registry to the index manager's build hook.
func (m *MetricsRegistry) IndexBuildHook(strategy string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.IndexBuilds.WithLabelValues(outcome).Inc()
}
