// Package metrics exposes Prometheus collectors for the dashboard. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netusage/internal/core"
)

const namespace = "netusage"

type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	datasets      *prometheus.CounterVec
	loadFailures  *prometheus.CounterVec
	rowsProcessed *prometheus.CounterVec
	charts        *prometheus.CounterVec
}

// New registers every collector on a fresh registry. activeSessions, if
// non-nil, backs the active_sessions gauge.
func New(activeSessions func() int) (*Metrics, error) {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		datasets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_loaded_total",
			Help:      "Datasets loaded successfully, by source kind.",
		}, []string{"source"}),
		loadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_load_failures_total",
			Help:      "Dataset loads that failed, by reason.",
		}, []string{"reason"}),
		rowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "Raw usage rows seen while cleaning, by outcome.",
		}, []string{"outcome"}),
		charts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_rendered_total",
			Help:      "Charts rendered, by image format.",
		}, []string{"format"}),
	}

	cs := []prometheus.Collector{
		m.httpRequests, m.httpLatency, m.datasets, m.loadFailures, m.rowsProcessed, m.charts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	if activeSessions != nil {
		cs = append(cs, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}, func() float64 { return float64(activeSessions()) }))
	}
	for _, c := range cs {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// DatasetLoaded records a successful load and its row outcomes.
func (m *Metrics) DatasetLoaded(kind string, r core.LoadReport) {
	if m == nil {
		return
	}
	m.datasets.WithLabelValues(kind).Inc()
	m.Rows(r)
}

// Rows records the row outcomes of one cleaning pass.
func (m *Metrics) Rows(r core.LoadReport) {
	if m == nil {
		return
	}
	m.rowsProcessed.WithLabelValues("kept").Add(float64(r.RowsKept - r.ZeroCoerced))
	m.rowsProcessed.WithLabelValues("zero_coerced").Add(float64(r.ZeroCoerced))
	m.rowsProcessed.WithLabelValues("dropped").Add(float64(r.RowsDropped))
}

func (m *Metrics) LoadFailed(reason string) {
	if m == nil {
		return
	}
	m.loadFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ChartRendered(format string) {
	if m == nil {
		return
	}
	m.charts.WithLabelValues(format).Inc()
}
