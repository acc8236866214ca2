// Package metrics exposes Prometheus instrumentation for the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	mutations       *prometheus.CounterVec
	importedRows    prometheus.Counter
	skippedRows     prometheus.Counter
}

// New registers the application collectors on their own registry so tests
// can build as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return newWith(reg)
}

func newWith(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketflow_mutations_total",
			Help: "Budget mutations by kind.",
		}, []string{"kind"}),
		importedRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "marketflow_import_rows_total",
			Help: "Rows successfully imported.",
		}),
		skippedRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "marketflow_import_skipped_rows_total",
			Help: "Import rows dropped for missing or invalid fields.",
		}),
	}
	m.registry = reg
	return m
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// CountMutation increments the mutation counter for one kind of change, e.g.
// "transaction.add" or "category.rename".
func (m *Metrics) CountMutation(kind string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(kind).Inc()
}

// CountImport records the outcome of an import run.
func (m *Metrics) CountImport(imported, skipped int) {
	if m == nil {
		return
	}
	m.importedRows.Add(float64(imported))
	m.skippedRows.Add(float64(skipped))
}

// Handler serves the scrape endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
