// Package metrics exposes Prometheus collectors for the cache daemon.
// InitPrometheus must be called once at startup; until then every Record
// helper is a no-op so library code can call them unconditionally.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics wraps prometheus collectors for cache metrics
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// Counters
	readsTotal     *prometheus.CounterVec
	evictionsTotal *prometheus.CounterVec
	storeOpsTotal  *prometheus.CounterVec

	// Histograms
	operationDuration *prometheus.HistogramVec

	// Gauges
	entries prometheus.Gauge
}

// Default histogram buckets for service operation duration (in milliseconds)
var defaultBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500}

var promMetrics *PrometheusMetrics

// InitPrometheus initializes the Prometheus metrics subsystem
func InitPrometheus(namespace string, buckets []float64) {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	pm := &PrometheusMetrics{
		registry: registry,

		readsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reads_total",
				Help:      "Total cache reads by outcome",
			},
			[]string{"outcome"}, // hit, miss
		),

		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evictions_total",
				Help:      "Total entries discarded from the cache by reason",
			},
			[]string{"reason"}, // capacity, expired, removed
		),

		storeOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total backing store operations by result",
			},
			[]string{"operation", "status"}, // fetch/persist, success/failed
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_milliseconds",
				Help:      "Duration of service read/write operations in milliseconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),

		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "entries",
				Help:      "Number of entries currently indexed by the cache",
			},
		),
	}

	registry.MustRegister(
		pm.readsTotal,
		pm.evictionsTotal,
		pm.storeOpsTotal,
		pm.operationDuration,
		pm.entries,
	)

	promMetrics = pm
}

// RecordRead records a cache read and its outcome
func RecordRead(hit bool) {
	if promMetrics == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	promMetrics.readsTotal.WithLabelValues(outcome).Inc()
}

// RecordEviction records an entry leaving the cache
func RecordEviction(reason string) {
	if promMetrics == nil {
		return
	}
	promMetrics.evictionsTotal.WithLabelValues(reason).Inc()
}

// RecordStoreOp records a backing store fetch or persist
func RecordStoreOp(operation string, success bool) {
	if promMetrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "failed"
	}
	promMetrics.storeOpsTotal.WithLabelValues(operation, status).Inc()
}

// RecordOperationDuration records a service read/write duration
func RecordOperationDuration(operation string, durationMs float64) {
	if promMetrics == nil {
		return
	}
	promMetrics.operationDuration.WithLabelValues(operation).Observe(durationMs)
}

// SetEntries sets the current cache entry count
func SetEntries(count int) {
	if promMetrics == nil {
		return
	}
	promMetrics.entries.Set(float64(count))
}

// PrometheusHandler returns an HTTP handler for Prometheus metrics scraping
func PrometheusHandler() http.Handler {
	if promMetrics == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("prometheus metrics not initialized"))
		})
	}
	return promhttp.HandlerFor(promMetrics.registry, promhttp.HandlerOpts{})
}

// PrometheusRegistry returns the prometheus registry (for custom collectors)
func PrometheusRegistry() *prometheus.Registry {
	if promMetrics == nil {
		return nil
	}
	return promMetrics.registry
}
