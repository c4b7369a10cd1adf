// Package metrics provides Prometheus metrics for the pomorank leaderboard
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Business metrics
	scoreUpdates     prometheus.Counter
	leaderboardReads *prometheus.CounterVec
	cacheRebuilds    prometheus.Counter
	cacheRebuildSize prometheus.Gauge
	resets           *prometheus.CounterVec

	// Reconciliation metrics
	syncCycles  prometheus.Counter
	syncCreated prometheus.Counter
	syncUpdated prometheus.Counter
	syncDeleted prometheus.Counter
	syncErrors  prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pomorank",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.scoreUpdates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "score_updates_total",
		Help: "Total number of successful score increments.",
	})
	m.leaderboardReads = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "reads_total",
		Help: "Total number of leaderboard reads by period.",
	}, []string{"period"})
	m.cacheRebuilds = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "cache_rebuilds_total",
		Help: "Total number of cold-cache rebuilds from the durable store.",
	})
	m.cacheRebuildSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "cache_rebuild_users",
		Help: "Number of users loaded by the most recent cache rebuild.",
	})
	m.resets = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "resets_total",
		Help: "Total number of executed period resets by period.",
	}, []string{"period"})

	m.syncCycles = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "sync",
		Name: "cycles_total",
		Help: "Total number of completed reconciliation cycles.",
	})
	m.syncCreated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "sync",
		Name: "created_total",
		Help: "Durable rows created by reconciliation.",
	})
	m.syncUpdated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "sync",
		Name: "updated_total",
		Help: "Durable rows overwritten by reconciliation.",
	})
	m.syncDeleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "sync",
		Name: "deleted_total",
		Help: "Durable rows deleted by reconciliation.",
	})
	m.syncErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "sync",
		Name: "errors_total",
		Help: "Per-user failures skipped during reconciliation.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http",
		Name: "requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http",
		Name:    "request_duration_ms",
		Help:    "HTTP request duration in milliseconds.",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers over the global manager.

// RecordScoreUpdate counts one successful score increment.
func RecordScoreUpdate() {
	if globalManager.enabled {
		globalManager.scoreUpdates.Inc()
	}
}

// RecordLeaderboardRead counts one leaderboard read for a period.
func RecordLeaderboardRead(period string) {
	if globalManager.enabled {
		globalManager.leaderboardReads.WithLabelValues(period).Inc()
	}
}

// RecordCacheRebuild counts one cold-cache rebuild of n users.
func RecordCacheRebuild(n int) {
	if globalManager.enabled {
		globalManager.cacheRebuilds.Inc()
		globalManager.cacheRebuildSize.Set(float64(n))
	}
}

// RecordReset counts one executed reset for a period.
func RecordReset(period string) {
	if globalManager.enabled {
		globalManager.resets.WithLabelValues(period).Inc()
	}
}

// RecordSyncCycle records the stats of one completed reconciliation cycle.
func RecordSyncCycle(created, updated, deleted, errs int) {
	if !globalManager.enabled {
		return
	}
	globalManager.syncCycles.Inc()
	globalManager.syncCreated.Add(float64(created))
	globalManager.syncUpdated.Add(float64(updated))
	globalManager.syncDeleted.Add(float64(deleted))
	globalManager.syncErrors.Add(float64(errs))
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}
