// Package metrics provides Prometheus metrics for the TrustFlow scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the trust score engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring metrics
	scoresComputed  prometheus.Counter
	scoresDegraded  prometheus.Counter
	scoringDuration prometheus.Histogram

	// History mutation metrics
	settlements   *prometheus.CounterVec
	buyerPayments *prometheus.CounterVec

	// Audit trail metrics
	auditWritten   prometheus.Counter
	auditDropped   prometheus.Counter
	auditQueueSize prometheus.Gauge
	auditWorkers   prometheus.Gauge

	// Repository metrics
	repositoryOpDuration *prometheus.HistogramVec
	repositoryErrors     *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trustflow",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.scoresComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scores_computed_total",
		Help:      "Total number of trust score computations",
	})

	m.scoresDegraded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scores_degraded_total",
		Help:      "Total number of degraded computations that fell back to the base score",
	})

	m.scoringDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_duration_milliseconds",
		Help:      "Histogram of trust score computation duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.settlements = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "settlements_total",
			Help:      "Total number of recorded invoice settlements by outcome",
		},
		[]string{"outcome"},
	)

	m.buyerPayments = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "buyer_payments_total",
			Help:      "Total number of recorded buyer payments by timeliness",
		},
		[]string{"timeliness"},
	)

	m.auditWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_records_written_total",
		Help:      "Total number of score audit records persisted",
	})

	m.auditDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_records_dropped_total",
		Help:      "Total number of score audit records dropped on queue backpressure",
	})

	m.auditQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_queue_size",
		Help:      "Current size of the audit record queue",
	})

	m.auditWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_worker_count",
		Help:      "Current number of audit writer workers",
	})

	m.repositoryOpDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "repository_op_duration_milliseconds",
			Help:      "History repository operation duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"op"},
	)

	m.repositoryErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "repository_errors_total",
			Help:      "Total number of history repository errors by operation",
		},
		[]string{"op"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordScoreComputed increments the score computation counter.
func RecordScoreComputed() {
	globalManager.scoresComputed.Inc()
}

// RecordScoreDegraded increments the degraded computation counter.
func RecordScoreDegraded() {
	globalManager.scoresDegraded.Inc()
}

// RecordScoringDuration records the duration of one computation in milliseconds.
func RecordScoringDuration(durationMs float64) {
	globalManager.scoringDuration.Observe(durationMs)
}

// RecordSettlement counts one settlement by outcome.
func RecordSettlement(succeeded bool) {
	outcome := "defaulted"
	if succeeded {
		outcome = "successful"
	}
	globalManager.settlements.WithLabelValues(outcome).Inc()
}

// RecordBuyerPayment counts one buyer payment by timeliness.
func RecordBuyerPayment(onTime bool) {
	timeliness := "late"
	if onTime {
		timeliness = "on_time"
	}
	globalManager.buyerPayments.WithLabelValues(timeliness).Inc()
}

// RecordAuditWritten increments the persisted audit record counter.
func RecordAuditWritten() {
	globalManager.auditWritten.Inc()
}

// RecordAuditDropped increments the dropped audit record counter.
func RecordAuditDropped() {
	globalManager.auditDropped.Inc()
}

// UpdateAuditQueueSize sets the current audit queue size.
func UpdateAuditQueueSize(size int) {
	globalManager.auditQueueSize.Set(float64(size))
}

// UpdateAuditWorkerCount sets the current audit worker count.
func UpdateAuditWorkerCount(count int) {
	globalManager.auditWorkers.Set(float64(count))
}

// RecordRepositoryOp records the duration of one repository operation.
func RecordRepositoryOp(op string, durationMs float64) {
	globalManager.repositoryOpDuration.WithLabelValues(op).Observe(durationMs)
}

// RecordRepositoryError counts one repository error by operation.
func RecordRepositoryError(op string) {
	globalManager.repositoryErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records the duration of one HTTP request in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
