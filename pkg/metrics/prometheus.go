// Package metrics provides Prometheus metrics for the wakepoint analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analysis metrics
	analysesSubmitted prometheus.Counter
	analysesDuplicate prometheus.Counter
	analysesProcessed prometheus.Counter
	analysesFailed    prometheus.Counter
	analysisLatency   prometheus.Histogram

	// Engine metrics
	detectorFailures *prometheus.CounterVec
	detectorSkipped  *prometheus.CounterVec
	pointsDetected   *prometheus.CounterVec
	scoringFallbacks prometheus.Counter

	// Queue and worker metrics
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueRejected prometheus.Counter
	workerCount   prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Store metrics
	storeOperations    *prometheus.CounterVec
	storeLatency       *prometheus.HistogramVec
	storedAnalyses     prometheus.Gauge
	retentionDeletions prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wakepoint",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.analysesSubmitted = m.counter("analyses_submitted_total", "Total number of analyses accepted for processing")
	m.analysesDuplicate = m.counter("analyses_duplicate_total", "Total number of submissions rejected as duplicates")
	m.analysesProcessed = m.counter("analyses_processed_total", "Total number of analyses completed")
	m.analysesFailed = m.counter("analyses_failed_total", "Total number of analyses that produced an error result")
	m.analysisLatency = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analysis_latency_milliseconds",
		Help:        "Histogram of key point identification latency in milliseconds",
		Buckets:     prometheus.ExponentialBuckets(1, 2, 14),
		ConstLabels: m.constLabels,
	})

	m.detectorFailures = m.counterVec("detector_failures_total", "Detector passes recovered from a failure", "detector")
	m.detectorSkipped = m.counterVec("detector_skipped_total", "Detector passes that produced no analysis", "detector", "reason")
	m.pointsDetected = m.counterVec("points_detected_total", "Candidate decision points by type", "type")
	m.scoringFallbacks = m.counter("scoring_fallbacks_total", "Points scored with the base score after an internal failure")

	m.queueSize = m.gauge("queue_size", "Current number of queued analyses")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueRejected = m.counter("queue_rejected_total", "Total number of jobs rejected by a full queue")
	m.workerCount = m.gauge("worker_count", "Current number of running workers")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.storeOperations = m.counterVec("store_operations_total", "Store operations by operation and outcome", "operation", "outcome")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Store operation latency in milliseconds", "operation")
	m.storedAnalyses = m.gauge("stored_analyses", "Number of analyses currently stored")
	m.retentionDeletions = m.counter("retention_deletions_total", "Analyses removed by the retention sweeper")
}

// RecordAnalysisSubmitted increments the accepted submissions counter.
func RecordAnalysisSubmitted() { globalManager.analysesSubmitted.Inc() }

// RecordAnalysisDuplicate increments the duplicate submissions counter.
func RecordAnalysisDuplicate() { globalManager.analysesDuplicate.Inc() }

// RecordAnalysisProcessed increments the processed counter.
func RecordAnalysisProcessed() { globalManager.analysesProcessed.Inc() }

// RecordAnalysisFailed increments the failed counter.
func RecordAnalysisFailed() { globalManager.analysesFailed.Inc() }

// RecordAnalysisLatency records engine latency in milliseconds.
func RecordAnalysisLatency(latencyMs float64) { globalManager.analysisLatency.Observe(latencyMs) }

// RecordDetectorFailure counts a recovered detector failure.
func RecordDetectorFailure(detector string) {
	globalManager.detectorFailures.WithLabelValues(detector).Inc()
}

// RecordDetectorSkipped counts a detector pass that had nothing to analyse.
func RecordDetectorSkipped(detector, reason string) {
	globalManager.detectorSkipped.WithLabelValues(detector, reason).Inc()
}

// RecordPointsDetected adds n candidates of the given type.
func RecordPointsDetected(pointType string, n int) {
	if n <= 0 {
		return
	}
	globalManager.pointsDetected.WithLabelValues(pointType).Add(float64(n))
}

// RecordScoringFallback counts a scoring fallback.
func RecordScoringFallback() { globalManager.scoringFallbacks.Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueRejected increments the rejected counter.
func RecordQueueRejected() { globalManager.queueRejected.Inc() }

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordStoreOperation records the outcome and latency of one store call.
func RecordStoreOperation(operation string, err error, latencyMs float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	globalManager.storeOperations.WithLabelValues(operation, outcome).Inc()
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateStoredAnalyses sets the number of stored analyses.
func UpdateStoredAnalyses(count int) { globalManager.storedAnalyses.Set(float64(count)) }

// RecordRetentionDeletions adds n analyses removed by retention.
func RecordRetentionDeletions(n int) {
	if n > 0 {
		globalManager.retentionDeletions.Add(float64(n))
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
