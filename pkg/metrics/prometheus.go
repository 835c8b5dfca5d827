// Package metrics provides Prometheus metrics for the swing analysis service.
package metrics

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer
	gatherer         *prometheus.Registry // set for the package-level manager

	// Analysis pipeline
	analyses         *prometheus.CounterVec
	analysesDup      prometheus.Counter
	impactConfidence prometheus.Histogram
	impactFallbacks  prometheus.Counter
	impactMethod     *prometheus.CounterVec
	stageLatency     *prometheus.HistogramVec

	// Batted-ball and timing
	barrelsClassified *prometheus.CounterVec
	snapshotsCreated  *prometheus.CounterVec
	timingInvalid     prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository
	repositoryLatency *prometheus.HistogramVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// active is the manager behind the package-level recorders.
var active atomic.Pointer[Manager] //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // recorders must work before Configure
	reg := prometheus.NewRegistry()
	m := NewManager(WithPrometheusRegistry(reg))
	m.gatherer = reg
	active.Store(m)
}

func manager() *Manager { return active.Load() }

// Configure replaces the package-level manager with one built from opts on a
// fresh registry. Call it once at startup, before handlers capture
// GetRegistry. A registry passed in opts is ignored.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(reg))...)
	m.gatherer = reg
	active.Store(m)
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "swinglab",
		subsystem:        "analysis",
		histogramBuckets: defaultLatencyBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.analyses = m.counterVec("analyses_total", "Swing analyses finished, by terminal status", "status")
	m.analysesDup = m.counter("analyses_duplicate_total", "Swing uploads rejected as duplicate request ids")
	m.impactConfidence = m.histogram("impact_confidence", "Impact detection confidence",
		[]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1})
	m.impactFallbacks = m.counter("impact_fallback_total", "Impact detections that fell back to the sequence midpoint")
	m.impactMethod = m.counterVec("impact_detections_total", "Impact detections by method", "method")
	m.stageLatency = m.histogramVec("stage_latency_milliseconds", "Pipeline stage latency in milliseconds", "stage")

	m.barrelsClassified = m.counterVec("barrel_classifications_total", "Batted balls classified, by level and outcome", "level", "barrel")
	m.snapshotsCreated = m.counterVec("snapshots_created_total", "On-the-ball snapshots created, by source", "source")
	m.timingInvalid = m.counter("timing_validation_failures_total", "Timing requests rejected by validation")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds", "Repository operation latency in milliseconds", "op")

	m.queueSize = m.gauge("queue_size", "Current number of queued analysis jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued analysis jobs")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected by the queue")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of running workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one job", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Jobs that failed in a worker")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordAnalysis counts an analysis reaching a terminal status.
func (m *Manager) RecordAnalysis(status string) {
	m.analyses.WithLabelValues(status).Inc()
}

// RecordImpact records one impact detection.
func (m *Manager) RecordImpact(method string, confidence float64, fallback bool) {
	m.impactMethod.WithLabelValues(method).Inc()
	m.impactConfidence.Observe(confidence)
	if fallback {
		m.impactFallbacks.Inc()
	}
}

// RecordBarrel counts a classified batted ball.
func (m *Manager) RecordBarrel(level string, isBarrel bool) {
	m.barrelsClassified.WithLabelValues(level, strconv.FormatBool(isBarrel)).Inc()
}

// Analysis pipeline functions.

// RecordAnalysis counts an analysis reaching a terminal status.
func RecordAnalysis(status string) {
	manager().RecordAnalysis(status)
}

// RecordAnalysisDuplicate counts a duplicate upload.
func RecordAnalysisDuplicate() {
	manager().analysesDup.Inc()
}

// RecordImpact records one impact detection.
func RecordImpact(method string, confidence float64, fallback bool) {
	manager().RecordImpact(method, confidence, fallback)
}

// RecordStageLatency records the latency of one pipeline stage.
func RecordStageLatency(stage string, latencyMs float64) {
	manager().stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// Batted-ball and timing functions.

// RecordBarrel counts a classified batted ball.
func RecordBarrel(level string, isBarrel bool) {
	manager().RecordBarrel(level, isBarrel)
}

// RecordSnapshotCreated counts a persisted on-the-ball snapshot.
func RecordSnapshotCreated(source string) {
	manager().snapshotsCreated.WithLabelValues(source).Inc()
}

// RecordTimingValidationFailure counts a rejected timing request.
func RecordTimingValidationFailure() {
	manager().timingInvalid.Inc()
}

// HTTP functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	manager().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	manager().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRepositoryLatency records the latency of a repository operation.
func RecordRepositoryLatency(op string, latencyMs float64) {
	manager().repositoryLatency.WithLabelValues(op).Observe(latencyMs)
}

// Queue functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	manager().queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	manager().queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	manager().queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	manager().queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	manager().queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	manager().queueEnqueueErrors.Inc()
}

// Worker functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	manager().workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	manager().workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	manager().workerErrors.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	manager().errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	manager().systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	manager().systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	manager().systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry the package-level recorders write to.
func GetRegistry() *prometheus.Registry {
	return manager().gatherer
}
