// Package metrics provides Prometheus metrics for the Elo rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	deltaBuckets     []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Bout pipeline
	boutsAccepted  prometheus.Counter
	boutsDuplicate prometheus.Counter
	boutsApplied   *prometheus.CounterVec
	boutsRejected  *prometheus.CounterVec
	ratingLatency  prometheus.Histogram
	ratingDelta    prometheus.Histogram

	// Competitor pool
	competitorsTotal prometheus.Gauge

	// Snapshots
	snapshotSaves    *prometheus.CounterVec
	snapshotDuration prometheus.Histogram
	snapshotSize     prometheus.Gauge

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "elo",
		subsystem:        "rating",
		histogramBuckets: prometheus.DefBuckets,
		deltaBuckets:     DefaultDeltaBuckets(),
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collector definitions
	auto := promauto.With(m.registry)

	m.boutsAccepted = auto.NewCounter(m.counterOpts("bouts_accepted_total", "Bouts accepted for asynchronous processing"))
	m.boutsDuplicate = auto.NewCounter(m.counterOpts("bouts_duplicate_total", "Bouts dropped because their id was already seen"))
	m.boutsApplied = auto.NewCounterVec(m.counterOpts("bouts_applied_total", "Bouts applied to competitor ratings"), []string{"outcome"})
	m.boutsRejected = auto.NewCounterVec(m.counterOpts("bouts_rejected_total", "Bouts that could not be applied"), []string{"reason"})
	m.ratingLatency = auto.NewHistogram(m.histogramOpts("update_latency_milliseconds", "Latency of a two-competitor rating update", m.histogramBuckets))
	m.ratingDelta = auto.NewHistogram(m.histogramOpts("delta_abs", "Absolute rating change per competitor per bout", m.deltaBuckets))

	m.competitorsTotal = auto.NewGauge(m.gaugeOpts("competitors_total", "Number of rated competitors"))

	m.snapshotSaves = auto.NewCounterVec(m.counterOpts("snapshot_saves_total", "Snapshot persistence attempts by result"), []string{"result"})
	m.snapshotDuration = auto.NewHistogram(m.histogramOpts("snapshot_duration_milliseconds", "Duration of a snapshot save", m.histogramBuckets))
	m.snapshotSize = auto.NewGauge(m.gaugeOpts("snapshot_competitors", "Competitors contained in the last snapshot"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the bout queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum size of the bout queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Bouts put on the queue"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Bouts taken off the queue"))
	m.queueEnqueueErrors = auto.NewCounterVec(m.counterOpts("queue_enqueue_errors_total", "Failed enqueue attempts"), []string{"reason"})

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of bout workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Time a worker spends on one bout", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Bouts a worker failed to apply"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordBoutAccepted increments the accepted bouts counter.
func RecordBoutAccepted() { globalManager.boutsAccepted.Inc() }

// RecordBoutDuplicate increments the duplicate bouts counter.
func RecordBoutDuplicate() { globalManager.boutsDuplicate.Inc() }

// RecordBoutApplied counts an applied bout by outcome.
func RecordBoutApplied(outcome string) { globalManager.boutsApplied.WithLabelValues(outcome).Inc() }

// RecordBoutRejected counts a bout that failed with reason.
func RecordBoutRejected(reason string) { globalManager.boutsRejected.WithLabelValues(reason).Inc() }

// RecordRatingUpdateLatency records the duration of a rating update in milliseconds.
func RecordRatingUpdateLatency(latencyMs float64) { globalManager.ratingLatency.Observe(latencyMs) }

// RecordRatingDelta records the absolute change of one competitor's rating.
func RecordRatingDelta(delta float64) {
	if delta < 0 {
		delta = -delta
	}
	globalManager.ratingDelta.Observe(delta)
}

// UpdateCompetitorsTotal sets the number of rated competitors.
func UpdateCompetitorsTotal(count int) { globalManager.competitorsTotal.Set(float64(count)) }

// RecordSnapshotSave records a snapshot persistence attempt.
func RecordSnapshotSave(ok bool, durationMs float64, competitors int) {
	result := "ok"
	if !ok {
		result = "error"
	}
	globalManager.snapshotSaves.WithLabelValues(result).Inc()
	globalManager.snapshotDuration.Observe(durationMs)
	if ok {
		globalManager.snapshotSize.Set(float64(competitors))
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a failed enqueue by reason.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
