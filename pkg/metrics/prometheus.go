package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Analysis sources recorded by RecordAnalysis.
const (
	SourceInference       = "inference"
	SourceLocal           = "local"
	SourceFallbackParse   = "fallback_parse"
	SourceFallbackNetwork = "fallback_network"
)

// Manager owns every Prometheus collector exported by mimicoo.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Practice and analysis
	analyses          *prometheus.CounterVec
	analysisLatency   prometheus.Histogram
	analysisDuplicate prometheus.Counter
	recordingsStarted prometheus.Counter
	permissionDenied  prometheus.Counter
	activeSessions    prometheus.Gauge

	// Gamification
	pointsAwarded        prometheus.Counter
	levelUps             prometheus.Counter
	achievementsUnlocked *prometheus.CounterVec

	// Screening pipeline
	uploadsProcessed prometheus.Counter
	reportsRendered  prometheus.Counter
	riskPercent      *prometheus.HistogramVec

	// Inference client
	inferenceRequests *prometheus.CounterVec
	inferenceRetries  prometheus.Counter
	inferenceLatency  prometheus.Histogram

	// Realtime channel
	wsConnections prometheus.Gauge
	wsFrames      *prometheus.CounterVec

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerActive       prometheus.Gauge
	workerLatency      prometheus.Histogram
	workerErrors       prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "mimicoo",
		subsystem:        "backend",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.analyses = m.counterVec("analyses_total", "Completed practice analyses by score source", "source")
	m.analysisLatency = m.histogram("analysis_latency_milliseconds", "End-to-end practice analysis latency in milliseconds", m.histogramBuckets)
	m.analysisDuplicate = m.counter("analysis_duplicate_total", "Analyze requests rejected by idempotency key")
	m.recordingsStarted = m.counter("recordings_started_total", "Recordings successfully started")
	m.permissionDenied = m.counter("recording_permission_denied_total", "Recording attempts rejected for missing microphone permission")
	m.activeSessions = m.gauge("active_sessions", "Practice sessions currently held in memory")

	m.pointsAwarded = m.counter("points_awarded_total", "Points awarded across all sessions")
	m.levelUps = m.counter("level_ups_total", "Level-up events")
	m.achievementsUnlocked = m.counterVec("achievements_unlocked_total", "Achievements unlocked by id", "achievement")

	m.uploadsProcessed = m.counter("uploads_processed_total", "Baseline audio uploads analysed")
	m.reportsRendered = m.counter("reports_rendered_total", "Plain-text reports rendered")
	m.riskPercent = m.histogramVec("risk_percentage", "Simulated risk percentages by condition",
		[]float64{5, 10, 15, 25, 40, 55, 65, 70, 75, 85, 100}, "condition")

	m.inferenceRequests = m.counterVec("inference_requests_total", "Inference calls by operation and outcome", "operation", "outcome")
	m.inferenceRetries = m.counter("inference_retries_total", "Inference retries after rate limiting")
	m.inferenceLatency = m.histogram("inference_latency_milliseconds", "Inference round-trip latency in milliseconds",
		[]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})

	m.wsConnections = m.gauge("ws_connections", "Open realtime connections")
	m.wsFrames = m.counterVec("ws_frames_total", "Realtime frames sent by type", "type")

	m.queueSize = m.gauge("queue_size", "Analysis jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Analysis queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Analysis jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Analysis jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Analysis jobs rejected by a full or closed queue")
	m.workerCount = m.gauge("worker_count", "Configured analysis workers")
	m.workerActive = m.gauge("worker_active", "Analysis workers currently processing a job")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Per-job worker processing time in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Analysis jobs that failed in a worker")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RunRuntimeSampler samples runtime gauges every refresh interval until ctx is done.
func (m *Manager) RunRuntimeSampler(ctx context.Context) {
	t := time.NewTicker(m.refreshInterval)
	defer t.Stop()
	for {
		m.sampleRuntime()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (m *Manager) sampleRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.HeapInuse))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// RunRuntimeSampler samples runtime gauges on the global manager.
func RunRuntimeSampler(ctx context.Context) { globalManager.RunRuntimeSampler(ctx) }

// RecordAnalysis counts a completed analysis by source and records its latency.
func RecordAnalysis(source string, latencyMs float64) error {
	switch source {
	case SourceInference, SourceLocal, SourceFallbackParse, SourceFallbackNetwork:
	default:
		return ErrUnknownAnalysisSource
	}
	globalManager.analyses.WithLabelValues(source).Inc()
	globalManager.analysisLatency.Observe(latencyMs)
	return nil
}

// RecordAnalysisDuplicate counts an analyze request dropped by idempotency key.
func RecordAnalysisDuplicate() { globalManager.analysisDuplicate.Inc() }

// RecordRecordingStarted counts a started recording.
func RecordRecordingStarted() { globalManager.recordingsStarted.Inc() }

// RecordPermissionDenied counts a recording refused for missing permission.
func RecordPermissionDenied() { globalManager.permissionDenied.Inc() }

// UpdateActiveSessions sets the in-memory session count.
func UpdateActiveSessions(n int) { globalManager.activeSessions.Set(float64(n)) }

// RecordPoints adds awarded points.
func RecordPoints(points int) {
	if points > 0 {
		globalManager.pointsAwarded.Add(float64(points))
	}
}

// RecordLevelUps adds level-up events.
func RecordLevelUps(n int) {
	if n > 0 {
		globalManager.levelUps.Add(float64(n))
	}
}

// RecordAchievementUnlocked counts an unlock for the given achievement id.
func RecordAchievementUnlocked(id string) {
	globalManager.achievementsUnlocked.WithLabelValues(id).Inc()
}

// RecordUploadProcessed counts a completed baseline upload.
func RecordUploadProcessed() { globalManager.uploadsProcessed.Inc() }

// RecordReportRendered counts a rendered report.
func RecordReportRendered() { globalManager.reportsRendered.Inc() }

// RecordRiskPercentage observes a simulated risk value for a condition.
func RecordRiskPercentage(condition string, percent int) {
	globalManager.riskPercent.WithLabelValues(condition).Observe(float64(percent))
}

// RecordInferenceRequest counts an inference call outcome and its latency.
func RecordInferenceRequest(operation, outcome string, latencyMs float64) {
	globalManager.inferenceRequests.WithLabelValues(operation, outcome).Inc()
	globalManager.inferenceLatency.Observe(latencyMs)
}

// RecordInferenceRetry counts a retry after a rate-limit response.
func RecordInferenceRetry() { globalManager.inferenceRetries.Inc() }

// UpdateWSConnections adjusts the open realtime connection gauge by delta.
func UpdateWSConnections(delta int) { globalManager.wsConnections.Add(float64(delta)) }

// RecordWSFrame counts a realtime frame of the given type.
func RecordWSFrame(frameType string) { globalManager.wsFrames.WithLabelValues(frameType).Inc() }

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActive adjusts the busy-worker gauge by delta.
func UpdateWorkerActive(delta int) { globalManager.workerActive.Add(float64(delta)) }

// RecordWorkerProcessingLatency records per-job processing time in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordError counts an error for a component.
func RecordError(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
