// Package metrics provides Prometheus metrics for the labsync client.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the labsync client.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// HTTP client metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	apiErrors           *prometheus.CounterVec

	// Realtime metrics
	realtimeConnections   *prometheus.GaugeVec
	realtimeListeners     *prometheus.GaugeVec
	realtimeMessages      *prometheus.CounterVec
	realtimeDecodeErrors  *prometheus.CounterVec
	realtimeDisconnects   *prometheus.CounterVec
	realtimeConnectErrors *prometheus.CounterVec

	// Region metrics
	regionTransitions *prometheus.CounterVec
	regionInside      *prometheus.GaugeVec

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Storage metrics
	storageOperations *prometheus.CounterVec
	storageErrors     *prometheus.CounterVec
}

var (
	// Custom registry to avoid default Go metrics.
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

	globalMu      sync.RWMutex
	globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager
)

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "labsync",
		subsystem:        "client",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// SetGlobal replaces the manager behind the package-level helpers.
func SetGlobal(m *Manager) {
	if m == nil {
		return
	}
	globalMu.Lock()
	globalManager = m
	globalMu.Unlock()
}

func global() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

//nolint:funlen // long function required for comprehensive metrics initialization
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	counterOpts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: m.customLabels,
		}
	}
	gaugeOpts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: m.customLabels,
		}
	}
	histogramOpts := func(name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        name,
			Help:        help,
			Buckets:     m.histogramBuckets,
			ConstLabels: m.customLabels,
		}
	}

	// HTTP client metrics
	m.httpRequests = auto.NewCounterVec(
		counterOpts("http_requests_total", "Total number of API requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		histogramOpts("http_request_duration_milliseconds", "API request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.apiErrors = auto.NewCounterVec(
		counterOpts("api_errors_total", "Total number of classified API errors by kind"),
		[]string{"kind"},
	)

	// Realtime metrics
	m.realtimeConnections = auto.NewGaugeVec(
		gaugeOpts("realtime_connections", "Open realtime connections by namespace"),
		[]string{"namespace"},
	)
	m.realtimeListeners = auto.NewGaugeVec(
		gaugeOpts("realtime_listeners", "Registered listeners by namespace"),
		[]string{"namespace"},
	)
	m.realtimeMessages = auto.NewCounterVec(
		counterOpts("realtime_messages_total", "Realtime messages received by namespace and event"),
		[]string{"namespace", "event"},
	)
	m.realtimeDecodeErrors = auto.NewCounterVec(
		counterOpts("realtime_decode_errors_total", "Realtime messages that failed to decode"),
		[]string{"namespace", "event"},
	)
	m.realtimeDisconnects = auto.NewCounterVec(
		counterOpts("realtime_disconnects_total", "Unexpected realtime disconnects by namespace"),
		[]string{"namespace"},
	)
	m.realtimeConnectErrors = auto.NewCounterVec(
		counterOpts("realtime_connect_errors_total", "Failed realtime connection attempts by namespace"),
		[]string{"namespace"},
	)

	// Region metrics
	m.regionTransitions = auto.NewCounterVec(
		counterOpts("region_transitions_total", "Region transitions by region and change"),
		[]string{"region", "change"},
	)
	m.regionInside = auto.NewGaugeVec(
		gaugeOpts("region_inside", "1 when the device is inside the region"),
		[]string{"region"},
	)

	// Queue metrics
	m.queueSize = auto.NewGauge(gaugeOpts("queue_size", "Current number of pending region signals"))
	m.queueCapacity = auto.NewGauge(gaugeOpts("queue_capacity", "Maximum number of pending region signals"))
	m.queueEnqueueRate = auto.NewCounter(counterOpts("queue_enqueue_total", "Total region signals enqueued"))
	m.queueDequeueRate = auto.NewCounter(counterOpts("queue_dequeue_total", "Total region signals dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(counterOpts("queue_enqueue_errors_total", "Total failed enqueue operations"))

	// Worker metrics
	m.workerCount = auto.NewGauge(gaugeOpts("worker_count", "Current number of running signal workers"))
	m.workerProcessingLatency = auto.NewHistogram(
		histogramOpts("worker_processing_latency_milliseconds", "Time spent applying one region signal"),
	)
	m.workerErrorRate = auto.NewCounter(counterOpts("worker_errors_total", "Total signals the worker failed to apply"))

	// Storage metrics
	m.storageOperations = auto.NewCounterVec(
		counterOpts("storage_operations_total", "Durable storage operations by backend and op"),
		[]string{"backend", "op"},
	)
	m.storageErrors = auto.NewCounterVec(
		counterOpts("storage_errors_total", "Failed durable storage operations by backend and op"),
		[]string{"backend", "op"},
	)
}

// Enabled reports whether the manager records observations.
func (m *Manager) Enabled() bool { return m.enabled }

// RecordHTTPRequest records one API request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := global(); m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records API request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if m := global(); m.enabled {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordAPIError counts a classified error.
func RecordAPIError(kind string) {
	if m := global(); m.enabled {
		m.apiErrors.WithLabelValues(kind).Inc()
	}
}

// UpdateRealtimeConnection sets whether the namespace connection is open.
func UpdateRealtimeConnection(namespace string, open bool) {
	if m := global(); m.enabled {
		v := 0.0
		if open {
			v = 1
		}
		m.realtimeConnections.WithLabelValues(namespace).Set(v)
	}
}

// UpdateRealtimeListeners sets the listener count of a namespace.
func UpdateRealtimeListeners(namespace string, count int) {
	if m := global(); m.enabled {
		m.realtimeListeners.WithLabelValues(namespace).Set(float64(count))
	}
}

// RecordRealtimeMessage counts a received frame.
func RecordRealtimeMessage(namespace, event string) {
	if m := global(); m.enabled {
		m.realtimeMessages.WithLabelValues(namespace, event).Inc()
	}
}

// RecordRealtimeDecodeError counts a frame whose payload did not decode.
func RecordRealtimeDecodeError(namespace, event string) {
	if m := global(); m.enabled {
		m.realtimeDecodeErrors.WithLabelValues(namespace, event).Inc()
	}
}

// RecordRealtimeDisconnect counts an unexpected connection loss.
func RecordRealtimeDisconnect(namespace string) {
	if m := global(); m.enabled {
		m.realtimeDisconnects.WithLabelValues(namespace).Inc()
	}
}

// RecordRealtimeConnectError counts a failed dial or authentication.
func RecordRealtimeConnectError(namespace string) {
	if m := global(); m.enabled {
		m.realtimeConnectErrors.WithLabelValues(namespace).Inc()
	}
}

// RecordRegionTransition counts an emitted region change.
func RecordRegionTransition(region, change string) {
	if m := global(); m.enabled {
		m.regionTransitions.WithLabelValues(region, change).Inc()
	}
}

// UpdateRegionInside sets the inside gauge of a region.
func UpdateRegionInside(region string, inside bool) {
	if m := global(); m.enabled {
		v := 0.0
		if inside {
			v = 1
		}
		m.regionInside.WithLabelValues(region).Set(v)
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if m := global(); m.enabled {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m := global(); m.enabled {
		m.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if m := global(); m.enabled {
		m.queueEnqueueRate.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if m := global(); m.enabled {
		m.queueDequeueRate.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if m := global(); m.enabled {
		m.queueEnqueueErrors.Inc()
	}
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	if m := global(); m.enabled {
		m.workerCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if m := global(); m.enabled {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if m := global(); m.enabled {
		m.workerErrorRate.Inc()
	}
}

// RecordStorageOperation counts a storage call and, when failed, its error.
func RecordStorageOperation(backend, op string, failed bool) {
	m := global()
	if !m.enabled {
		return
	}
	m.storageOperations.WithLabelValues(backend, op).Inc()
	if failed {
		m.storageErrors.WithLabelValues(backend, op).Inc()
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
