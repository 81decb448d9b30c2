// Package metrics provides Prometheus metrics for the cost estimation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var defaultCostBuckets = []float64{1000, 2500, 5000, 7500, 10000, 15000, 20000, 30000, 50000}

var batchSizeBuckets = []float64{1, 2, 5, 10, 25, 50, 100, 250}

// Manager owns every metric exported by the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	costBuckets    []float64
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Estimation
	estimatesTotal     *prometheus.CounterVec
	estimationFailures *prometheus.CounterVec
	fallbacksTotal     prometheus.Counter
	estimatedCost      *prometheus.HistogramVec

	// Predictor
	predictorLatency   prometheus.Histogram
	predictorAvailable prometheus.Gauge
	modelLoads         *prometheus.CounterVec

	// Batch
	batchSize        prometheus.Histogram
	workerJobLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "medcost",
		subsystem:      "estimator",
		latencyBuckets: prometheus.DefBuckets,
		costBuckets:    defaultCostBuckets,
		constLabels:    map[string]string{},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.estimatesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "estimates_total",
		Help:        "Estimates produced, by provenance (model-based or simulated)",
		ConstLabels: labels,
	}, []string{"provenance"})

	m.estimationFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "estimation_failures_total",
		Help:        "Failed estimation requests, by failure kind",
		ConstLabels: labels,
	}, []string{"kind"})

	m.fallbacksTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictor_fallbacks_total",
		Help:        "Predictor failures answered with the simulated estimate",
		ConstLabels: labels,
	})

	m.estimatedCost = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "estimated_cost",
		Help:        "Distribution of estimated annual costs",
		Buckets:     m.costBuckets,
		ConstLabels: labels,
	}, []string{"provenance"})

	m.predictorLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictor_latency_milliseconds",
		Help:        "Latency of predictor calls in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.predictorAvailable = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictor_available",
		Help:        "1 when a predictor is loaded and usable, 0 otherwise",
		ConstLabels: labels,
	})

	m.modelLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_loads_total",
		Help:        "Model resource load attempts, by result",
		ConstLabels: labels,
	}, []string{"result"})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_size",
		Help:        "Number of records per batch estimation request",
		Buckets:     batchSizeBuckets,
		ConstLabels: labels,
	})

	m.workerJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_job_latency_milliseconds",
		Help:        "Latency of one batch job in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP error responses by endpoint, method and error type",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_usage_bytes",
		Help:        "Allocated heap memory in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutines",
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "gc_pause_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})
}

// RecordEstimate counts one estimate and observes its cost.
func (m *Manager) RecordEstimate(provenance string, cost float64) {
	m.estimatesTotal.WithLabelValues(provenance).Inc()
	m.estimatedCost.WithLabelValues(provenance).Observe(cost)
}

// RecordEstimationFailure counts a failed estimation of the given kind.
func (m *Manager) RecordEstimationFailure(kind string) {
	m.estimationFailures.WithLabelValues(kind).Inc()
}

// RecordFallback counts a predictor failure that degraded to simulation.
func (m *Manager) RecordFallback() { m.fallbacksTotal.Inc() }

// RecordPredictorLatency observes a predictor call duration.
func (m *Manager) RecordPredictorLatency(latencyMs float64) {
	m.predictorLatency.Observe(latencyMs)
}

// SetPredictorAvailable flips the availability gauge.
func (m *Manager) SetPredictorAvailable(available bool) {
	if available {
		m.predictorAvailable.Set(1)
		return
	}
	m.predictorAvailable.Set(0)
}

// RecordModelLoad counts a model load attempt; result is "success" or "failure".
func (m *Manager) RecordModelLoad(result string) {
	m.modelLoads.WithLabelValues(result).Inc()
}

// RecordBatchSize observes the number of items in one batch.
func (m *Manager) RecordBatchSize(n int) { m.batchSize.Observe(float64(n)) }

// RecordWorkerJobLatency observes the duration of one batch job.
func (m *Manager) RecordWorkerJobLatency(latencyMs float64) {
	m.workerJobLatency.Observe(latencyMs)
}

// RecordHTTPRequest counts an HTTP request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error response.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Package-level helpers operate on the global manager.

// RecordEstimate counts one estimate and observes its cost.
func RecordEstimate(provenance string, cost float64) { globalManager.RecordEstimate(provenance, cost) }

// RecordEstimationFailure counts a failed estimation of the given kind.
func RecordEstimationFailure(kind string) { globalManager.RecordEstimationFailure(kind) }

// RecordFallback counts a predictor failure that degraded to simulation.
func RecordFallback() { globalManager.RecordFallback() }

// RecordPredictorLatency observes a predictor call duration.
func RecordPredictorLatency(latencyMs float64) { globalManager.RecordPredictorLatency(latencyMs) }

// SetPredictorAvailable flips the availability gauge.
func SetPredictorAvailable(available bool) { globalManager.SetPredictorAvailable(available) }

// RecordModelLoad counts a model load attempt.
func RecordModelLoad(result string) { globalManager.RecordModelLoad(result) }

// RecordBatchSize observes the number of items in one batch.
func RecordBatchSize(n int) { globalManager.RecordBatchSize(n) }

// RecordWorkerJobLatency observes the duration of one batch job.
func RecordWorkerJobLatency(latencyMs float64) { globalManager.RecordWorkerJobLatency(latencyMs) }

// RecordHTTPRequest counts an HTTP request and observes its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
