// Package metrics provides Prometheus metrics for the crater analysis
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Analysis metrics
	framesAnalyzed       prometheus.Counter
	framesFailed         prometheus.Counter
	frameAnalysisLatency prometheus.Histogram
	analysisWarnings     prometheus.Counter
	pointsPerFrame       prometheus.Histogram

	// Latest-geometry gauges, refreshed as frames complete
	craterDepth    prometheus.Gauge
	craterDiameter prometheus.Gauge
	craterVolume   prometheus.Gauge
	pileupHeight   prometheus.Gauge
	rimAtomCount   prometheus.Gauge

	// Run lifecycle metrics
	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	runsFailed    prometheus.Counter

	// Dump ingestion metrics
	dumpFramesRead prometheus.Counter
	dumpReadErrors prometheus.Counter

	// Storage metrics
	dbWriteLatency prometheus.Histogram

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry()

func init() {
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "crater",
		subsystem:        "report",
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

	m.framesAnalyzed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_analyzed_total",
		Help:      "Total number of frames analyzed successfully",
	})

	m.framesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_failed_total",
		Help:      "Total number of frames that could not be analyzed",
	})

	m.frameAnalysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_analysis_latency_milliseconds",
		Help:      "Histogram of per-frame analysis latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.analysisWarnings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_warnings_total",
		Help:      "Total number of degenerate-geometry warnings emitted",
	})

	m.pointsPerFrame = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "points_per_frame",
		Help:      "Histogram of particle counts per analyzed frame",
		Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
	})

	m.craterDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crater_depth_nm",
		Help:      "Crater depth of the most recently analyzed frame",
	})

	m.craterDiameter = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crater_diameter_nm",
		Help:      "Final crater diameter of the most recently analyzed frame",
	})

	m.craterVolume = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crater_volume_nm3",
		Help:      "Crater volume of the most recently analyzed frame",
	})

	m.pileupHeight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pileup_height",
		Help:      "Rim pileup height of the most recently analyzed frame, in simulation units",
	})

	m.rimAtomCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rim_atom_count",
		Help:      "Number of rim atoms selected in the most recently analyzed frame",
	})

	m.runsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_started_total",
		Help:      "Total number of analysis runs started",
	})

	m.runsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_completed_total",
		Help:      "Total number of analysis runs completed",
	})

	m.runsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_failed_total",
		Help:      "Total number of analysis runs that failed outright",
	})

	m.dumpFramesRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dump_frames_read_total",
		Help:      "Total number of dump frames parsed",
	})

	m.dumpReadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dump_read_errors_total",
		Help:      "Total number of dump parse errors",
	})

	m.dbWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "db_write_latency_milliseconds",
		Help:      "Histogram of result write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
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

// RecordFrameAnalyzed increments the analyzed-frames counter.
func RecordFrameAnalyzed() {
	globalManager.framesAnalyzed.Inc()
}

// RecordFrameFailed increments the failed-frames counter.
func RecordFrameFailed() {
	globalManager.framesFailed.Inc()
}

// RecordFrameLatency records per-frame analysis latency in milliseconds.
func RecordFrameLatency(latencyMs float64) {
	globalManager.frameAnalysisLatency.Observe(latencyMs)
}

// RecordAnalysisWarnings adds emitted warnings to the warning counter.
func RecordAnalysisWarnings(count int) {
	globalManager.analysisWarnings.Add(float64(count))
}

// RecordPointsPerFrame records the particle count of an analyzed frame.
func RecordPointsPerFrame(count int) {
	globalManager.pointsPerFrame.Observe(float64(count))
}

// UpdateCraterGeometry refreshes the latest-geometry gauges.
func UpdateCraterGeometry(depth, diameter, volume, pileup float64, rimAtoms int) {
	globalManager.craterDepth.Set(depth)
	globalManager.craterDiameter.Set(diameter)
	globalManager.craterVolume.Set(volume)
	globalManager.pileupHeight.Set(pileup)
	globalManager.rimAtomCount.Set(float64(rimAtoms))
}

// RecordRunStarted increments the started-runs counter.
func RecordRunStarted() {
	globalManager.runsStarted.Inc()
}

// RecordRunCompleted increments the completed-runs counter.
func RecordRunCompleted() {
	globalManager.runsCompleted.Inc()
}

// RecordRunFailed increments the failed-runs counter.
func RecordRunFailed() {
	globalManager.runsFailed.Inc()
}

// RecordDumpFrameRead increments the parsed-frames counter.
func RecordDumpFrameRead() {
	globalManager.dumpFramesRead.Inc()
}

// RecordDumpReadError increments the dump parse error counter.
func RecordDumpReadError() {
	globalManager.dumpReadErrors.Inc()
}

// RecordDBWriteLatency records result write latency in milliseconds.
func RecordDBWriteLatency(latencyMs float64) {
	globalManager.dbWriteLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
