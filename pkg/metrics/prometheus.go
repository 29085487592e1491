// Package metrics exposes Prometheus instruments for the siege ranking pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeBadStatus = "bad_status"
	OutcomeError     = "error"
)

// Manager owns every instrument registered by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Fetch layer
	fetchRequests *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	fetchRetries  prometheus.Counter

	// Extraction
	parseFailures    prometheus.Counter
	extractedRecords prometheus.Counter

	// Collection
	collectionRuns     *prometheus.CounterVec
	collectionDuration prometheus.Histogram
	collectedYears     prometheus.Gauge
	collectedRecords   prometheus.Gauge

	// Cache
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheEntries   prometheus.Gauge

	// Rankings
	rankingDuration *prometheus.HistogramVec

	// Preload pipeline
	preloadJobs *prometheus.CounterVec
	queueSize   prometheus.Gauge
	workerCount prometheus.Gauge

	// Archive
	archiveWrites *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Process
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPause        prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its instruments.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "siegeboard",
		subsystem:        "ranking",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
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

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every instrument
	auto := promauto.With(m.registry)

	m.fetchRequests = auto.NewCounterVec(
		m.counterOpts("fetch_requests_total", "Yearly page fetches by outcome"),
		[]string{"outcome"},
	)
	m.fetchLatency = auto.NewHistogram(
		m.histogramOpts("fetch_latency_milliseconds", "Latency of a single yearly page fetch including retries"),
	)
	m.fetchRetries = auto.NewCounter(
		m.counterOpts("fetch_retries_total", "Fetch attempts repeated after a transient failure"),
	)

	m.parseFailures = auto.NewCounter(
		m.counterOpts("parse_failures_total", "Pages whose markup could not be parsed"),
	)
	m.extractedRecords = auto.NewCounter(
		m.counterOpts("extracted_records_total", "Siege records extracted from fetched pages"),
	)

	m.collectionRuns = auto.NewCounterVec(
		m.counterOpts("collection_runs_total", "Shared data collection runs by result"),
		[]string{"result"},
	)
	m.collectionDuration = auto.NewHistogram(
		m.histogramOpts("collection_duration_milliseconds", "Duration of a full collection run"),
	)
	m.collectedYears = auto.NewGauge(
		m.gaugeOpts("collected_years", "Years present in the last collection"),
	)
	m.collectedRecords = auto.NewGauge(
		m.gaugeOpts("collected_records", "Records present in the last collection"),
	)

	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Cache lookups that found a live entry"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Cache lookups that found nothing"))
	m.cacheEvictions = auto.NewCounter(m.counterOpts("cache_evictions_total", "Entries removed after expiry"))
	m.cacheEntries = auto.NewGauge(m.gaugeOpts("cache_entries", "Entries currently held by the cache"))

	m.rankingDuration = auto.NewHistogramVec(
		m.histogramOpts("derivation_duration_milliseconds", "Time spent deriving a ranking from shared data"),
		[]string{"ranking"},
	)

	m.preloadJobs = auto.NewCounterVec(
		m.counterOpts("preload_jobs_total", "Preload jobs by result"),
		[]string{"result"},
	)
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Preload jobs waiting in the queue"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Running preload workers"))

	m.archiveWrites = auto.NewCounterVec(
		m.counterOpts("archive_writes_total", "Collection runs written to the archive by result"),
		[]string{"result"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP responses with an error status by type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.memoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.goroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Live goroutines"))
	m.gcPause = auto.NewGauge(m.gaugeOpts("system_gc_pause_milliseconds", "Average GC pause"))
}

// Enabled reports whether recorders write to the instruments.
func (m *Manager) Enabled() bool { return m.enabled }

func on() bool { return globalManager != nil && globalManager.enabled }

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordFetch counts one fetch by outcome and records its latency.
func RecordFetch(outcome string, latencyMs float64) error {
	switch outcome {
	case OutcomeOK, OutcomeBadStatus, OutcomeError:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
	if !on() {
		return nil
	}
	globalManager.fetchRequests.WithLabelValues(outcome).Inc()
	globalManager.fetchLatency.Observe(latencyMs)
	return nil
}

// RecordFetchRetry counts a repeated fetch attempt.
func RecordFetchRetry() {
	if on() {
		globalManager.fetchRetries.Inc()
	}
}

// RecordParseFailure counts a page that could not be parsed.
func RecordParseFailure() {
	if on() {
		globalManager.parseFailures.Inc()
	}
}

// RecordExtractedRecords adds n extracted records.
func RecordExtractedRecords(n int) {
	if on() && n > 0 {
		globalManager.extractedRecords.Add(float64(n))
	}
}

// RecordCollection records a collection run and, on success, its size.
func RecordCollection(ok bool, durationMs float64, years, records int) {
	if !on() {
		return
	}
	globalManager.collectionRuns.WithLabelValues(result(ok)).Inc()
	globalManager.collectionDuration.Observe(durationMs)
	if ok {
		globalManager.collectedYears.Set(float64(years))
		globalManager.collectedRecords.Set(float64(records))
	}
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	if on() {
		globalManager.cacheHits.Inc()
	}
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	if on() {
		globalManager.cacheMisses.Inc()
	}
}

// RecordCacheEviction increments the eviction counter.
func RecordCacheEviction() {
	if on() {
		globalManager.cacheEvictions.Inc()
	}
}

// UpdateCacheEntries sets the live entry gauge.
func UpdateCacheEntries(n int) {
	if on() {
		globalManager.cacheEntries.Set(float64(n))
	}
}

// RecordRankingDuration observes how long a ranking took to derive.
func RecordRankingDuration(ranking string, latencyMs float64) {
	if on() {
		globalManager.rankingDuration.WithLabelValues(ranking).Observe(latencyMs)
	}
}

// RecordPreloadJob counts a finished preload job.
func RecordPreloadJob(ok bool) {
	if on() {
		globalManager.preloadJobs.WithLabelValues(result(ok)).Inc()
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordArchiveWrite counts an archive write.
func RecordArchiveWrite(ok bool) {
	if on() {
		globalManager.archiveWrites.WithLabelValues(result(ok)).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordHTTPError records a response with an error status.
func RecordHTTPError(endpoint, method, errorType string) {
	if on() {
		globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.memoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	if on() {
		globalManager.goroutineCount.Set(float64(n))
	}
}

// RecordSystemGCPauseTime sets the average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	if on() {
		globalManager.gcPause.Set(ms)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
