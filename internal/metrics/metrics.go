package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytclipper_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7min
		},
		[]string{"method", "endpoint"},
	)

	// Acquisition Metrics
	AcquisitionAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_acquisition_attempts_total",
			Help: "Download attempts by fallback strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	AcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_acquisitions_total",
			Help: "Completed acquisitions by final status",
		},
		[]string{"status"},
	)

	AcquisitionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytclipper_acquisition_duration_seconds",
			Help:    "Time spent acquiring a source video across all strategies",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		},
	)

	SourceBytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytclipper_source_bytes_downloaded_total",
			Help: "Total bytes of source video downloaded",
		},
	)

	// Extraction Metrics
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_extractions_total",
			Help: "Clip extraction phase outcomes",
		},
		[]string{"phase", "outcome"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytclipper_extraction_duration_seconds",
			Help:    "Clip extraction duration by phase",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		},
		[]string{"phase"},
	)

	ClipSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytclipper_clip_size_bytes",
			Help:    "Size of generated clips in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 15), // 64KB to 1GB
		},
	)

	ProbeWarningsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytclipper_probe_warnings_total",
			Help: "Clips whose post-validation probe reported no video packets or failed",
		},
	)

	// Cache Metrics
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_cache_lookups_total",
			Help: "Download cache lookups by result (hit, miss, stale)",
		},
		[]string{"result"},
	)

	CacheWriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_cache_write_failures_total",
			Help: "Tolerated cache record write failures",
		},
		[]string{"operation"},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_storage_operations_total",
			Help: "Total number of object storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytclipper_storage_operation_duration_seconds",
			Help:    "Object storage operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"operation"},
	)

	// Database Metrics
	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytclipper_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Cleanup Metrics
	ClipsPendingCleanup = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytclipper_clips_pending_cleanup",
			Help: "Clips scheduled for deletion",
		},
	)

	ClipsDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_clips_deleted_total",
			Help: "Clip files removed by the cleanup scheduler",
		},
		[]string{"reason"},
	)

	// Webhook Metrics
	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts",
		},
		[]string{"event", "status"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytclipper_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordAcquisitionAttempt records one fallback step outcome
func RecordAcquisitionAttempt(strategy, outcome string) {
	AcquisitionAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordAcquisition records the end of an acquisition
func RecordAcquisition(status string, duration float64, bytes int64) {
	AcquisitionsTotal.WithLabelValues(status).Inc()
	AcquisitionDuration.Observe(duration)
	if bytes > 0 {
		SourceBytesDownloaded.Add(float64(bytes))
	}
}

// RecordExtraction records one extraction phase outcome
func RecordExtraction(phase, outcome string, duration float64) {
	ExtractionsTotal.WithLabelValues(phase, outcome).Inc()
	ExtractionDuration.WithLabelValues(phase).Observe(duration)
}

// RecordClipSize records the size of a produced clip
func RecordClipSize(bytes int64) {
	ClipSizeBytes.Observe(float64(bytes))
}

// RecordCacheLookup records a download cache decision
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordCacheWriteFailure records a tolerated cache write failure
func RecordCacheWriteFailure(operation string) {
	CacheWriteFailuresTotal.WithLabelValues(operation).Inc()
}

// RecordStorageOperation records an object storage operation
func RecordStorageOperation(operation, status string, duration float64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string, duration float64) {
	DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
	DatabaseOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordWebhookDelivery records one webhook delivery attempt
func RecordWebhookDelivery(event, status string) {
	WebhookDeliveriesTotal.WithLabelValues(event, status).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// Status returns "success" or "error" for use as a label value
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
