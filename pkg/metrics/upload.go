package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics records session operation outcomes. All methods are safe
// on a nil receiver so instrumentation stays optional.
type UploadMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	bytes    prometheus.Counter
	rejected prometheus.Counter
}

// NewUploadMetrics registers the session metrics on the provided registerer.
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	if reg == nil {
		return &UploadMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "media_operation_duration_seconds",
		Help:    "Duration of media session operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "entity_type"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_operation_success",
		Help: "Successful media session operations.",
	}, []string{"operation", "entity_type"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_operation_failure",
		Help: "Failed media session operations.",
	}, []string{"operation", "entity_type"})
	bytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_upload_bytes_total",
		Help: "Total bytes sent in upload batches.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_files_rejected_total",
		Help: "Files rejected by client-side validation.",
	})
	reg.MustRegister(duration, success, failure, bytes, rejected)
	return &UploadMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		bytes:    bytes,
		rejected: rejected,
	}
}

// ObserveDuration records the duration of the named operation.
func (u *UploadMetrics) ObserveDuration(operation, entityType string, duration time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	u.duration.WithLabelValues(normalizeLabel(operation), normalizeLabel(entityType)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (u *UploadMetrics) IncSuccess(operation, entityType string) {
	if u == nil || u.success == nil {
		return
	}
	u.success.WithLabelValues(normalizeLabel(operation), normalizeLabel(entityType)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (u *UploadMetrics) IncFailure(operation, entityType string) {
	if u == nil || u.failure == nil {
		return
	}
	u.failure.WithLabelValues(normalizeLabel(operation), normalizeLabel(entityType)).Inc()
}

// AddUploadBytes counts bytes accepted into an upload batch.
func (u *UploadMetrics) AddUploadBytes(n int64) {
	if u == nil || u.bytes == nil || n <= 0 {
		return
	}
	u.bytes.Add(float64(n))
}

// IncRejected counts one file rejected before any network call.
func (u *UploadMetrics) IncRejected() {
	if u == nil || u.rejected == nil {
		return
	}
	u.rejected.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
