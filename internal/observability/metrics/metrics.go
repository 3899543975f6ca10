// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_meeting_insights"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Normalization metrics
	TranscriptsNormalized prometheus.Counter
	NormalizeFailures     prometheus.Counter
	SegmentsProduced      prometheus.Counter

	// LLM assignment metrics
	AssignAttempts      prometheus.Counter
	AssignRetries       prometheus.Counter
	AssignEmptyMappings prometheus.Counter
	Resolutions         *prometheus.CounterVec

	// Biometric matching metrics
	MatchAttempts   *prometheus.CounterVec
	MatchSimilarity prometheus.Histogram

	// Voiceprint store metrics
	VoiceprintsRegistered prometheus.Counter
	StoreOps              *prometheus.CounterVec

	// Transcription job metrics
	TranscribeJobs *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TranscriptsNormalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_normalized_total",
			Help:      "Total number of transcripts normalized",
		}),
		NormalizeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalize_failures_total",
			Help:      "Total number of transcripts rejected as structurally invalid",
		}),
		SegmentsProduced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_produced_total",
			Help:      "Total number of per-speaker segments produced by normalization",
		}),

		AssignAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assign_attempts_total",
			Help:      "Total number of LLM mapping generation attempts",
		}),
		AssignRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assign_retries_total",
			Help:      "Total number of mapping retries triggered by verification issues",
		}),
		AssignEmptyMappings: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assign_empty_mappings_total",
			Help:      "Total number of generation attempts that produced no mapping",
		}),
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of speaker resolution passes",
		}, []string{"method", "outcome"}),

		MatchAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_attempts_total",
			Help:      "Total number of voiceprint match attempts",
		}, []string{"result"}),
		MatchSimilarity: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_best_similarity",
			Help:      "Best cosine similarity observed per match attempt",
			Buckets:   []float64{0.2, 0.4, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 0.99},
		}),

		VoiceprintsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voiceprints_registered_total",
			Help:      "Total number of voiceprints registered",
		}),
		StoreOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_ops_total",
			Help:      "Total number of embedding store operations",
		}, []string{"op", "status"}),

		TranscribeJobs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcribe_jobs_total",
			Help:      "Total number of transcription jobs by terminal status",
		}, []string{"status"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "code"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
		}, []string{"route"}),
	}
}

// RecordNormalized records a successful normalization and its segment count.
func (m *Metrics) RecordNormalized(segments int) {
	m.TranscriptsNormalized.Inc()
	m.SegmentsProduced.Add(float64(segments))
}

// RecordNormalizeFailure records a rejected diarization payload.
func (m *Metrics) RecordNormalizeFailure() {
	m.NormalizeFailures.Inc()
}

// RecordAssignAttempt records a mapping generation attempt.
func (m *Metrics) RecordAssignAttempt() {
	m.AssignAttempts.Inc()
}

// RecordAssignRetry records a verification-triggered retry.
func (m *Metrics) RecordAssignRetry() {
	m.AssignRetries.Inc()
}

// RecordAssignEmpty records an attempt that produced no mapping.
func (m *Metrics) RecordAssignEmpty() {
	m.AssignEmptyMappings.Inc()
}

// RecordResolution records the outcome of a resolution pass.
func (m *Metrics) RecordResolution(method string, success bool) {
	outcome := "success"
	if !success {
		outcome = "inconclusive"
	}
	m.Resolutions.WithLabelValues(method, outcome).Inc()
}

// RecordMatch records a voiceprint match attempt and its best similarity.
func (m *Metrics) RecordMatch(result string, bestSimilarity float64) {
	m.MatchAttempts.WithLabelValues(result).Inc()
	m.MatchSimilarity.Observe(bestSimilarity)
}

// RecordVoiceprintRegistered records a successful registration.
func (m *Metrics) RecordVoiceprintRegistered() {
	m.VoiceprintsRegistered.Inc()
}

// RecordStoreOp records an embedding store operation.
func (m *Metrics) RecordStoreOp(op string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.StoreOps.WithLabelValues(op, status).Inc()
}

// RecordTranscribeJob records a transcription job reaching a terminal state.
func (m *Metrics) RecordTranscribeJob(status string) {
	m.TranscribeJobs.WithLabelValues(status).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(route, code string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(route, code).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(durationSeconds)
}
