package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice fraud detection service
type Metrics struct {
	// WebSocket connection metrics
	ConnectionsOpened prometheus.Counter
	ConnectionsClosed prometheus.Counter
	ActiveConnections prometheus.Gauge
	ConnectionErrors  prometheus.Counter

	// Message metrics
	MessagesReceived *prometheus.CounterVec
	MessageErrors    prometheus.Counter

	// Analysis metrics
	AnalysesPerformed prometheus.Counter
	DecodeErrors      prometheus.Counter
	AnalysisDuration  prometheus.Histogram
	FraudScore        prometheus.Histogram
	AudioSamples      prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// WebSocket connection metrics
		ConnectionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vfds_connections_opened_total",
			Help: "Total number of WebSocket connections accepted",
		}),
		ConnectionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vfds_connections_closed_total",
			Help: "Total number of WebSocket connections closed",
		}),
		ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vfds_active_connections",
			Help: "Current number of active WebSocket connections",
		}),
		ConnectionErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vfds_connection_errors_total",
			Help: "Total number of WebSocket accept or transport failures",
		}),

		// Message metrics
		MessagesReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vfds_messages_received_total",
			Help: "Total number of WebSocket messages received",
		}, []string{"type"}),
		MessageErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vfds_message_errors_total",
			Help: "Total number of malformed or rejected messages",
		}),

		// Analysis metrics
		AnalysesPerformed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vfds_analyses_performed_total",
			Help: "Total number of audio analyses performed",
		}),
		DecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vfds_decode_errors_total",
			Help: "Total number of audio payloads that failed to decode",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vfds_analysis_duration_seconds",
			Help:    "Time spent decoding and analyzing audio payloads",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~0.4s
		}),
		FraudScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vfds_fraud_score",
			Help:    "Distribution of computed fraud scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 to 1.0
		}),
		AudioSamples: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vfds_audio_samples",
			Help:    "Number of decoded samples per audio payload",
			Buckets: prometheus.ExponentialBuckets(100, 4, 8), // 100 to ~1.6M samples
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vfds_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vfds_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vfds_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordConnectionOpened records an accepted WebSocket connection
func (m *Metrics) RecordConnectionOpened(activeCount int) {
	m.ConnectionsOpened.Inc()
	m.ActiveConnections.Set(float64(activeCount))
}

// RecordConnectionClosed records a closed WebSocket connection
func (m *Metrics) RecordConnectionClosed(activeCount int) {
	m.ConnectionsClosed.Inc()
	m.ActiveConnections.Set(float64(activeCount))
}

// RecordConnectionError increments the connection errors counter
func (m *Metrics) RecordConnectionError() {
	m.ConnectionErrors.Inc()
}

// RecordMessageReceived records an inbound message by type
func (m *Metrics) RecordMessageReceived(messageType string) {
	m.MessagesReceived.WithLabelValues(messageType).Inc()
}

// RecordMessageError increments the malformed message counter
func (m *Metrics) RecordMessageError() {
	m.MessageErrors.Inc()
}

// RecordAnalysis records a completed audio analysis
func (m *Metrics) RecordAnalysis(durationSeconds, fraudScore float64, sampleCount int) {
	m.AnalysesPerformed.Inc()
	m.AnalysisDuration.Observe(durationSeconds)
	m.FraudScore.Observe(fraudScore)
	m.AudioSamples.Observe(float64(sampleCount))
}

// RecordDecodeError increments the decode errors counter
func (m *Metrics) RecordDecodeError() {
	m.DecodeErrors.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
