package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Chunk operation metrics
	chunkOperationsTotal   *prometheus.CounterVec
	chunkOperationDuration *prometheus.HistogramVec
	chunkBytesTotal        *prometheus.CounterVec
	checksumFailuresTotal  prometheus.Counter
	storedChunks           prometheus.Gauge

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	// Health check metrics
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pngme_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pngme_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pngme_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		chunkOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pngme_chunk_operations_total",
				Help: "Total number of chunk operations",
			},
			[]string{"operation", "status"},
		),

		chunkOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pngme_chunk_operation_duration_seconds",
				Help:    "Chunk operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		chunkBytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pngme_chunk_payload_bytes_total",
				Help: "Total payload bytes handled by chunk operations",
			},
			[]string{"operation"},
		),

		checksumFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pngme_checksum_failures_total",
				Help: "Total number of chunks rejected for a CRC mismatch",
			},
		),

		storedChunks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pngme_stored_chunks",
				Help: "Number of chunks in the vault at the last listing",
			},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pngme_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pngme_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordChunkOperation records a chunk operation and the payload bytes it handled
func (m *Metrics) RecordChunkOperation(operation string, success bool, payloadBytes int, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}

	m.chunkOperationsTotal.WithLabelValues(operation, status).Inc()
	m.chunkOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if payloadBytes > 0 {
		m.chunkBytesTotal.WithLabelValues(operation).Add(float64(payloadBytes))
	}
}

// RecordChecksumFailure records a chunk rejected for a CRC mismatch
func (m *Metrics) RecordChecksumFailure() {
	m.checksumFailuresTotal.Inc()
}

// UpdateStoredChunks sets the vault size gauge
func (m *Metrics) UpdateStoredChunks(n int) {
	m.storedChunks.Set(float64(n))
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.healthChecksTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		// Capture the status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
