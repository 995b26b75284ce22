package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Key-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keygate",
			Subsystem: "key_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "keygate",
			Subsystem: "key_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Issued key counter
	KeysIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "keygate",
			Subsystem: "key_api",
			Name:      "keys_issued_total",
			Help:      "Total access keys issued",
		},
	)

	// Validation outcomes
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keygate",
			Subsystem: "key_api",
			Name:      "validations_total",
			Help:      "Total key validations by outcome",
		},
		[]string{"result"},
	)

	// Revocation counter
	RevocationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "keygate",
			Subsystem: "key_api",
			Name:      "revocations_total",
			Help:      "Total access keys revoked",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordValidation records a validation outcome: valid, invalid_key,
// expired, device_bound or error.
func RecordValidation(result string) {
	ValidationsTotal.WithLabelValues(result).Inc()
}
