package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	paymentRequestsTotal  *prometheus.CounterVec
	paymentLatencySeconds *prometheus.HistogramVec
	paymentErrorsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for payment observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		paymentRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_requests_total",
			Help: "Total number of payment API requests served.",
		}, []string{"method", "route", "status"})

		paymentLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payment_latency_seconds",
			Help:    "Latency distribution for payment API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		paymentErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_errors_total",
			Help: "Total number of error responses returned by payment endpoints.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(paymentRequestsTotal, paymentLatencySeconds, paymentErrorsTotal)
	})
}

// PaymentRequests exposes the counter for payment requests.
func PaymentRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return paymentRequestsTotal
}

// PaymentLatency exposes the latency histogram for payment requests.
func PaymentLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return paymentLatencySeconds
}

// PaymentErrors exposes the counter for payment error responses.
func PaymentErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return paymentErrorsTotal
}
