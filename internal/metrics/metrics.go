package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests       *prometheus.CounterVec
	Latency        *prometheus.HistogramVec
	Verifications  *prometheus.CounterVec
	GatewayLatency prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the service collectors on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quickship",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quickship",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quickship",
		Name:      "payments_verified_total",
		Help:      "Payment verification attempts by outcome.",
	}, []string{"outcome"})
	gateway := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quickship",
		Name:      "gateway_request_duration_seconds",
		Help:      "Latency of outbound payment gateway calls.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	reg.MustRegister(requests, latency, verifications, gateway)

	return &Metrics{
		Requests:       requests,
		Latency:        latency,
		Verifications:  verifications,
		GatewayLatency: gateway,
		gatherer:       reg,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
