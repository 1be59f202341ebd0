package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus collectors. One instance is
// created at startup and shared through the composition root.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	LoginAttempts *prometheus.CounterVec
	Admissions    prometheus.Counter
	AuditFailures prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdl_records",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdl_records",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdl_records",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		Admissions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pdl_records",
			Name:      "pdl_admissions_total",
			Help:      "Successfully registered PDL records.",
		}),
		AuditFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pdl_records",
			Name:      "audit_write_failures_total",
			Help:      "Audit entries that could not be persisted.",
		}),
	}
}
