// Package metrics defines the Prometheus collectors of the service. All
// methods are safe to call on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Registrations *prometheus.CounterVec
	Verifications *prometheus.CounterVec
	SignIns       *prometheus.CounterVec
	Messages      *prometheus.CounterVec
	EmailFailures prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mystrymsg",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mystrymsg",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mystrymsg",
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mystrymsg",
			Name:      "verifications_total",
			Help:      "Code verification attempts by outcome.",
		}, []string{"outcome"}),
		SignIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mystrymsg",
			Name:      "signins_total",
			Help:      "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mystrymsg",
			Name:      "messages_total",
			Help:      "Message operations by action and outcome.",
		}, []string{"action", "outcome"}),
		EmailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mystrymsg",
			Name:      "email_failures_total",
			Help:      "Verification emails that could not be delivered.",
		}),
	}
	reg.MustRegister(
		m.HTTPRequests, m.HTTPDuration,
		m.Registrations, m.Verifications, m.SignIns, m.Messages, m.EmailFailures,
	)
	return m
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Verification(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SignIn(outcome string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Message(action, outcome string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) EmailFailed() {
	if m == nil {
		return
	}
	m.EmailFailures.Inc()
}

func (m *Metrics) ObserveHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(seconds)
}
