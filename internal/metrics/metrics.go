// Package metrics defines the relay's prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay collectors
type Metrics struct {
	registry *prometheus.Registry

	webhooks   *prometheus.CounterVec
	actions    *prometheus.CounterVec
	as3Latency *prometheus.HistogramVec
	issues     *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go and
// process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		webhooks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_webhooks_total",
				Help: "Webhook deliveries received, by event and result",
			},
			[]string{"event", "result"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_actions_total",
				Help: "Change actions processed, by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		as3Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_as3_request_duration_seconds",
				Help:    "Duration of AS3 declare requests",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method"},
		),
		issues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_issues_total",
				Help: "Deployment issues filed, by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.webhooks, m.actions, m.as3Latency, m.issues,
	)

	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Webhook counts a webhook delivery
func (m *Metrics) Webhook(event, result string) {
	m.webhooks.WithLabelValues(event, result).Inc()
}

// Action counts a processed change action
func (m *Metrics) Action(action, outcome string) {
	m.actions.WithLabelValues(action, outcome).Inc()
}

// AS3Request records the duration of one AS3 request
func (m *Metrics) AS3Request(method string, elapsed time.Duration) {
	m.as3Latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Issue counts an issue filing attempt
func (m *Metrics) Issue(result string) {
	m.issues.WithLabelValues(result).Inc()
}
