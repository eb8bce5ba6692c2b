// Package metrics holds the prometheus collectors for the sign-in flow.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "event_board_auth"

// Consumption results
const (
	ResultSuccess     = "success"
	ResultNotFound    = "not_found"
	ResultExpired     = "expired"
	ResultAlreadyUsed = "already_used"
	ResultError       = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	linksRequested    prometheus.Counter
	deliveryFailures  prometheus.Counter
	tokenConsumptions *prometheus.CounterVec
	sessionsIssued    *prometheus.CounterVec
	tokensPurged      prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		linksRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_in_links_requested_total",
			Help:      "Sign-in links requested.",
		}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_in_delivery_failures_total",
			Help:      "Sign-in link deliveries that failed after all attempts.",
		}),
		tokenConsumptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_in_token_consumptions_total",
			Help:      "Sign-in token validation attempts by result.",
		}, []string{"result"}),
		sessionsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_issued_total",
			Help:      "Credentials issued after a successful sign-in, by mode.",
		}, []string{"mode"}),
		tokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_in_tokens_purged_total",
			Help:      "Expired sign-in tokens removed by housekeeping.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.linksRequested,
		m.deliveryFailures,
		m.tokenConsumptions,
		m.sessionsIssued,
		m.tokensPurged,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) LinkRequested() {
	if m == nil {
		return
	}
	m.linksRequested.Inc()
}

func (m *Metrics) DeliveryFailed() {
	if m == nil {
		return
	}
	m.deliveryFailures.Inc()
}

func (m *Metrics) TokenConsumed(result string) {
	if m == nil {
		return
	}
	m.tokenConsumptions.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionIssued(mode string) {
	if m == nil {
		return
	}
	m.sessionsIssued.WithLabelValues(mode).Inc()
}

func (m *Metrics) TokensPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.tokensPurged.Add(float64(n))
}
