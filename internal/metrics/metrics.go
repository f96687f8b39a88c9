// Package metrics holds the Prometheus instruments for the chat service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeEmpty    = "empty"
)

// Metrics is a private registry plus the instruments registered on it.
type Metrics struct {
	registry *prometheus.Registry

	turns          *prometheus.CounterVec
	events         *prometheus.CounterVec
	searchAttempts *prometheus.CounterVec
	feedFallbacks  prometheus.Counter
	queries        *prometheus.CounterVec
	modelLatency   *prometheus.HistogramVec
	sessions       prometheus.Gauge
}

// New creates and registers all instruments.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.turns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floodguard",
		Name:      "chat_turns_total",
		Help:      "Chat turns by outcome",
	}, []string{"outcome"})
	m.events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floodguard",
		Name:      "chat_events_total",
		Help:      "Outbound chat events by type",
	}, []string{"type"})
	m.searchAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floodguard",
		Subsystem: "news",
		Name:      "search_attempts_total",
		Help:      "Web search attempts by result",
	}, []string{"result"})
	m.feedFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "floodguard",
		Subsystem: "news",
		Name:      "feed_fallbacks_total",
		Help:      "Times the feed fallback ran after web search was exhausted",
	})
	m.queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floodguard",
		Name:      "dataset_queries_total",
		Help:      "Dataset queries by kind",
	}, []string{"kind"})
	m.modelLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "floodguard",
		Name:      "model_latency_seconds",
		Help:      "Language model call latency",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
	}, []string{"provider"})
	m.sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "floodguard",
		Name:      "sessions_active",
		Help:      "Sessions currently held in memory",
	})

	m.registry.MustRegister(
		m.turns, m.events, m.searchAttempts, m.feedFallbacks,
		m.queries, m.modelLatency, m.sessions,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Turn(outcome string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Event(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

func (m *Metrics) SearchAttempt(result string) {
	if m == nil {
		return
	}
	m.searchAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) FeedFallback() {
	if m == nil {
		return
	}
	m.feedFallbacks.Inc()
}

func (m *Metrics) Query(kind string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(kind).Inc()
}

func (m *Metrics) ModelLatency(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.modelLatency.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) Sessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
