package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Search pipeline
	RelayAttempts   *prometheus.CounterVec
	SearchFetches   *prometheus.CounterVec
	RecordsAppended prometheus.Counter
	SuggestRequests *prometheus.CounterVec

	// Frame
	EngineRelayRequests *prometheus.CounterVec
	PinnedTabs          prometheus.Gauge

	// WebSocket
	WSConnections prometheus.Gauge
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foxsearch_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foxsearch_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),

		RelayAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foxsearch_relay_attempts_total",
				Help: "Relay fetch attempts by relay and outcome",
			},
			[]string{"relay", "outcome"},
		),
		SearchFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foxsearch_search_fetches_total",
				Help: "Search page fetches by outcome",
			},
			[]string{"outcome"},
		),
		RecordsAppended: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "foxsearch_records_appended_total",
				Help: "Unique result records appended to session history",
			},
		),
		SuggestRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foxsearch_suggest_requests_total",
				Help: "Suggestion lookups by outcome",
			},
			[]string{"outcome"},
		),

		EngineRelayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foxsearch_engine_relay_requests_total",
				Help: "Frame relay requests by response status",
			},
			[]string{"status"},
		),
		PinnedTabs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "foxsearch_pinned_tabs",
				Help: "Number of pinned tabs in this session",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "foxsearch_ws_connections",
				Help: "Number of active render stream connections",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRelayAttempt records one relay attempt ("ok", "error", "status", "empty", "rejected", "open")
func (m *Metrics) RecordRelayAttempt(relay, outcome string) {
	if m == nil {
		return
	}
	m.RelayAttempts.WithLabelValues(relay, outcome).Inc()
}

// RecordSearchFetch records a finished fetch cycle and how many records it appended
func (m *Metrics) RecordSearchFetch(outcome string, appended int) {
	if m == nil {
		return
	}
	m.SearchFetches.WithLabelValues(outcome).Inc()
	if appended > 0 {
		m.RecordsAppended.Add(float64(appended))
	}
}

// RecordSuggest records a suggestion lookup
func (m *Metrics) RecordSuggest(outcome string) {
	if m == nil {
		return
	}
	m.SuggestRequests.WithLabelValues(outcome).Inc()
}

// RecordEngineRelay records a frame relay response status
func (m *Metrics) RecordEngineRelay(status string) {
	if m == nil {
		return
	}
	m.EngineRelayRequests.WithLabelValues(status).Inc()
}

// SetPinnedTabs sets the pinned tab gauge
func (m *Metrics) SetPinnedTabs(count int) {
	if m == nil {
		return
	}
	m.PinnedTabs.Set(float64(count))
}

// IncWSConnections increments stream connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements stream connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
