// Package metrics exposes Prometheus collectors for the widget backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors the HTTP layer records into.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal          *prometheus.CounterVec
	RequestDuration        *prometheus.HistogramVec
	TokenValidations       *prometheus.CounterVec
	SpotifyRefreshFailures prometheus.Counter
}

// New creates a Metrics instance with its own registry so tests can run in
// parallel without collector collisions.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beatify_http_requests_total",
			Help: "HTTP requests by path and status code.",
		}, []string{"path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beatify_http_request_duration_seconds",
			Help:    "HTTP request latency by path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		TokenValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beatify_widget_token_validations_total",
			Help: "Widget token validations by result (ok, invalid).",
		}, []string{"result"}),
		SpotifyRefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "beatify_spotify_refresh_failures_total",
			Help: "Spotify token refreshes that failed and require a relink.",
		}),
	}
}

// Handler returns the /metrics endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
