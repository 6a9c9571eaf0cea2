// Package metrics holds the Prometheus collectors served on the admin listener.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_proxy_http_requests_total",
			Help: "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oauth_proxy_http_request_duration_ms",
			Help:    "Duration of inbound HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3200},
		},
		[]string{"method", "route"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_proxy_upstream_requests_total",
			Help: "Calls made to the authorization server, by endpoint and status (\"error\" on transport failure)",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oauth_proxy_upstream_request_duration_ms",
			Help:    "Duration of calls to the authorization server in ms",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3200, 6400},
		},
		[]string{"endpoint"},
	)

	CredentialResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_proxy_credential_resolutions_total",
			Help: "Token request credential resolution outcomes",
		},
		[]string{"outcome"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
