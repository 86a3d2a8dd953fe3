package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpctl_http_requests_total",
			Help: "HTTP requests served, by route, method and status code.",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpctl_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rpctl_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		},
	)

	rateLimitRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rpctl_http_rate_limit_rejects_total",
			Help: "Requests rejected with 429 by the server rate limiter.",
		},
	)

	panicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rpctl_http_panics_recovered_total",
			Help: "Handler panics recovered by the server.",
		},
	)
)
