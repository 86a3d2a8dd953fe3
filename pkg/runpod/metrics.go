package runpod

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpctl_runpod_request_duration_seconds",
			Help:    "Duration of RunPod API operations including retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	apiRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpctl_runpod_requests_total",
			Help: "Total number of RunPod API operations",
		},
		[]string{"operation", "status"}, // success or lower-cased error code
	)

	apiRetryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpctl_runpod_retries_total",
			Help: "Total number of retried RunPod API requests",
		},
		[]string{"operation"},
	)

	podWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpctl_pod_wait_duration_seconds",
			Help:    "Time spent waiting for a pod to reach a status",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)
)
