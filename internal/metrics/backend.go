package metrics

import "github.com/prometheus/client_golang/prometheus"

// Resource backend metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crisisportal",
			Name:      "backend_requests_total",
			Help:      "Total number of resource backend calls, after retries",
		},
		[]string{"endpoint", "status"},
	)

	BackendRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crisisportal",
			Name:      "backend_retries_total",
			Help:      "Retried resource backend attempts",
		},
		[]string{"endpoint"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crisisportal",
			Name:      "backend_request_duration_seconds",
			Help:      "Resource backend call duration in seconds, including retries",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"endpoint"},
	)

	ResourceCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crisisportal",
			Name:      "resource_cache_total",
			Help:      "Resource detail cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var backendMetricsRegistered bool

// RegisterBackendMetrics registers backend metrics. Must be called once from main.
func RegisterBackendMetrics() {
	if backendMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRetriesTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(ResourceCacheTotal)
	backendMetricsRegistered = true
}
