package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine transport Prometheus metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pariah",
			Name:      "engine_requests_total",
			Help:      "Total number of requests sent to the search engine",
		},
		[]string{"method", "endpoint", "status"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pariah",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	PoolInUse = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pariah",
			Name:      "pool_connections_in_use",
			Help:      "Connections currently checked out of the pool",
		},
	)

	PoolWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pariah",
			Name:      "pool_wait_seconds",
			Help:      "Time spent waiting for a pooled connection",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)

	RewritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pariah",
			Name:      "rewrites_total",
			Help:      "Index rewrite state transitions",
		},
		[]string{"alias", "state"},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers engine, pool and rewrite metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(EngineRequestDuration)
	prometheus.MustRegister(PoolInUse)
	prometheus.MustRegister(PoolWaitSeconds)
	prometheus.MustRegister(RewritesTotal)
	engineMetricsRegistered = true
}

// Endpoint reduces an engine path to a low-cardinality label: the first
// segment starting with '_' (e.g. "_search", "_bulk"), or "index" otherwise.
func Endpoint(path string) string {
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			seg := path[start:i]
			if len(seg) > 0 && seg[0] == '_' && seg != "_all" {
				return seg
			}
			start = i + 1
		}
	}
	return "index"
}
