package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheReads counts collection reads served from the local store by collection and staleness (fresh|stale).
	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hvacquote_cache_reads_total",
			Help: "Total number of cached collection reads",
		},
		[]string{"collection", "state"},
	)

	// CacheRefreshes records refresh attempts by trigger (stale|force|ensure) and result (success|failure).
	CacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hvacquote_cache_refreshes_total",
			Help: "Total number of cache refresh attempts",
		},
		[]string{"trigger", "result"},
	)

	// CacheRefreshDuration measures how long full-collection refreshes take.
	CacheRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hvacquote_cache_refresh_duration_seconds",
			Help:    "Duration of full cache refreshes",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CacheStale is 1 while the cache metadata is marked stale.
	CacheStale = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hvacquote_cache_stale",
			Help: "Whether the local cache is currently marked stale",
		},
	)

	// NetworkOnline is 1 while the upstream API is considered reachable.
	NetworkOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hvacquote_network_online",
			Help: "Whether the agent currently considers itself online",
		},
	)

	// ConnectivityProbes counts health probes issued while offline by result (success|failure).
	ConnectivityProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hvacquote_connectivity_probes_total",
			Help: "Total number of upstream connectivity probes",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hvacquote_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// BoolGauge converts a boolean state into the 0/1 value used by the state gauges.
func BoolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
