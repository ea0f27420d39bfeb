// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_cache_lookups_total",
			Help: "Cache lookups by outcome (hit, miss, expired, corrupt, error)",
		},
		[]string{"outcome"},
	)

	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_cache_writes_total",
			Help: "Cache writes and purges by operation and result",
		},
		[]string{"op", "result"},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_provider_requests_total",
			Help: "Calls to the Torn API by result",
		},
		[]string{"result"},
	)

	ProviderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyzer_provider_request_duration_seconds",
			Help:    "Duration of Torn API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LoadsSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_loads_superseded_total",
			Help: "Loads whose result was discarded because a newer load started",
		},
	)

	BatchSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "analyzer_batch_companies",
			Help: "Number of companies in the current batch, labelled with its category",
		},
		[]string{"category"},
	)
)
