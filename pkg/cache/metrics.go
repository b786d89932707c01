package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (memory, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcloud_cache_hits_total",
			Help: "Total number of portal cache hits",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pvcloud_cache_misses_total",
			Help: "Total number of portal cache misses",
		},
	)

	// CacheEntries tracks the current number of cached entries by layer
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pvcloud_cache_entries",
			Help: "Current number of cached portal responses",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheInvalidations tracks invalidation calls by scope
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcloud_cache_invalidations_total",
			Help: "Total number of cache invalidation calls",
		},
		[]string{"scope"}, // "all", "matching"
	)

	// CacheErrors tracks cache backend operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcloud_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "invalidate", "stats"
	)
)
