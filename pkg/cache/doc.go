// Package cache provides response caching for the pvcloud portal client.
//
// The portal imposes hard per-day API call quotas, so every read goes
// through a TTL cache keyed by a deterministic request signature. Each
// endpoint class maps to a fixed TTL (discovery data 15 minutes, live
// telemetry 20 seconds, parameter reads 2 minutes).
//
// # Basic Usage
//
//	store := cache.NewMemoryStore()
//
//	key := cache.CacheKey{
//		Endpoint: "/v1/station/detail",
//		Params:   map[string]string{"stationId": "4711"},
//	}
//
//	payload, err := store.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from portal, then:
//		store.Set(ctx, key, body, cache.TTLDiscovery)
//	}
//
// # Invalidation
//
// There is no eviction beyond explicit invalidation and TTL expiry:
//
//	store.InvalidateAll(ctx)               // hour-boundary flush
//	store.InvalidateMatching(ctx, func(k string) bool {
//		return strings.Contains(k, serial) // after a device write
//	})
//
// # Backends
//
// MemoryStore is the default: a map guarded by one mutex, owned by a
// single client session. RedisStore implements the same Store interface
// for multi-process deployments (the proxy daemon); a swap never touches
// callers.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - pvcloud_cache_hits_total{layer} - Cache hits
//   - pvcloud_cache_misses_total - Cache misses
//   - pvcloud_cache_entries{layer} - Current entry count
//   - pvcloud_cache_invalidations_total{scope} - Invalidation calls
//   - pvcloud_cache_errors_total{operation} - Backend operation errors
package cache
