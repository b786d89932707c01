// Package metrics provides the centralized Prometheus registry for the
// pvcloud client. All metrics are defined in their respective packages
// (client, cache, ratelimit, station) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the pvcloud client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - pvcloud_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - pvcloud_cache_misses_total (Counter): Cache misses
//   - pvcloud_cache_entries{layer} (Gauge): Current cached entry count
//   - pvcloud_cache_invalidations_total{scope} (Counter): Invalidation calls (all, matching)
//   - pvcloud_cache_errors_total{operation} (Counter): Backend operation errors
//
// Request Metrics (pkg/client):
//   - pvcloud_requests_total{endpoint, outcome} (Counter): Requests by endpoint and outcome
//     (ok, error, cache_hit, quota_blocked)
//   - pvcloud_request_duration_seconds{endpoint} (Histogram): Request duration
//   - pvcloud_hour_boundary_flushes_total (Counter): Cache flushes forced by hour rollover
//
// Retry Metrics (pkg/client):
//   - pvcloud_retries_total{error_class} (Counter): Retry attempts by error class
//   - pvcloud_retry_backoff_seconds{error_class} (Histogram): Backoff duration
//   - pvcloud_retry_exhausted_total{error_class} (Counter): Requests that exhausted retries
//
// Quota Metrics (pkg/ratelimit):
//   - pvcloud_quota_calls_remaining (Gauge): Calls remaining in the current UTC day
//   - pvcloud_quota_blocks_total (Counter): Requests blocked at critical quota level
//   - pvcloud_quota_throttles_total (Counter): Requests throttled at low quota level
//
// DST Metrics (pkg/station):
//   - pvcloud_dst_syncs_total{result} (Counter): Reconciliation outcomes
//     (match, corrected, unknown, failed)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(pvcloud_cache_hits_total[5m])) /
//   (sum(rate(pvcloud_cache_hits_total[5m])) + sum(rate(pvcloud_cache_misses_total[5m])))
//
//   # Quota Headroom
//   pvcloud_quota_calls_remaining < 500
//
//   # DST Corrections Issued
//   increase(pvcloud_dst_syncs_total{result="corrected"}[24h])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(pvcloud_request_duration_seconds_bucket[5m]))
