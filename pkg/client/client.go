// Package client provides the core pvcloud portal session with response
// caching, hour-boundary invalidation, quota gating, and error handling.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/solarfleet/pvcloud/pkg/cache"
	"github.com/solarfleet/pvcloud/pkg/ratelimit"
)

// Prometheus metrics for portal client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pvcloud_requests_total",
		Help: "Total portal requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pvcloud_request_duration_seconds",
		Help:    "Portal request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})
)

// Client is the portal session. It owns the cache store and the hour
// tracker; both are shared mutable state touched by every concurrent
// request and are never exposed as free-floating process-wide state.
type Client struct {
	transport Transport
	cache     cache.Store
	hours     *hourTracker
	quota     *ratelimit.Tracker
	config    Config
	logger    zerolog.Logger
	now       func() time.Time
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the portal API root, e.g. "https://portal.example.com".
	BaseURL string

	// UserAgent identifies this client to the portal.
	UserAgent string

	// Store is the cache backend. Defaults to an in-memory store owned
	// by this session.
	Store cache.Store

	// Transport performs raw requests. Defaults to HTTPTransport.
	Transport Transport

	// Redis enables the shared daily-quota tracker when set.
	Redis *redis.Client

	// DailyCallBudget is the portal's per-day API call allowance.
	DailyCallBudget int

	// Now is the process clock source. Defaults to time.Now.
	// Hour tracking uses this clock, not any station's local time.
	Now func() time.Time
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:         baseURL,
		UserAgent:       userAgent,
		DailyCallBudget: ratelimit.DefaultDailyBudget,
	}
}

// New creates a new portal client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" && cfg.Transport == nil {
		return nil, fmt.Errorf("base URL is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	logger := log.With().Str("component", "pvcloud-client").Logger()

	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Store == nil {
		cfg.Store = cache.NewMemoryStore()
	}
	if cfg.Transport == nil {
		cfg.Transport = NewHTTPTransport(cfg.BaseURL, cfg.UserAgent, logger)
	}
	if cfg.DailyCallBudget <= 0 {
		cfg.DailyCallBudget = ratelimit.DefaultDailyBudget
	}

	var quota *ratelimit.Tracker
	if cfg.Redis != nil {
		quota = ratelimit.NewTracker(cfg.Redis, cfg.DailyCallBudget, logger)
	}

	return &Client{
		transport: cfg.Transport,
		cache:     cfg.Store,
		hours:     newHourTracker(),
		quota:     quota,
		config:    cfg,
		logger:    logger,
		now:       cfg.Now,
	}, nil
}

// onRequestStart runs at the top of every outbound request, before any
// cache lookup. It performs the hour-boundary check: the first request
// after each wall-clock hour change flushes the whole cache so daily
// counters that reset at local midnight cannot be served across the
// boundary. Concurrent callers detecting the same boundary each flush;
// that is redundant but safe.
func (c *Client) onRequestStart(ctx context.Context) {
	if !c.hours.observe(c.now()) {
		return
	}

	boundaryFlushesTotal.Inc()
	c.logger.Info().
		Int("hour", c.now().Hour()).
		Msg("Hour boundary crossed - invalidating response cache")

	if err := c.cache.InvalidateAll(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Hour-boundary cache flush failed")
	}
}

// Fetch performs a cached GET against the portal. The TTL class is
// chosen by the caller per endpoint type. The first fetch after an hour
// boundary may still surface upstream-stale data because the portal's
// reset timing is unobservable; that limitation is upstream-owned.
func (c *Client) Fetch(ctx context.Context, key cache.CacheKey, class cache.TTLClass) ([]byte, error) {
	c.onRequestStart(ctx)

	endpoint := key.Endpoint
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Cache lookup
	if payload, err := c.cache.Get(ctx, key); err == nil {
		requestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("key", key.String()).
			Msg("Cache hit")
		return payload, nil
	} else if err != cache.ErrCacheMiss {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
	}

	// Quota gate
	if err := c.allowRequest(ctx, endpoint); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Msg("Executing portal request")

	payload, err := c.transport.Request(ctx, http.MethodGet, key.Endpoint, key.Params)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	requestsTotal.WithLabelValues(endpoint, "ok").Inc()
	c.recordCall(ctx)

	if err := c.cache.Set(ctx, key, payload, class); err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to cache response")
	}

	return payload, nil
}

// Write performs an uncached write against the portal. When deviceSN is
// set, every cached entry mentioning that serial is invalidated so no
// pre-write read can be served afterwards.
func (c *Client) Write(ctx context.Context, path string, params map[string]string, deviceSN string) ([]byte, error) {
	c.onRequestStart(ctx)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	if err := c.allowRequest(ctx, path); err != nil {
		return nil, err
	}

	payload, err := c.transport.Request(ctx, http.MethodPost, path, params)
	if err != nil {
		requestsTotal.WithLabelValues(path, "error").Inc()
		return nil, err
	}
	requestsTotal.WithLabelValues(path, "ok").Inc()
	c.recordCall(ctx)

	if deviceSN != "" {
		removed, err := c.cache.InvalidateMatching(ctx, func(key string) bool {
			return strings.Contains(key, deviceSN)
		})
		if err != nil {
			c.logger.Warn().Err(err).Str("sn", deviceSN).Msg("Post-write invalidation failed")
		} else {
			c.logger.Debug().
				Str("sn", deviceSN).
				Int("removed", removed).
				Msg("Invalidated cached reads after device write")
		}
	}

	return payload, nil
}

// UpdateDST issues the portal's DST-flag correction for a station and
// drops any cached responses for it. Implements station.DSTUpdater.
func (c *Client) UpdateDST(ctx context.Context, stationID int64, enabled bool) error {
	id := strconv.FormatInt(stationID, 10)
	_, err := c.Write(ctx, "/v1/station/setDst", map[string]string{
		"stationId": id,
		"enable":    strconv.FormatBool(enabled),
	}, "")
	if err != nil {
		return err
	}

	_, err = c.cache.InvalidateMatching(ctx, func(key string) bool {
		return strings.Contains(key, "stationId="+id)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("station_id", id).Msg("Post-DST-update invalidation failed")
	}
	return nil
}

// allowRequest consults the shared quota tracker, when configured.
func (c *Client) allowRequest(ctx context.Context, endpoint string) error {
	if c.quota == nil {
		return nil
	}
	allowed, err := c.quota.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Quota check failed")
		return fmt.Errorf("quota check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by quota tracker")
		requestsTotal.WithLabelValues(endpoint, "quota_blocked").Inc()
		return ErrQuotaExceeded
	}
	return nil
}

// recordCall charges one call against the shared quota, when configured.
func (c *Client) recordCall(ctx context.Context) {
	if c.quota == nil {
		return
	}
	if err := c.quota.RecordCall(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to record quota call")
	}
}

// CacheStats returns the current cache content summary.
func (c *Client) CacheStats(ctx context.Context) (cache.Stats, error) {
	return c.cache.Stats(ctx)
}

// Cache returns the cache store (for testing).
func (c *Client) Cache() cache.Store {
	return c.cache
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	return nil
}
