package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pvcloud_quota_calls_remaining",
		Help: "Portal API calls remaining in the current UTC day",
	})

	quotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pvcloud_quota_blocks_total",
		Help: "Total number of requests blocked due to critical quota level",
	})

	quotaThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pvcloud_quota_throttles_total",
		Help: "Total number of requests throttled due to low quota level",
	})
)

// Tracker monitors portal call quota and gates requests. State lives in
// Redis so several processes sharing one portal account share one
// budget.
type Tracker struct {
	redis  *redis.Client
	budget int
	logger zerolog.Logger
	now    func() time.Time
}

// NewTracker creates a new quota tracker.
func NewTracker(redisClient *redis.Client, budget int, logger zerolog.Logger) *Tracker {
	if budget <= 0 {
		budget = DefaultDailyBudget
	}
	return &Tracker{
		redis:  redisClient,
		budget: budget,
		logger: logger,
		now:    time.Now,
	}
}

// GetState retrieves the current day's quota state from Redis.
// Returns a fresh state when no calls were recorded yet today.
func (t *Tracker) GetState(ctx context.Context) (*QuotaState, error) {
	day := DayBucket(t.now())

	used, err := t.redis.Get(ctx, redisKeyPrefix+day).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get quota counter: %w", err)
	}

	state := &QuotaState{
		Day:       day,
		CallsUsed: used,
		Budget:    t.budget,
	}
	state.UpdateHealth()
	return state, nil
}

// RecordCall charges one portal call against today's budget.
// The counter expires after 48h so stale day buckets clean themselves up.
func (t *Tracker) RecordCall(ctx context.Context) error {
	day := DayBucket(t.now())
	key := redisKeyPrefix + day

	pipe := t.redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record quota call: %w", err)
	}

	remaining := t.budget - int(incr.Val())
	if remaining < 0 {
		remaining = 0
	}
	quotaRemaining.Set(float64(remaining))

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on the
// current quota state. Returns false if the request should be blocked;
// may sleep briefly for throttling when the budget runs low.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get quota state: %w", err)
	}

	// Critical: block all requests
	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("calls_used", state.CallsUsed).
			Int("remaining", state.Remaining()).
			Msg("Portal quota critical - blocking request")

		quotaBlocksTotal.Inc()
		return false, nil
	}

	// Warning: apply throttling (1 second sleep)
	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("calls_used", state.CallsUsed).
			Int("remaining", state.Remaining()).
			Msg("Portal quota low - throttling request")

		quotaThrottlesTotal.Inc()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}

	return true, nil
}
