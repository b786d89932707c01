// Package ratelimit implements daily API-call quota tracking for the
// pvcloud portal. The portal enforces a hard per-day request allowance
// per account; exceeding it locks the account out until the next UTC
// day. The tracker gates requests before the budget is spent.
package ratelimit

import (
	"time"
)

// Redis key prefix for quota state storage. Kept outside the cache
// store's "pvc:" prefix so cache flushes never touch quota counters.
const redisKeyPrefix = "pvcq:"

// DefaultDailyBudget is a conservative default portal call allowance.
const DefaultDailyBudget = 8000

// Thresholds for quota decisions.
const (
	// ThresholdCriticalRemaining blocks all requests when the remaining
	// budget falls below this value, keeping headroom for the DST
	// corrective writes and manual operations.
	ThresholdCriticalRemaining = 50

	// ThresholdWarningRemaining applies throttling when the remaining
	// budget falls below this value.
	ThresholdWarningRemaining = 500
)

// QuotaState represents the quota consumption for one UTC day.
// When Redis backs the tracker, this state is shared across all client
// processes using the same portal account.
type QuotaState struct {
	// Day is the UTC day bucket, formatted 2006-01-02.
	Day string `json:"day"`

	// CallsUsed is the number of portal calls charged so far today.
	CallsUsed int `json:"calls_used"`

	// Budget is the per-day call allowance.
	Budget int `json:"budget"`

	// IsHealthy indicates normal operation (no throttling or blocking).
	IsHealthy bool `json:"is_healthy"`
}

// Remaining returns the number of calls left in today's budget.
// Never negative.
func (s *QuotaState) Remaining() int {
	r := s.Budget - s.CallsUsed
	if r < 0 {
		return 0
	}
	return r
}

// NeedsCriticalBlock returns true if requests should be blocked to
// preserve the remaining headroom.
func (s *QuotaState) NeedsCriticalBlock() bool {
	return s.Remaining() < ThresholdCriticalRemaining
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *QuotaState) NeedsThrottling() bool {
	return s.Remaining() < ThresholdWarningRemaining && !s.NeedsCriticalBlock()
}

// UpdateHealth updates the IsHealthy field from the current counters.
func (s *QuotaState) UpdateHealth() {
	s.IsHealthy = !s.NeedsThrottling() && !s.NeedsCriticalBlock()
}

// DayBucket formats the UTC day key for the given instant.
func DayBucket(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}
