package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis creates a test Redis client, skipping when no local
// Redis is available. The integration build uses testcontainers.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func TestNewTracker_DefaultBudget(t *testing.T) {
	tracker := NewTracker(nil, 0, testLogger())
	if tracker.budget != DefaultDailyBudget {
		t.Errorf("budget = %d, want %d", tracker.budget, DefaultDailyBudget)
	}
}

func TestTracker_GetState_FreshDay(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, 100, testLogger())

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}

	if state.CallsUsed != 0 {
		t.Errorf("CallsUsed = %d, want 0", state.CallsUsed)
	}
	if state.Budget != 100 {
		t.Errorf("Budget = %d, want 100", state.Budget)
	}
	if !state.IsHealthy {
		t.Error("fresh day should be healthy")
	}
}

func TestTracker_RecordCall(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, 100, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := tracker.RecordCall(ctx); err != nil {
			t.Fatalf("RecordCall %d failed: %v", i, err)
		}
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if state.CallsUsed != 3 {
		t.Errorf("CallsUsed = %d, want 3", state.CallsUsed)
	}

	// Day counter carries an expiry so stale buckets clean up
	ttl, err := client.TTL(ctx, redisKeyPrefix+DayBucket(time.Now())).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > 48*time.Hour {
		t.Errorf("counter ttl = %v, want (0, 48h]", ttl)
	}
}

func TestTracker_ShouldAllowRequest_Healthy(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, 10000, testLogger())

	allowed, err := tracker.ShouldAllowRequest(context.Background())
	if err != nil {
		t.Fatalf("ShouldAllowRequest failed: %v", err)
	}
	if !allowed {
		t.Error("healthy quota should allow requests")
	}
}

func TestTracker_ShouldAllowRequest_CriticalBlocks(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, 100, testLogger())
	ctx := context.Background()

	// Burn the budget down past the critical threshold
	key := redisKeyPrefix + DayBucket(time.Now())
	if err := client.Set(ctx, key, 100-ThresholdCriticalRemaining+1, 0).Err(); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest failed: %v", err)
	}
	if allowed {
		t.Error("critical quota level must block requests")
	}
}

func TestTracker_SharedBudgetAcrossTrackers(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	// Two trackers simulate two processes sharing one portal account
	a := NewTracker(client, 100, testLogger())
	b := NewTracker(client, 100, testLogger())

	if err := a.RecordCall(ctx); err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}
	if err := b.RecordCall(ctx); err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}

	state, err := a.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if state.CallsUsed != 2 {
		t.Errorf("CallsUsed = %d, want 2 (shared counter)", state.CallsUsed)
	}
}
