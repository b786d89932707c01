package cache

import (
	"testing"
	"time"
)

func TestTTLClass_Duration(t *testing.T) {
	tests := []struct {
		class TTLClass
		want  time.Duration
	}{
		{TTLDiscovery, 15 * time.Minute},
		{TTLRealtime, 20 * time.Second},
		{TTLParameter, 2 * time.Minute},
		{TTLClass("bogus"), DefaultTTL},
	}

	for _, tt := range tests {
		if got := tt.class.Duration(); got != tt.want {
			t.Errorf("%s.Duration() = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestCacheEntry_IsExpired(t *testing.T) {
	stored := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	entry := &CacheEntry{
		Data:     []byte(`{"power": 4200}`),
		Class:    TTLRealtime,
		StoredAt: stored,
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just stored", stored, false},
		{"within ttl", stored.Add(19 * time.Second), false},
		{"exactly at expiry", stored.Add(20 * time.Second), true},
		{"past expiry", stored.Add(1 * time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entry.IsExpired(tt.now); got != tt.want {
				t.Errorf("IsExpired(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestCacheEntry_TTL(t *testing.T) {
	stored := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	entry := &CacheEntry{
		Class:    TTLParameter,
		StoredAt: stored,
	}

	if got := entry.TTL(stored); got != 2*time.Minute {
		t.Errorf("TTL at store time = %v, want 2m", got)
	}

	if got := entry.TTL(stored.Add(90 * time.Second)); got != 30*time.Second {
		t.Errorf("TTL after 90s = %v, want 30s", got)
	}

	if got := entry.TTL(stored.Add(1 * time.Hour)); got != 0 {
		t.Errorf("TTL after expiry = %v, want 0", got)
	}
}
