package cache

import (
	"time"
)

// CacheEntry represents a cached portal response.
type CacheEntry struct {
	// Data is the raw response payload
	Data []byte `json:"data"`

	// Class determines the entry's lifetime
	Class TTLClass `json:"class"`

	// StoredAt is when the response was cached
	StoredAt time.Time `json:"stored_at"`
}

// ExpiresAt returns the instant the entry becomes stale.
func (e *CacheEntry) ExpiresAt() time.Time {
	return e.StoredAt.Add(e.Class.Duration())
}

// IsExpired reports whether the entry is stale at the given instant.
// An entry is valid iff now < StoredAt + ttl(Class).
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt())
}

// TTL returns the time until expiration relative to now.
// Returns 0 if already expired.
func (e *CacheEntry) TTL(now time.Time) time.Duration {
	ttl := e.ExpiresAt().Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
