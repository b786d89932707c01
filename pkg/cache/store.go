package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Predicate selects cache keys for targeted invalidation.
// It receives the key's string signature.
type Predicate func(key string) bool

// Stats summarizes the current cache content.
type Stats struct {
	TotalEntries int              `json:"total_entries"`
	PerClass     map[TTLClass]int `json:"per_class"`
}

// Store is the cache abstraction shared by all backends. The client
// session owns exactly one Store and mutates it only through these
// operations, so a distributed backend can replace the in-memory one
// without touching callers.
type Store interface {
	// Get returns the cached payload, or ErrCacheMiss if the key is
	// absent or expired. Validity check and read are one atomic step.
	Get(ctx context.Context, key CacheKey) ([]byte, error)

	// Set stores a payload under the TTL class chosen by the caller.
	Set(ctx context.Context, key CacheKey, payload []byte, class TTLClass) error

	// InvalidateAll drops every entry. Cheap and idempotent; concurrent
	// redundant calls are safe.
	InvalidateAll(ctx context.Context) error

	// InvalidateMatching drops entries whose key signature matches the
	// predicate. Returns the number of entries removed.
	InvalidateMatching(ctx context.Context, match Predicate) (int, error)

	// Stats returns entry counts, total and per TTL class.
	Stats(ctx context.Context) (Stats, error)
}

// MemoryStore is the default Store: a map guarded by a single mutex,
// owned by one client session. The lock serializes the whole
// check-validity / read / invalidate / store sequence, so no request
// can observe a stale entry as valid mid-invalidation.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*CacheEntry),
		now:     time.Now,
	}
}

// SetClock overrides the store's clock (for testing).
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Get retrieves a cached payload.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (m *MemoryStore) Get(ctx context.Context, key CacheKey) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key.String()
	entry, ok := m.entries[k]
	if !ok {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	if entry.IsExpired(m.now()) {
		delete(m.entries, k)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	return entry.Data, nil
}

// Set stores a payload with the lifetime of the given TTL class.
func (m *MemoryStore) Set(ctx context.Context, key CacheKey, payload []byte, class TTLClass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key.String()] = &CacheEntry{
		Data:     payload,
		Class:    class,
		StoredAt: m.now(),
	}
	CacheEntries.WithLabelValues("memory").Set(float64(len(m.entries)))
	return nil
}

// InvalidateAll drops every entry.
func (m *MemoryStore) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*CacheEntry)
	CacheInvalidations.WithLabelValues("all").Inc()
	CacheEntries.WithLabelValues("memory").Set(0)
	return nil
}

// InvalidateMatching drops entries whose key matches the predicate.
func (m *MemoryStore) InvalidateMatching(ctx context.Context, match Predicate) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k := range m.entries {
		if match(k) {
			delete(m.entries, k)
			removed++
		}
	}
	CacheInvalidations.WithLabelValues("matching").Inc()
	CacheEntries.WithLabelValues("memory").Set(float64(len(m.entries)))
	return removed, nil
}

// Stats returns entry counts, total and per TTL class.
// Expired-but-not-yet-collected entries are not counted.
func (m *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{PerClass: make(map[TTLClass]int)}
	now := m.now()
	for _, entry := range m.entries {
		if entry.IsExpired(now) {
			continue
		}
		stats.TotalEntries++
		stats.PerClass[entry.Class]++
	}
	return stats, nil
}
