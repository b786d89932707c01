package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanPattern matches all keys owned by this store. Quota-tracker keys
// live under a different prefix and must survive InvalidateAll.
const scanPattern = "pvc:*"

// RedisStore is a Store backed by Redis, for deployments where several
// processes share one portal session (the proxy daemon). Redis expires
// entries on its own; the stored entry still carries StoredAt and Class
// so Stats can report per-class counts.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a cache store with Redis backend.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// Get retrieves a cached payload.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (s *RedisStore) Get(ctx context.Context, key CacheKey) ([]byte, error) {
	data, err := s.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// Redis TTL should have removed it already, but the entry's own
	// clock is authoritative.
	if entry.IsExpired(time.Now()) {
		_ = s.redis.Del(ctx, key.String()).Err()
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return entry.Data, nil
}

// Set stores a payload; the Redis key TTL mirrors the class lifetime.
func (s *RedisStore) Set(ctx context.Context, key CacheKey, payload []byte, class TTLClass) error {
	entry := &CacheEntry{
		Data:     payload,
		Class:    class,
		StoredAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, key.String(), data, class.Duration()).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// InvalidateAll drops every entry under the store's prefix.
func (s *RedisStore) InvalidateAll(ctx context.Context) error {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		CacheErrors.WithLabelValues("invalidate").Inc()
		return err
	}
	if len(keys) > 0 {
		if err := s.redis.Del(ctx, keys...).Err(); err != nil {
			CacheErrors.WithLabelValues("invalidate").Inc()
			return fmt.Errorf("redis del: %w", err)
		}
	}
	CacheInvalidations.WithLabelValues("all").Inc()
	return nil
}

// InvalidateMatching drops entries whose key matches the predicate.
func (s *RedisStore) InvalidateMatching(ctx context.Context, match Predicate) (int, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		CacheErrors.WithLabelValues("invalidate").Inc()
		return 0, err
	}

	matched := keys[:0]
	for _, k := range keys {
		if match(k) {
			matched = append(matched, k)
		}
	}
	if len(matched) > 0 {
		if err := s.redis.Del(ctx, matched...).Err(); err != nil {
			CacheErrors.WithLabelValues("invalidate").Inc()
			return 0, fmt.Errorf("redis del: %w", err)
		}
	}
	CacheInvalidations.WithLabelValues("matching").Inc()
	return len(matched), nil
}

// Stats returns entry counts, total and per TTL class.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{PerClass: make(map[TTLClass]int)}

	keys, err := s.scanKeys(ctx)
	if err != nil {
		CacheErrors.WithLabelValues("stats").Inc()
		return stats, err
	}

	for _, k := range keys {
		data, err := s.redis.Get(ctx, k).Bytes()
		if err != nil {
			// Entry expired between SCAN and GET
			continue
		}
		var entry CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		stats.TotalEntries++
		stats.PerClass[entry.Class]++
	}
	return stats, nil
}

// scanKeys collects all keys under the store's prefix.
func (s *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.redis.Scan(ctx, 0, scanPattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}
