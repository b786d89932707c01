package client

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/solarfleet/pvcloud/pkg/cache"
)

// fakeTransport records requests and serves canned payloads.
type fakeTransport struct {
	mu       sync.Mutex
	requests []fakeRequest
	payload  []byte
	err      error
}

type fakeRequest struct {
	Method string
	Path   string
	Params map[string]string
}

func (f *fakeTransport) Request(ctx context.Context, method, path string, params map[string]string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, fakeRequest{Method: method, Path: path, Params: params})
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeTransport) last() fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// testClock is a settable clock for driving hour boundaries.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 8, 25, 10, 15, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestClient(t *testing.T, transport Transport, clock *testClock) *Client {
	t.Helper()
	c, err := New(Config{
		UserAgent: "pvcloud-test/0.0.0",
		Transport: transport,
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{UserAgent: "x"}); err == nil {
		t.Error("New without base URL or transport should fail")
	}
	if _, err := New(Config{BaseURL: "http://example.com"}); err == nil {
		t.Error("New without user-agent should fail")
	}
	if _, err := New(DefaultConfig("http://example.com", "x/1.0")); err != nil {
		t.Errorf("New with defaults failed: %v", err)
	}
}

func TestClient_Fetch_CachesResponse(t *testing.T) {
	transport := &fakeTransport{payload: []byte(`{"id": 4711}`)}
	clock := newTestClock()
	c := newTestClient(t, transport, clock)
	ctx := context.Background()

	key := cache.CacheKey{Endpoint: "/v1/station/detail", Params: map[string]string{"stationId": "4711"}}

	for i := 0; i < 5; i++ {
		payload, err := c.Fetch(ctx, key, cache.TTLDiscovery)
		if err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
		if string(payload) != `{"id": 4711}` {
			t.Errorf("Fetch %d = %s", i, payload)
		}
	}

	if transport.count() != 1 {
		t.Errorf("transport calls = %d, want 1 (rest served from cache)", transport.count())
	}
}

func TestClient_Fetch_ExpiredEntryRefetches(t *testing.T) {
	transport := &fakeTransport{payload: []byte(`{"w": 4200}`)}
	clock := newTestClock()
	c := newTestClient(t, transport, clock)
	ctx := context.Background()

	// MemoryStore shares the client's clock for expiry
	c.cache.(*cache.MemoryStore).SetClock(clock.Now)

	key := cache.CacheKey{Endpoint: "/v1/device/currentData", DeviceSN: "INV1"}

	if _, err := c.Fetch(ctx, key, cache.TTLRealtime); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	clock.Advance(30 * time.Second)
	if _, err := c.Fetch(ctx, key, cache.TTLRealtime); err != nil {
		t.Fatalf("Fetch after expiry failed: %v", err)
	}

	if transport.count() != 2 {
		t.Errorf("transport calls = %d, want 2 (entry expired)", transport.count())
	}
}

func TestClient_Fetch_HourBoundaryFlush(t *testing.T) {
	transport := &fakeTransport{payload: []byte(`{}`)}
	clock := newTestClock()
	c := newTestClient(t, transport, clock)
	ctx := context.Background()

	key := cache.CacheKey{Endpoint: "/v1/station/list"}

	// Several requests within one hour: one upstream fetch
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(ctx, key, cache.TTLDiscovery); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		clock.Advance(time.Minute)
	}
	if transport.count() != 1 {
		t.Fatalf("transport calls within one hour = %d, want 1", transport.count())
	}

	// Crossing the boundary forces exactly one fresh fetch
	clock.Advance(time.Hour)
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(ctx, key, cache.TTLDiscovery); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
	}
	if transport.count() != 2 {
		t.Errorf("transport calls after boundary = %d, want 2", transport.count())
	}
}

func TestClient_Fetch_NBoundariesNFlushes(t *testing.T) {
	transport := &fakeTransport{payload: []byte(`{}`)}
	clock := newTestClock()
	c := newTestClient(t, transport, clock)
	ctx := context.Background()

	key := cache.CacheKey{Endpoint: "/v1/station/list"}

	const crossings = 4
	for i := 0; i <= crossings; i++ {
		if _, err := c.Fetch(ctx, key, cache.TTLDiscovery); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		clock.Advance(time.Hour)
	}

	// Initial fetch plus one refetch per crossing; the unset-to-first-hour
	// transition fires zero times.
	if transport.count() != crossings+1 {
		t.Errorf("transport calls = %d, want %d", transport.count(), crossings+1)
	}
}

func TestClient_Write_InvalidatesDeviceEntries(t *testing.T) {
	transport := &fakeTransport{payload: []byte(`{"success": true}`)}
	clock := newTestClock()
	c := newTestClient(t, transport, clock)
	ctx := context.Background()

	devKey := cache.CacheKey{Endpoint: "/v1/device/paramRead", Params: map[string]string{"register": "80"}, DeviceSN: "INV123"}
	otherKey := cache.CacheKey{Endpoint: "/v1/device/paramRead", Params: map[string]string{"register": "80"}, DeviceSN: "INV999"}

	if _, err := c.Fetch(ctx, devKey, cache.TTLParameter); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if _, err := c.Fetch(ctx, otherKey, cache.TTLParameter); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	calls := transport.count()

	// A write to INV123 must drop its cached reads
	if _, err := c.Write(ctx, "/v1/device/paramWrite", map[string]string{"sn": "INV123", "register": "80", "value": "1"}, "INV123"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := c.Fetch(ctx, devKey, cache.TTLParameter); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if transport.count() != calls+2 {
		t.Errorf("transport calls = %d, want %d (write + refetch)", transport.count(), calls+2)
	}

	// The other device's cache is untouched
	if _, err := c.Fetch(ctx, otherKey, cache.TTLParameter); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if transport.count() != calls+2 {
		t.Errorf("transport calls = %d, want %d (other device still cached)", transport.count(), calls+2)
	}
}

func TestClient_UpdateDST(t *testing.T) {
	transport := &fakeTransport{payload: []byte(`{"success": true}`)}
	clock := newTestClock()
	c := newTestClient(t, transport, clock)
	ctx := context.Background()

	if err := c.UpdateDST(ctx, 4711, true); err != nil {
		t.Fatalf("UpdateDST failed: %v", err)
	}

	req := transport.last()
	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if req.Path != "/v1/station/setDst" {
		t.Errorf("path = %s", req.Path)
	}
	if req.Params["stationId"] != "4711" || req.Params["enable"] != "true" {
		t.Errorf("params = %v", req.Params)
	}
}

func TestClient_UpdateDST_InvalidatesStationEntries(t *testing.T) {
	transport := &fakeTransport{payload: []byte(`{}`)}
	clock := newTestClock()
	c := newTestClient(t, transport, clock)
	ctx := context.Background()

	key := cache.CacheKey{Endpoint: "/v1/station/detail", Params: map[string]string{"stationId": "4711"}}
	if _, err := c.Fetch(ctx, key, cache.TTLDiscovery); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	calls := transport.count()

	if err := c.UpdateDST(ctx, 4711, false); err != nil {
		t.Fatalf("UpdateDST failed: %v", err)
	}

	if _, err := c.Fetch(ctx, key, cache.TTLDiscovery); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if transport.count() != calls+2 {
		t.Errorf("transport calls = %d, want %d (station detail refetched)", transport.count(), calls+2)
	}
}

func TestClient_CacheStats(t *testing.T) {
	transport := &fakeTransport{payload: []byte(`{}`)}
	clock := newTestClock()
	c := newTestClient(t, transport, clock)
	ctx := context.Background()

	if _, err := c.Fetch(ctx, cache.CacheKey{Endpoint: "/v1/station/list"}, cache.TTLDiscovery); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	stats, err := c.CacheStats(ctx)
	if err != nil {
		t.Fatalf("CacheStats failed: %v", err)
	}
	if stats.TotalEntries != 1 || stats.PerClass[cache.TTLDiscovery] != 1 {
		t.Errorf("stats = %+v, want one discovery entry", stats)
	}
}
