// Package testutil provides testing utilities for the pvcloud client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock portal endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// DSTUpdate records one call to the portal's DST endpoint.
type DSTUpdate struct {
	StationID string
	Enable    string
}

// MockPortal is a configurable mock vendor portal for testing.
type MockPortal struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount  int
	PathCounts    map[string]int
	DSTUpdates    []DSTUpdate
	LastReqHeader http.Header
}

// NewMockPortal creates a new mock portal server.
func NewMockPortal() *MockPortal {
	mock := &MockPortal{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastReqHeader = r.Header.Clone()
		mock.mu.Unlock()

		if r.URL.Path == "/v1/station/setDst" {
			mock.recordDSTUpdate(r)
		}

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockPortal) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockPortal) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockPortal) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
	m.DSTUpdates = nil
	m.LastReqHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockPortal) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockPortal) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetStationDetail configures the station detail endpoint with a raw
// JSON payload.
func (m *MockPortal) SetStationDetail(body string) {
	m.SetResponse("/v1/station/detail", MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockPortal) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to one path.
func (m *MockPortal) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// GetDSTUpdates returns the recorded DST endpoint calls.
func (m *MockPortal) GetDSTUpdates() []DSTUpdate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]DSTUpdate, len(m.DSTUpdates))
	copy(out, m.DSTUpdates)
	return out
}

// recordDSTUpdate parses and stores a DST endpoint request body.
func (m *MockPortal) recordDSTUpdate(r *http.Request) {
	var params map[string]string
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		return
	}
	m.mu.Lock()
	m.DSTUpdates = append(m.DSTUpdates, DSTUpdate{
		StationID: params["stationId"],
		Enable:    params["enable"],
	})
	m.mu.Unlock()
}

// defaultHandler provides default portal-like responses.
func (m *MockPortal) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

// StationDetailJSON builds a station detail payload. liveOffsetMin may
// be nil to simulate telemetry without the live offset field.
func StationDetailJSON(id int64, tz string, liveOffsetMin *int, dstEnabled bool, serials ...string) string {
	type device struct {
		SN   string `json:"sn"`
		Type string `json:"type"`
	}
	devices := make([]device, 0, len(serials))
	for _, sn := range serials {
		devices = append(devices, device{SN: sn, Type: "inverter"})
	}
	payload := map[string]interface{}{
		"id":         id,
		"name":       "Test Station",
		"timezone":   tz,
		"dstEnabled": dstEnabled,
		"devices":    devices,
	}
	if liveOffsetMin != nil {
		payload["tzOffsetMin"] = *liveOffsetMin
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "rate limit exceeded"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// IntPtr returns a pointer to v, for live-offset test fixtures.
func IntPtr(v int) *int {
	return &v
}
