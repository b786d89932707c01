package client

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var boundaryFlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pvcloud_hour_boundary_flushes_total",
	Help: "Total number of cache flushes forced by an hour boundary",
})

// hourTracker detects local wall-clock hour rollover. The portal resets
// daily energy counters at station-local midnight on a schedule the
// client cannot observe; flushing the cache on the first request after
// each process-local hour change bounds the extra fetches to one per
// hour regardless of polling cadence, and stays independent of any one
// station's timezone when stations in several zones are managed
// concurrently.
//
// It does not guarantee the upstream counter has actually reset by that
// fetch; it only guarantees the client never serves pre-boundary data
// past the boundary.
type hourTracker struct {
	mu       sync.Mutex
	lastHour int // 0-23, or -1 before the first observation
}

func newHourTracker() *hourTracker {
	return &hourTracker{lastHour: -1}
}

// observe records the current hour and reports whether an hour boundary
// was crossed since the previous observation. The first observation
// never reports a crossing (nothing cached yet can be stale).
func (h *hourTracker) observe(now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	hour := now.Hour()
	if h.lastHour == -1 {
		h.lastHour = hour
		return false
	}
	if hour != h.lastHour {
		h.lastHour = hour
		return true
	}
	return false
}
