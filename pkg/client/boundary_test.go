package client

import (
	"testing"
	"time"
)

func TestHourTracker_FirstObservationNeverFires(t *testing.T) {
	h := newHourTracker()

	now := time.Date(2026, 8, 25, 23, 59, 0, 0, time.UTC)
	if h.observe(now) {
		t.Error("first observation must not report a crossing")
	}
}

func TestHourTracker_WithinHourAtMostOnce(t *testing.T) {
	h := newHourTracker()

	base := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	h.observe(base)

	// Any sequence of requests within one wall-clock hour fires zero times
	for i := 1; i < 60; i++ {
		if h.observe(base.Add(time.Duration(i) * time.Minute)) {
			t.Fatalf("observe at +%dm reported a crossing within the same hour", i)
		}
	}
}

func TestHourTracker_FiresExactlyOncePerCrossing(t *testing.T) {
	h := newHourTracker()

	base := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)
	h.observe(base)

	const crossings = 5
	fired := 0
	now := base
	for i := 0; i < crossings; i++ {
		now = now.Add(1 * time.Hour)
		// Several requests land after each boundary; only the first fires
		for j := 0; j < 4; j++ {
			if h.observe(now.Add(time.Duration(j) * time.Minute)) {
				fired++
			}
		}
	}

	if fired != crossings {
		t.Errorf("fired %d times across %d crossings, want exactly %d", fired, crossings, crossings)
	}
}

func TestHourTracker_MidnightRollover(t *testing.T) {
	h := newHourTracker()

	h.observe(time.Date(2026, 8, 25, 23, 58, 0, 0, time.UTC))
	if !h.observe(time.Date(2026, 8, 26, 0, 1, 0, 0, time.UTC)) {
		t.Error("midnight rollover (23 -> 0) must report a crossing")
	}
}

func TestHourTracker_CadenceIndependent(t *testing.T) {
	h := newHourTracker()

	// Polling cadence far coarser than an hour still catches every boundary
	h.observe(time.Date(2026, 8, 25, 10, 15, 0, 0, time.UTC))
	if !h.observe(time.Date(2026, 8, 25, 13, 45, 0, 0, time.UTC)) {
		t.Error("multi-hour gap must still report a crossing")
	}
}
