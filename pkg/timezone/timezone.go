// Package timezone resolves station-local time from the two offset
// sources the portal exposes: a nominal "GMT±N" descriptor configured
// per station (standard time, no DST) and a live offset-in-minutes
// field in current telemetry (reflects DST when active).
//
// Resolution never feeds cache correctness: hour tracking in pkg/client
// deliberately uses process wall-clock so one client can manage
// stations across many zones.
package timezone

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrBadDescriptor indicates a timezone descriptor that does not match
// the "GMT±N" form. Callers recover by falling back to UTC; it never
// propagates out of a station load.
var ErrBadDescriptor = fmt.Errorf("malformed timezone descriptor")

// ParseGMTOffset parses a nominal descriptor of the form "GMT+8" or
// "GMT-11" into a standard-time hour offset.
func ParseGMTOffset(descriptor string) (int, error) {
	s := strings.TrimSpace(descriptor)
	if !strings.HasPrefix(strings.ToUpper(s), "GMT") {
		return 0, fmt.Errorf("%w: %q", ErrBadDescriptor, descriptor)
	}

	rest := strings.TrimSpace(s[3:])
	if rest == "" {
		// Bare "GMT" means UTC
		return 0, nil
	}

	hours, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadDescriptor, descriptor)
	}
	if hours < -12 || hours > 14 {
		return 0, fmt.Errorf("%w: offset %d out of range", ErrBadDescriptor, hours)
	}
	return hours, nil
}

// Resolver holds a station's canonical offsets.
type Resolver struct {
	// BaseOffsetHours is the standard-time offset from the station's
	// configured descriptor (e.g. -8 for "GMT-8").
	BaseOffsetHours int

	// LiveOffsetMinutes is the offset reported by current telemetry,
	// source of truth for the instant's actual UTC offset. Nil when
	// telemetry did not include it.
	LiveOffsetMinutes *int
}

// NewResolver parses the nominal descriptor and pairs it with the live
// offset. A malformed descriptor fails closed to UTC (base 0) rather
// than aborting the station load.
func NewResolver(descriptor string, liveOffsetMinutes *int) Resolver {
	base, err := ParseGMTOffset(descriptor)
	if err != nil {
		base = 0
	}
	return Resolver{
		BaseOffsetHours:   base,
		LiveOffsetMinutes: liveOffsetMinutes,
	}
}

// LocalDate derives the station-local calendar date from UTC now and
// the live offset. Diagnostics only; never used for cache decisions.
func (r Resolver) LocalDate(utcNow time.Time) string {
	offset := time.Duration(r.BaseOffsetHours) * time.Hour
	if r.LiveOffsetMinutes != nil {
		offset = time.Duration(*r.LiveOffsetMinutes) * time.Minute
	}
	return utcNow.Add(offset).Format("2006-01-02")
}

// DetectDST computes the expected DST state from the resolver's offsets.
func (r Resolver) DetectDST() Status {
	return Detect(r.BaseOffsetHours, r.LiveOffsetMinutes)
}
