package timezone

// Status is the tri-state result of DST detection. The unknown state
// exists so a missing or unparsable live offset is never mistaken for
// "DST off" and written back to the portal.
type Status int

const (
	// StatusUnknown means the live offset was unavailable or an input
	// failed to parse; callers must not act on it.
	StatusUnknown Status = iota

	// StatusInactive means standard time is in effect.
	StatusInactive

	// StatusActive means daylight saving time is in effect.
	StatusActive
)

// String returns a log-friendly name for the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Detect computes the expected DST state from the delta between the
// live offset and the standard-time base offset:
//
//	delta_hours = live/60 - base
//
// DST is considered active when delta_hours >= 0.5. The half-hour
// dead-band absorbs rounding in reported offsets. Regions with
// half-hour DST shifts (e.g. Lord Howe Island) are a known limitation
// and are reported as inactive.
//
// Pure function, no I/O.
func Detect(baseOffsetHours int, liveOffsetMinutes *int) Status {
	if liveOffsetMinutes == nil {
		return StatusUnknown
	}

	deltaHours := float64(*liveOffsetMinutes)/60.0 - float64(baseOffsetHours)
	if deltaHours >= 0.5 {
		return StatusActive
	}
	return StatusInactive
}
