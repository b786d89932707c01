package cache

import "time"

// TTLClass is a named bucket mapping to a fixed cache lifetime,
// chosen per endpoint type by the caller.
type TTLClass string

const (
	// TTLDiscovery covers station and device discovery endpoints.
	// Fleet topology changes rarely.
	TTLDiscovery TTLClass = "discovery"

	// TTLRealtime covers near-real-time telemetry reads.
	TTLRealtime TTLClass = "realtime"

	// TTLParameter covers inverter parameter register reads.
	TTLParameter TTLClass = "parameter"
)

// ttlTable maps each class to its lifetime.
var ttlTable = map[TTLClass]time.Duration{
	TTLDiscovery: 15 * time.Minute,
	TTLRealtime:  20 * time.Second,
	TTLParameter: 2 * time.Minute,
}

// DefaultTTL is the fallback lifetime for an unrecognized class.
const DefaultTTL = 1 * time.Minute

// Duration returns the cache lifetime for the class.
func (c TTLClass) Duration() time.Duration {
	if d, ok := ttlTable[c]; ok {
		return d
	}
	return DefaultTTL
}
