package cache

import (
	"fmt"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a cached portal response.
type CacheKey struct {
	// Endpoint is the portal endpoint path (e.g., "/v1/station/detail")
	Endpoint string

	// Params are the request parameters (e.g., {"stationId": "4711"})
	Params map[string]string

	// DeviceSN is the device serial for device-scoped endpoints
	// (empty for station-level requests). Keeping the serial in the
	// key string is what makes InvalidateMatching after a device
	// write possible.
	DeviceSN string
}

// String generates a deterministic cache key string.
// Format: pvc:endpoint:param1=val1:param2=val2:sn=SERIAL
//
// Example:
//
//	pvc:v1/station/detail:stationId=4711
func (k CacheKey) String() string {
	parts := []string{"pvc"}

	// Add endpoint (normalize path)
	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Add params (sorted for determinism)
	if len(k.Params) > 0 {
		keys := make([]string, 0, len(k.Params))
		for key := range k.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Params[key]))
		}
	}

	// Add device serial if device-scoped
	if k.DeviceSN != "" {
		parts = append(parts, fmt.Sprintf("sn=%s", k.DeviceSN))
	}

	return strings.Join(parts, ":")
}
