// Package station models monitored installations and implements the
// once-per-load DST reconciliation and the fan-out telemetry refresh.
package station

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/solarfleet/pvcloud/pkg/cache"
	"github.com/solarfleet/pvcloud/pkg/timezone"
)

// Device is one inverter (or logger) belonging to a station.
type Device struct {
	SN   string `json:"sn"`
	Type string `json:"type"`
}

// Station is a monitored installation identified by a remote plant ID.
type Station struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// Timezone is the nominal descriptor configured in the portal,
	// e.g. "GMT-8". Standard time, never DST-adjusted.
	Timezone string `json:"timezone"`

	// LiveOffsetMinutes is the UTC offset reported by current
	// telemetry; reflects DST when active. Nil when absent.
	LiveOffsetMinutes *int `json:"tzOffsetMin"`

	// DSTEnabled is the DST flag as reported by the portal.
	DSTEnabled bool `json:"dstEnabled"`

	Devices []Device `json:"devices"`

	// LastSyncedAt is when the DST flag was last reconciled.
	LastSyncedAt time.Time `json:"-"`
}

// Resolver returns the station's timezone resolver. A malformed
// descriptor falls back to UTC rather than failing the load.
func (s *Station) Resolver() timezone.Resolver {
	return timezone.NewResolver(s.Timezone, s.LiveOffsetMinutes)
}

// ParseDetail decodes a station detail payload from the portal.
func ParseDetail(data []byte) (*Station, error) {
	var st Station
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse station detail: %w", err)
	}
	if st.ID == 0 {
		return nil, fmt.Errorf("parse station detail: missing station id")
	}
	return &st, nil
}

// Portal is the cached read capability the loader consumes,
// implemented by client.Client.
type Portal interface {
	Fetch(ctx context.Context, key cache.CacheKey, class cache.TTLClass) ([]byte, error)
}

// Loader loads stations from the portal and reconciles their DST state
// once per top-level load.
type Loader struct {
	portal Portal
	sync   *Synchronizer
}

// NewLoader creates a station loader. The synchronizer may be shared
// across loaders so its per-station reconciliation memory is process
// wide.
func NewLoader(portal Portal, sync *Synchronizer) *Loader {
	return &Loader{portal: portal, sync: sync}
}

// Load fetches a station's detail (discovery TTL) and runs the DST
// reconciliation. DST problems never fail the load.
func (l *Loader) Load(ctx context.Context, stationID int64) (*Station, error) {
	key := cache.CacheKey{
		Endpoint: "/v1/station/detail",
		Params:   map[string]string{"stationId": fmt.Sprintf("%d", stationID)},
	}

	data, err := l.portal.Fetch(ctx, key, cache.TTLDiscovery)
	if err != nil {
		return nil, fmt.Errorf("load station %d: %w", stationID, err)
	}

	st, err := ParseDetail(data)
	if err != nil {
		return nil, err
	}

	l.sync.Sync(ctx, st)
	return st, nil
}
