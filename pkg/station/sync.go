package station

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/solarfleet/pvcloud/pkg/timezone"
)

var dstSyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pvcloud_dst_syncs_total",
	Help: "DST reconciliation outcomes by result",
}, []string{"result"}) // "match", "corrected", "unknown", "failed"

// DSTUpdater is the remote write capability the synchronizer consumes,
// implemented by client.Client.
type DSTUpdater interface {
	UpdateDST(ctx context.Context, stationID int64, enabled bool) error
}

// Synchronizer reconciles a station's remotely stored DST flag against
// the state computed from its offsets. The computed state is never
// treated as unconditional ground truth: when it is unknown the remote
// flag is left alone, and a failed corrective write leaves the station
// at its previous value.
type Synchronizer struct {
	updater DSTUpdater
	logger  zerolog.Logger
	now     func() time.Time

	// lastReported remembers, per station, the reported flag after the
	// most recent reconciliation, so repeated syncs in one process
	// don't re-detect and re-correct a mismatch they just fixed.
	mu           sync.Mutex
	lastReported map[int64]bool
}

// NewSynchronizer creates a DST synchronizer.
func NewSynchronizer(updater DSTUpdater) *Synchronizer {
	return &Synchronizer{
		updater:      updater,
		logger:       log.With().Str("component", "dst-sync").Logger(),
		now:          time.Now,
		lastReported: make(map[int64]bool),
	}
}

// Sync compares the station's computed DST state with the reported flag
// and issues at most one corrective write when they disagree. Runs once
// per top-level station load; idempotent with unchanged offsets.
// Never fatal to the station load.
func (s *Synchronizer) Sync(ctx context.Context, st *Station) {
	expected := st.Resolver().DetectDST()

	if expected == timezone.StatusUnknown {
		// Live offset missing or inputs unparsable - never guess.
		s.logger.Debug().
			Int64("station_id", st.ID).
			Str("timezone", st.Timezone).
			Msg("DST state unknown - leaving remote flag alone")
		dstSyncsTotal.WithLabelValues("unknown").Inc()
		return
	}

	expectedFlag := expected == timezone.StatusActive

	reported := st.DSTEnabled
	s.mu.Lock()
	if last, ok := s.lastReported[st.ID]; ok {
		reported = last
	}
	s.mu.Unlock()

	if expectedFlag == reported {
		// Verified explicitly: no remote write issued.
		s.logger.Debug().
			Int64("station_id", st.ID).
			Bool("dst", reported).
			Msg("DST flag matches computed state")
		dstSyncsTotal.WithLabelValues("match").Inc()
		s.remember(st, reported)
		return
	}

	s.logger.Info().
		Int64("station_id", st.ID).
		Bool("reported", reported).
		Bool("expected", expectedFlag).
		Str("timezone", st.Timezone).
		Msg("DST flag mismatch - issuing correction")

	if err := s.updater.UpdateDST(ctx, st.ID, expectedFlag); err != nil {
		// Non-fatal: the station proceeds with its prior flag and the
		// correction is retried on the next station load, never in a
		// tight loop.
		s.logger.Warn().
			Err(err).
			Int64("station_id", st.ID).
			Msg("DST correction failed - keeping previous flag")
		dstSyncsTotal.WithLabelValues("failed").Inc()
		return
	}

	st.DSTEnabled = expectedFlag
	dstSyncsTotal.WithLabelValues("corrected").Inc()
	s.remember(st, expectedFlag)
}

// remember records the last known reported flag and stamps the station.
func (s *Synchronizer) remember(st *Station, reported bool) {
	s.mu.Lock()
	s.lastReported[st.ID] = reported
	s.mu.Unlock()
	st.LastSyncedAt = s.now()
}
