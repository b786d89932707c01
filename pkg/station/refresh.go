package station

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solarfleet/pvcloud/pkg/cache"
)

// RefreshConfig holds telemetry fan-out configuration.
type RefreshConfig struct {
	// MaxConcurrency is the maximum number of parallel device fetches.
	MaxConcurrency int

	// Timeout per device fetch.
	Timeout time.Duration
}

// DefaultRefreshConfig returns safe defaults for portal polling.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		MaxConcurrency: 5,
		Timeout:        15 * time.Second,
	}
}

// DeviceResult is the per-device outcome of a refresh. One device
// failing never fails the batch; callers inspect Err per device.
type DeviceResult struct {
	SN   string
	Data []byte
	Err  error
}

// Refresher fetches current telemetry for all devices of a station in
// parallel with a worker pool.
type Refresher struct {
	portal Portal
	config RefreshConfig
}

// NewRefresher creates a telemetry refresher.
func NewRefresher(portal Portal, config RefreshConfig) *Refresher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &Refresher{portal: portal, config: config}
}

// RefreshAll fetches telemetry for every device concurrently and
// returns per-device results keyed by serial.
func (r *Refresher) RefreshAll(ctx context.Context, devices []Device) map[string]DeviceResult {
	start := time.Now()
	results := make(map[string]DeviceResult, len(devices))

	if len(devices) == 0 {
		return results
	}

	queue := make(chan Device, len(devices))
	out := make(chan DeviceResult, len(devices))

	for _, d := range devices {
		queue <- d
	}
	close(queue)

	var wg sync.WaitGroup
	workers := r.config.MaxConcurrency
	if workers > len(devices) {
		workers = len(devices)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go r.worker(ctx, queue, out, &wg, i)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	failed := 0
	for res := range out {
		if res.Err != nil {
			failed++
		}
		results[res.SN] = res
	}

	log.Info().
		Int("devices", len(devices)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Telemetry refresh complete")

	return results
}

// worker processes devices from the queue.
func (r *Refresher) worker(ctx context.Context, queue <-chan Device, out chan<- DeviceResult, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for d := range queue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Msg("Refresh worker stopping (context cancelled)")
			return
		default:
		}

		devCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		data, err := r.portal.Fetch(devCtx, cache.CacheKey{
			Endpoint: "/v1/device/currentData",
			Params:   map[string]string{"sn": d.SN},
			DeviceSN: d.SN,
		}, cache.TTLRealtime)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Str("sn", d.SN).
				Msg("Device telemetry fetch failed")
		}

		select {
		case out <- DeviceResult{SN: d.SN, Data: data, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}
