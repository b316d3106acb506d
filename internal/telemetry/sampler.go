package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hostpulse/internal/models"
	"hostpulse/internal/utils"
)

const bytesPerGB = 1024 * 1024 * 1024

// Sampler produces one SystemStats per tick. The metric groups are read
// concurrently and independently; a failed group is logged and replaced
// with neutral defaults so the tick always yields a data point. Tick
// advances the RateComputer's previous-sample state, so it is not
// idempotent and must only be called from the engine's sampling loop.
type Sampler struct {
	source Source
	rates  *RateComputer
	log    *utils.Logger
}

func NewSampler(source Source, log *utils.Logger) *Sampler {
	return &Sampler{
		source: source,
		rates:  NewRateComputer(),
		log:    log,
	}
}

// Tick reads all metric groups, computes rates and the health score, and
// assembles the sample.
func (s *Sampler) Tick(ctx context.Context) models.SystemStats {
	return s.tickAt(ctx, time.Now().UTC())
}

func (s *Sampler) tickAt(ctx context.Context, now time.Time) models.SystemStats {
	var (
		wg sync.WaitGroup

		cpuLoad           float64
		memUsed, memTotal uint64
		netCounters       []NetCounter
		diskCounters      DiskCounters
		uptime            uint64
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		load, err := s.source.CurrentLoad(ctx)
		if err != nil {
			s.logf("telemetry: cpu load read failed: %v", err)
			return
		}
		cpuLoad = clampFloat(load, 0, 100)
	}()
	go func() {
		defer wg.Done()
		used, total, err := s.source.Memory(ctx)
		if err != nil {
			s.logf("telemetry: memory read failed: %v", err)
			return
		}
		memUsed, memTotal = used, total
	}()
	go func() {
		defer wg.Done()
		counters, err := s.source.NetworkCounters(ctx)
		if err != nil {
			s.logf("telemetry: network counters read failed: %v", err)
			return
		}
		netCounters = counters
	}()
	go func() {
		defer wg.Done()
		counters, err := s.source.DiskCounters(ctx)
		if err != nil {
			s.logf("telemetry: disk counters read failed: %v", err)
			return
		}
		diskCounters = counters
	}()
	go func() {
		defer wg.Done()
		secs, err := s.source.UptimeSeconds(ctx)
		if err != nil {
			s.logf("telemetry: uptime read failed: %v", err)
			return
		}
		uptime = secs
	}()
	wg.Wait()

	rates := s.rates.Advance(netCounters, diskCounters, now)

	var ramPercent float64
	if memTotal > 0 {
		ramPercent = clampFloat(float64(memUsed)/float64(memTotal)*100, 0, 100)
	}

	return models.SystemStats{
		CPU:          cpuLoad,
		RAM:          ramPercent,
		MemUsedGB:    float64(memUsed) / bytesPerGB,
		MemTotalGB:   float64(memTotal) / bytesPerGB,
		NetInMBs:     rates.NetIn,
		NetOutMBs:    rates.NetOut,
		DiskReadMBs:  rates.DiskRead,
		DiskWriteMBs: rates.DiskWrite,
		Timestamp:    now.Format(time.RFC3339),
		Health:       HealthScore(cpuLoad, memUsed, memTotal),
		Uptime:       FormatUptime(uptime),
		SampledAt:    now,
	}
}

func (s *Sampler) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Write(fmt.Sprintf(format, args...))
	}
}

// FormatUptime renders seconds since boot as "3d 4h 12m". Sub-minute
// uptimes render as "0m".
func FormatUptime(seconds uint64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
