// Package telemetry samples host resource counters on a fixed cadence,
// derives throughput rates and a health score, keeps a bounded in-memory
// history for live dashboards, and fans each sample out to registered
// observers. Persistence of downsampled snapshots runs on a slower cadence
// inside the same sampling loop.
package telemetry

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// NetCounter is one interface's cumulative traffic counters.
type NetCounter struct {
	Name    string
	RxBytes uint64
	TxBytes uint64
	Up      bool
}

// DiskCounters holds cumulative disk throughput counters. IO counters come
// from the block layer; FS counters are a filesystem-level fallback used
// when the block layer reports no activity (some virtualized hosts expose
// only one of the two). HostSource supplies only the block-layer fields;
// the FS fields are there for providers that can read filesystem byte
// counters instead.
type DiskCounters struct {
	IOReadBytes  uint64
	IOWriteBytes uint64
	FSReadBytes  uint64
	FSWriteBytes uint64
}

// Per-group metric capabilities. Each call may fail independently; the
// sampler substitutes neutral defaults so a flaky group never aborts a tick.
type (
	LoadSource interface {
		CurrentLoad(ctx context.Context) (float64, error)
	}
	MemorySource interface {
		Memory(ctx context.Context) (active, total uint64, err error)
	}
	NetworkSource interface {
		NetworkCounters(ctx context.Context) ([]NetCounter, error)
	}
	DiskSource interface {
		DiskCounters(ctx context.Context) (DiskCounters, error)
	}
	UptimeSource interface {
		UptimeSeconds(ctx context.Context) (uint64, error)
	}
)

// Source is the full metrics provider consumed by the Sampler.
type Source interface {
	LoadSource
	MemorySource
	NetworkSource
	DiskSource
	UptimeSource
}

// HostSource reads live OS counters via gopsutil.
type HostSource struct{}

func NewHostSource() *HostSource {
	return &HostSource{}
}

func (s *HostSource) CurrentLoad(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}

func (s *HostSource) Memory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	return vm.Used, vm.Total, nil
}

func (s *HostSource) NetworkCounters(ctx context.Context) ([]NetCounter, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, err
	}
	states := interfaceStates(ctx)
	out := make([]NetCounter, 0, len(counters))
	for _, ctr := range counters {
		out = append(out, NetCounter{
			Name:    ctr.Name,
			RxBytes: ctr.BytesRecv,
			TxBytes: ctr.BytesSent,
			Up:      states[ctr.Name],
		})
	}
	return out, nil
}

// interfaceStates maps interface name to operational "up". Best-effort: when
// the interface list is unavailable every counter is treated as down and the
// selection heuristic falls back to the first interface.
func interfaceStates(ctx context.Context) map[string]bool {
	ifaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil
	}
	states := make(map[string]bool, len(ifaces))
	for _, iface := range ifaces {
		up := false
		for _, flag := range iface.Flags {
			if strings.EqualFold(flag, "up") {
				up = true
				break
			}
		}
		states[iface.Name] = up
	}
	return states
}

func (s *HostSource) DiskCounters(ctx context.Context) (DiskCounters, error) {
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return DiskCounters{}, err
	}
	var out DiskCounters
	for _, ctr := range counters {
		out.IOReadBytes += ctr.ReadBytes
		out.IOWriteBytes += ctr.WriteBytes
	}
	return out, nil
}

func (s *HostSource) UptimeSeconds(ctx context.Context) (uint64, error) {
	return host.UptimeWithContext(ctx)
}
