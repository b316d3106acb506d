package telemetry

import "time"

const bytesPerMB = 1024 * 1024

// Rates are instantaneous throughput values for one tick, in MB/s.
type Rates struct {
	NetIn     float64
	NetOut    float64
	DiskRead  float64
	DiskWrite float64
}

// RateComputer turns consecutive cumulative counter readings into MB/s
// rates. It owns the previous-sample state; exactly one goroutine (the
// engine's sampling loop) may call Advance.
type RateComputer struct {
	prevNet  map[string]NetCounter
	prevDisk DiskCounters
	prevAt   time.Time
	hasPrev  bool
}

func NewRateComputer() *RateComputer {
	return &RateComputer{}
}

// Advance computes rates from the delta between the given counters and the
// previous call's, then replaces the previous-sample state. The first call
// has no reference point and returns zero rates. Counters that went
// backwards (reset or wraparound) also yield zero, never a negative rate.
func (r *RateComputer) Advance(netCounters []NetCounter, diskCounters DiskCounters, now time.Time) Rates {
	var rates Rates
	if r.hasPrev {
		elapsed := now.Sub(r.prevAt).Seconds()
		if elapsed > 0 {
			rates.NetIn, rates.NetOut = r.networkRates(netCounters, elapsed)
			rates.DiskRead, rates.DiskWrite = r.diskRates(diskCounters, elapsed)
		}
	}

	prev := make(map[string]NetCounter, len(netCounters))
	for _, ctr := range netCounters {
		prev[ctr.Name] = ctr
	}
	r.prevNet = prev
	r.prevDisk = diskCounters
	r.prevAt = now
	r.hasPrev = true
	return rates
}

func (r *RateComputer) networkRates(counters []NetCounter, elapsed float64) (float64, float64) {
	current, ok := pickInterface(counters)
	if !ok {
		return 0, 0
	}
	prev, ok := r.prevNet[current.Name]
	if !ok {
		// Selection flipped to an interface we have no reference for; one
		// zero-rate tick beats a delta against an unrelated counter.
		return 0, 0
	}
	in := counterRate(current.RxBytes, prev.RxBytes, elapsed)
	out := counterRate(current.TxBytes, prev.TxBytes, elapsed)
	return in, out
}

// pickInterface selects the primary interface: the first operationally up
// one with nonzero cumulative traffic, falling back to the first reported.
// On multi-homed hosts the pick can flip between ticks; networkRates guards
// against cross-interface deltas by matching on name.
func pickInterface(counters []NetCounter) (NetCounter, bool) {
	if len(counters) == 0 {
		return NetCounter{}, false
	}
	for _, ctr := range counters {
		if ctr.Up && (ctr.RxBytes > 0 || ctr.TxBytes > 0) {
			return ctr, true
		}
	}
	return counters[0], true
}

func (r *RateComputer) diskRates(current DiskCounters, elapsed float64) (float64, float64) {
	// Prefer the block-layer counters; fall back to filesystem-level bytes
	// when the block layer reports no activity at all.
	if current.IOReadBytes > 0 || current.IOWriteBytes > 0 {
		read := counterRate(current.IOReadBytes, r.prevDisk.IOReadBytes, elapsed)
		write := counterRate(current.IOWriteBytes, r.prevDisk.IOWriteBytes, elapsed)
		return read, write
	}
	read := counterRate(current.FSReadBytes, r.prevDisk.FSReadBytes, elapsed)
	write := counterRate(current.FSWriteBytes, r.prevDisk.FSWriteBytes, elapsed)
	return read, write
}

// counterRate converts a cumulative byte counter delta into MB/s, clamped to
// zero when the counter went backwards.
func counterRate(current, prev uint64, elapsed float64) float64 {
	if current < prev {
		return 0
	}
	return float64(current-prev) / elapsed / bytesPerMB
}
