package telemetry

import (
	"sync"

	"hostpulse/internal/models"
)

// DefaultHistorySize bounds the in-memory sample ring feeding live charts.
const DefaultHistorySize = 300

// History is a fixed-capacity FIFO ring of the most recent samples.
// Written only by the engine's sampling loop; read by any number of
// consumers through Snapshot.
type History struct {
	mu       sync.RWMutex
	entries  []models.SystemStats
	capacity int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		entries:  make([]models.SystemStats, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, evicting the oldest entry once capacity is reached.
func (h *History) Push(stats models.SystemStats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == h.capacity {
		copy(h.entries, h.entries[1:])
		h.entries[len(h.entries)-1] = stats
		return
	}
	h.entries = append(h.entries, stats)
}

// Snapshot returns a copy of the buffered samples in push order. Safe to
// call concurrently with Push; the caller owns the returned slice.
func (h *History) Snapshot() []models.SystemStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.SystemStats, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len reports the number of buffered samples.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
