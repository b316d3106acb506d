package telemetry

import (
	"fmt"
	"sync"
	"testing"

	"hostpulse/internal/models"
)

func statWithTimestamp(i int) models.SystemStats {
	return models.SystemStats{Timestamp: fmt.Sprintf("t%d", i)}
}

func TestHistoryBelowCapacityKeepsAll(t *testing.T) {
	h := NewHistory(5)
	for i := 0; i < 3; i++ {
		h.Push(statWithTimestamp(i))
	}
	snap := h.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap))
	}
	for i, s := range snap {
		if s.Timestamp != fmt.Sprintf("t%d", i) {
			t.Fatalf("entry %d out of order: %q", i, s.Timestamp)
		}
	}
}

func TestHistoryEvictsOldestBeyondCapacity(t *testing.T) {
	const capacity = 10
	const extra = 7
	h := NewHistory(capacity)
	for i := 0; i < capacity+extra; i++ {
		h.Push(statWithTimestamp(i))
	}
	snap := h.Snapshot()
	if len(snap) != capacity {
		t.Fatalf("expected exactly %d entries, got %d", capacity, len(snap))
	}
	for i, s := range snap {
		want := fmt.Sprintf("t%d", i+extra)
		if s.Timestamp != want {
			t.Fatalf("entry %d: expected %q, got %q", i, want, s.Timestamp)
		}
	}
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	h := NewHistory(4)
	h.Push(statWithTimestamp(0))
	snap := h.Snapshot()
	snap[0].Timestamp = "mutated"
	if got := h.Snapshot()[0].Timestamp; got != "t0" {
		t.Fatalf("snapshot mutation leaked into buffer: %q", got)
	}
}

func TestHistoryConcurrentPushAndSnapshot(t *testing.T) {
	h := NewHistory(32)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			h.Push(statWithTimestamp(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			snap := h.Snapshot()
			if len(snap) > 32 {
				t.Errorf("snapshot exceeded capacity: %d", len(snap))
				return
			}
		}
	}()
	wg.Wait()
	if h.Len() != 32 {
		t.Fatalf("expected full buffer after 500 pushes, got %d", h.Len())
	}
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < DefaultHistorySize+1; i++ {
		h.Push(statWithTimestamp(i))
	}
	if h.Len() != DefaultHistorySize {
		t.Fatalf("expected default capacity %d, got %d", DefaultHistorySize, h.Len())
	}
}
