package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSystemStatsWireFormat(t *testing.T) {
	stats := SystemStats{
		CPU:       42.5,
		RAM:       25,
		Timestamp: "2026-08-30T12:00:00Z",
		Health:    95,
		Uptime:    "3d 4h 12m",
		SampledAt: time.Now(),
	}
	b, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(b)
	for _, key := range []string{`"cpu"`, `"ram"`, `"net_in_mbs"`, `"disk_write_mbs"`, `"health"`, `"uptime"`} {
		if !strings.Contains(body, key) {
			t.Fatalf("expected key %s in payload: %s", key, body)
		}
	}
	// SampledAt is internal bookkeeping, never serialized to clients.
	if strings.Contains(body, "SampledAt") || strings.Contains(body, "sampled_at") {
		t.Fatalf("SampledAt leaked into wire format: %s", body)
	}
}
