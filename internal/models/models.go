package models

import "time"

// SystemStats is one fully-assembled telemetry sample: instantaneous
// utilization percentages, throughput rates derived from cumulative OS
// counters, and a composite health score. Immutable once built; every
// consumer (history, websocket fan-out, alerting, persistence) receives
// the same value.
type SystemStats struct {
	CPU          float64   `json:"cpu"` // percent, 0-100
	RAM          float64   `json:"ram"` // percent, 0-100
	MemUsedGB    float64   `json:"mem_used_gb"`
	MemTotalGB   float64   `json:"mem_total_gb"`
	NetInMBs     float64   `json:"net_in_mbs"`
	NetOutMBs    float64   `json:"net_out_mbs"`
	DiskReadMBs  float64   `json:"disk_read_mbs"`
	DiskWriteMBs float64   `json:"disk_write_mbs"`
	Timestamp    string    `json:"timestamp"` // RFC3339 UTC
	Health       int       `json:"health"`    // 0-100
	Uptime       string    `json:"uptime"`    // e.g. "3d 4h 12m"
	SampledAt    time.Time `json:"-"`
}

// Snapshot is one downsampled row in the persisted telemetry store.
type Snapshot struct {
	ID        int64     `json:"id"`
	CPU       float64   `json:"cpu"`
	RAM       float64   `json:"ram"`
	NetIn     float64   `json:"net_in"`
	NetOut    float64   `json:"net_out"`
	DiskRead  float64   `json:"disk_read"`
	DiskWrite float64   `json:"disk_write"`
	Timestamp time.Time `json:"timestamp"`
}
