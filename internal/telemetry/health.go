package telemetry

import "math"

const (
	highLoadThreshold       = 80.0 // CPU percent above which the flat penalty applies
	highMemoryThreshold     = 0.90 // memory utilization ratio above which the flat penalty applies
	highLoadPenalty         = 20.0
	highMemoryPenalty       = 20.0
	proportionalLoadDivisor = 10.0
)

// HealthScore derives a 0-100 composite score from CPU load and memory
// pressure. Baseline 100, minus a flat penalty for sustained high CPU,
// minus a flat penalty for high memory pressure, minus a proportional
// penalty of load/10. The result is clamped into [0,100] and rounded to
// the nearest integer. A heuristic for dashboards, not an SLA metric.
func HealthScore(cpuLoadPercent float64, memActiveBytes, memTotalBytes uint64) int {
	score := 100.0
	if cpuLoadPercent > highLoadThreshold {
		score -= highLoadPenalty
	}
	if memTotalBytes > 0 && float64(memActiveBytes)/float64(memTotalBytes) > highMemoryThreshold {
		score -= highMemoryPenalty
	}
	score -= cpuLoadPercent / proportionalLoadDivisor
	return int(math.Round(clampFloat(score, 0, 100)))
}

func clampFloat(val, min, max float64) float64 {
	if math.IsNaN(val) {
		return min
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
