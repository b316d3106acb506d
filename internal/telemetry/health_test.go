package telemetry

import "testing"

func TestScoreStaysInBounds(t *testing.T) {
	const total = 16 * bytesPerGB
	for cpu := 0.0; cpu <= 100; cpu += 5 {
		for used := uint64(0); used <= total; used += total / 8 {
			score := HealthScore(cpu, used, total)
			if score < 0 || score > 100 {
				t.Fatalf("score out of bounds for cpu=%f used=%d: %d", cpu, used, score)
			}
		}
	}
}

func TestScoreNonIncreasingInLoad(t *testing.T) {
	const total = 8 * bytesPerGB
	prev := 101
	for cpu := 0.0; cpu <= 100; cpu++ {
		score := HealthScore(cpu, total/2, total)
		if score > prev {
			t.Fatalf("score increased from %d to %d at cpu=%f", prev, score, cpu)
		}
		prev = score
	}
}

func TestScoreIdleSystem(t *testing.T) {
	if score := HealthScore(0, 0, 16*bytesPerGB); score != 100 {
		t.Fatalf("expected idle system to score 100, got %d", score)
	}
}

// 100 - 20 (cpu > 80) - 20 (mem > 90%) - 9.5 (95/10) = 50.5, rounded to 51.
func TestScoreBothPenalties(t *testing.T) {
	const total = 100
	if score := HealthScore(95, 95, total); score != 51 {
		t.Fatalf("expected 51 for cpu=95%% mem=95%%, got %d", score)
	}
}

func TestScoreZeroTotalMemory(t *testing.T) {
	// Missing memory reading must not divide by zero or apply the pressure penalty.
	if score := HealthScore(50, 0, 0); score != 95 {
		t.Fatalf("expected 95 with unknown memory, got %d", score)
	}
}
