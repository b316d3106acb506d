package alerts

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"hostpulse/internal/models"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, title)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func waitForCalls(t *testing.T, n *recordingNotifier, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if n.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d notifications, got %d", want, n.count())
}

func TestRuleFiresAboveThreshold(t *testing.T) {
	notifier := &recordingNotifier{}
	e := NewEvaluator(notifier, nil)
	if _, err := e.AddRule(Rule{Name: "High CPU", Metric: MetricCPU, Threshold: 80}); err != nil {
		t.Fatalf("add rule failed: %v", err)
	}

	e.OnSample(models.SystemStats{CPU: 50})
	time.Sleep(20 * time.Millisecond)
	if notifier.count() != 0 {
		t.Fatalf("rule fired below threshold")
	}

	e.OnSample(models.SystemStats{CPU: 95})
	waitForCalls(t, notifier, 1)
}

func TestRuleFiresBelowThreshold(t *testing.T) {
	notifier := &recordingNotifier{}
	e := NewEvaluator(notifier, nil)
	if _, err := e.AddRule(Rule{Name: "Low Health", Metric: MetricHealth, Threshold: 40, Below: true}); err != nil {
		t.Fatalf("add rule failed: %v", err)
	}

	e.OnSample(models.SystemStats{Health: 25})
	waitForCalls(t, notifier, 1)
}

func TestCooldownSuppressesRepeatedFirings(t *testing.T) {
	notifier := &recordingNotifier{}
	e := NewEvaluator(notifier, nil)
	rule, err := e.AddRule(Rule{Name: "High RAM", Metric: MetricRAM, Threshold: 90, Cooldown: time.Hour})
	if err != nil {
		t.Fatalf("add rule failed: %v", err)
	}

	now := time.Now()
	e.checkAt(models.SystemStats{RAM: 95}, now)
	e.checkAt(models.SystemStats{RAM: 96}, now.Add(time.Minute))
	waitForCalls(t, notifier, 1)
	time.Sleep(20 * time.Millisecond)
	if notifier.count() != 1 {
		t.Fatalf("cooldown did not suppress repeat firing: %d calls", notifier.count())
	}

	e.checkAt(models.SystemStats{RAM: 97}, now.Add(rule.Cooldown+time.Minute))
	waitForCalls(t, notifier, 2)
}

func TestAddRuleRejectsInvalid(t *testing.T) {
	e := NewEvaluator(nil, nil)
	if _, err := e.AddRule(Rule{Metric: MetricCPU, Threshold: 80}); err == nil {
		t.Fatalf("expected error for rule without a name")
	}
	if _, err := e.AddRule(Rule{Name: "Bad", Metric: Metric("load_average"), Threshold: 1}); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
	if _, err := e.AddRule(Rule{Name: "Neg", Metric: MetricCPU, Threshold: -1}); err == nil {
		t.Fatalf("expected error for negative threshold")
	}
}

func TestAddRuleAssignsIDAndDefaultCooldown(t *testing.T) {
	e := NewEvaluator(nil, nil)
	rule, err := e.AddRule(Rule{Name: "High CPU", Metric: MetricCPU, Threshold: 80})
	if err != nil {
		t.Fatalf("add rule failed: %v", err)
	}
	if rule.ID == uuid.Nil {
		t.Fatalf("expected generated rule ID")
	}
	if rule.Cooldown != DefaultCooldown {
		t.Fatalf("expected default cooldown, got %v", rule.Cooldown)
	}
	if len(e.Rules()) != 1 {
		t.Fatalf("expected 1 registered rule, got %d", len(e.Rules()))
	}
}
