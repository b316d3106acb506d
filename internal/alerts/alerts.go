// Package alerts evaluates threshold rules against every telemetry sample
// and pushes best-effort notifications when a rule fires.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"hostpulse/internal/models"
	"hostpulse/internal/utils"
)

// DefaultCooldown throttles repeated firings of the same rule.
const DefaultCooldown = 5 * time.Minute

// Metric names a SystemStats field a rule can watch.
type Metric string

const (
	MetricCPU       Metric = "cpu"
	MetricRAM       Metric = "ram"
	MetricNetIn     Metric = "net_in"
	MetricNetOut    Metric = "net_out"
	MetricDiskRead  Metric = "disk_read"
	MetricDiskWrite Metric = "disk_write"
	MetricHealth    Metric = "health"
)

// Rule fires when the watched metric crosses Threshold. Below inverts the
// comparison (used for health, which degrades downward).
type Rule struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name" validate:"required"`
	Metric    Metric        `json:"metric" validate:"required,oneof=cpu ram net_in net_out disk_read disk_write health"`
	Threshold float64       `json:"threshold" validate:"gte=0"`
	Below     bool          `json:"below"`
	Cooldown  time.Duration `json:"cooldown"`
}

// Notifier delivers a fired alert. Delivery is best-effort; the evaluator
// logs failures and moves on.
type Notifier interface {
	Notify(title, message string) error
}

// Evaluator checks each sample against its rules. Implements the engine's
// Observer; the threshold pass is cheap and runs inline, delivery is handed
// off so a slow webhook never stalls the sampling loop.
type Evaluator struct {
	mu        sync.Mutex
	rules     []Rule
	lastFired map[uuid.UUID]time.Time
	notifier  Notifier
	log       *utils.Logger
	validate  *validator.Validate
}

func NewEvaluator(notifier Notifier, log *utils.Logger) *Evaluator {
	return &Evaluator{
		lastFired: make(map[uuid.UUID]time.Time),
		notifier:  notifier,
		log:       log,
		validate:  validator.New(),
	}
}

// AddRule validates and registers a rule, assigning an ID when missing.
func (e *Evaluator) AddRule(rule Rule) (Rule, error) {
	if err := e.validate.Struct(rule); err != nil {
		return Rule{}, fmt.Errorf("invalid alert rule: %w", err)
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if rule.Cooldown <= 0 {
		rule.Cooldown = DefaultCooldown
	}
	e.mu.Lock()
	e.rules = append(e.rules, rule)
	e.mu.Unlock()
	return rule, nil
}

// Rules returns a copy of the registered rules.
func (e *Evaluator) Rules() []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// OnSample evaluates every rule against the sample.
func (e *Evaluator) OnSample(stats models.SystemStats) {
	e.checkAt(stats, time.Now())
}

func (e *Evaluator) checkAt(stats models.SystemStats, now time.Time) {
	e.mu.Lock()
	var fired []Rule
	for _, rule := range e.rules {
		if !rule.matches(stats) {
			continue
		}
		if last, ok := e.lastFired[rule.ID]; ok && now.Sub(last) < rule.Cooldown {
			continue
		}
		e.lastFired[rule.ID] = now
		fired = append(fired, rule)
	}
	e.mu.Unlock()

	for _, rule := range fired {
		e.deliver(rule, stats)
	}
}

func (r Rule) matches(stats models.SystemStats) bool {
	value, ok := metricValue(r.Metric, stats)
	if !ok {
		return false
	}
	if r.Below {
		return value < r.Threshold
	}
	return value > r.Threshold
}

func metricValue(m Metric, stats models.SystemStats) (float64, bool) {
	switch m {
	case MetricCPU:
		return stats.CPU, true
	case MetricRAM:
		return stats.RAM, true
	case MetricNetIn:
		return stats.NetInMBs, true
	case MetricNetOut:
		return stats.NetOutMBs, true
	case MetricDiskRead:
		return stats.DiskReadMBs, true
	case MetricDiskWrite:
		return stats.DiskWriteMBs, true
	case MetricHealth:
		return float64(stats.Health), true
	default:
		return 0, false
	}
}

func (e *Evaluator) deliver(rule Rule, stats models.SystemStats) {
	value, _ := metricValue(rule.Metric, stats)
	direction := "above"
	if rule.Below {
		direction = "below"
	}
	message := fmt.Sprintf("%s is %.2f, %s threshold %.2f (sampled %s)",
		rule.Metric, value, direction, rule.Threshold, stats.Timestamp)
	if e.notifier == nil {
		return
	}
	go func() {
		if err := e.notifier.Notify(rule.Name, message); err != nil && e.log != nil {
			e.log.Write(fmt.Sprintf("alerts: notify failed for %q: %v", rule.Name, err))
		}
	}()
}
