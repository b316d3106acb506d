package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hostpulse/internal/models"
	"hostpulse/internal/utils"
)

const (
	// DefaultSampleInterval is the fast cadence driving sampling and fan-out.
	DefaultSampleInterval = time.Second
	// DefaultPersistEvery is how many fast ticks elapse between persisted
	// snapshots (300 x 1s = 5 minutes).
	DefaultPersistEvery = 300
	// DefaultRetention is how long persisted snapshots are kept.
	DefaultRetention = 30 * 24 * time.Hour
)

// Observer receives every sample produced by the engine's loop. The
// websocket broadcaster and the alert evaluator both register through this.
// OnSample runs on the sampling goroutine; slow observers should hand off.
type Observer interface {
	OnSample(stats models.SystemStats)
}

// SnapshotStore persists downsampled samples and prunes aged ones. Both
// operations are best-effort from the engine's point of view: failures are
// logged and the next cycle retries naturally.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, stats models.SystemStats) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Options tune the engine's cadences and retention window. Zero values
// fall back to the defaults above.
type Options struct {
	SampleInterval time.Duration
	PersistEvery   int
	Retention      time.Duration
	HistorySize    int
}

// Engine owns all mutable sampling state: the rate computer's previous
// sample, the history ring, and the latest assembled SystemStats. A single
// goroutine started by Start performs every tick; persistence piggybacks on
// that loop every Nth tick and reuses the tick's already-computed sample
// rather than re-sampling, so no second writer ever touches the counters.
type Engine struct {
	sampler *Sampler
	history *History
	store   SnapshotStore
	log     *utils.Logger

	interval     time.Duration
	persistEvery int
	retention    time.Duration

	mu        sync.RWMutex
	observers []Observer
	latest    *models.SystemStats
	stop      chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewEngine(source Source, store SnapshotStore, log *utils.Logger, opts Options) *Engine {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}
	if opts.PersistEvery <= 0 {
		opts.PersistEvery = DefaultPersistEvery
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	return &Engine{
		sampler:      NewSampler(source, log),
		history:      NewHistory(opts.HistorySize),
		store:        store,
		log:          log,
		interval:     opts.SampleInterval,
		persistEvery: opts.PersistEvery,
		retention:    opts.Retention,
	}
}

// AddObserver registers a fan-out target for future samples.
func (e *Engine) AddObserver(obs Observer) {
	if obs == nil {
		return
	}
	e.mu.Lock()
	e.observers = append(e.observers, obs)
	e.mu.Unlock()
}

// Start launches the sampling loop. Calling Start while already running is
// a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.stop != nil {
		e.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	e.stop = stop
	e.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx, stop)
	}()
}

// Stop cancels the sampling loop and waits for it to exit. In-flight metric
// reads are cancelled; their tick's results are discarded rather than
// written after shutdown.
func (e *Engine) Stop() {
	e.mu.Lock()
	stop := e.stop
	cancel := e.cancel
	e.stop = nil
	e.cancel = nil
	e.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	cancel()
	e.wg.Wait()
}

func (e *Engine) run(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	// Prime the rate computer so the first scheduled tick has a reference
	// point; the priming sample itself is published like any other.
	e.tick(ctx, stop, 0)

	ticks := 0
	for {
		select {
		case <-ticker.C:
			ticks++
			e.tick(ctx, stop, ticks)
		case <-stop:
			return
		}
	}
}

func (e *Engine) tick(ctx context.Context, stop chan struct{}, ticks int) {
	// Metric reads are local OS queries, but a hung one must not stall the
	// loop past its own interval.
	tickCtx, cancel := context.WithTimeout(ctx, e.interval)
	stats := e.sampler.Tick(tickCtx)
	cancel()

	// A Stop that raced the sample wins: discard instead of writing after
	// shutdown.
	select {
	case <-stop:
		return
	default:
	}

	e.mu.Lock()
	e.latest = &stats
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	e.history.Push(stats)
	for _, obs := range observers {
		obs.OnSample(stats)
	}

	if e.store != nil && ticks > 0 && ticks%e.persistEvery == 0 {
		e.persist(ctx, stats)
	}
}

// persist writes one downsampled row and prunes aged ones. Reuses the
// latest already-computed sample; never triggers a competing read of the
// rate counters.
func (e *Engine) persist(ctx context.Context, stats models.SystemStats) {
	if err := e.store.SaveSnapshot(ctx, stats); err != nil {
		e.logf("telemetry: snapshot save failed: %v", err)
	}
	cutoff := time.Now().UTC().Add(-e.retention)
	if _, err := e.store.PruneOlderThan(ctx, cutoff); err != nil {
		e.logf("telemetry: snapshot prune failed: %v", err)
	}
}

// Latest returns the most recently assembled sample, if any tick has
// completed yet.
func (e *Engine) Latest() (models.SystemStats, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.latest == nil {
		return models.SystemStats{}, false
	}
	return *e.latest, true
}

// History exposes the bounded in-memory sample ring.
func (e *Engine) History() *History {
	return e.history
}

// Running reports whether the sampling loop is active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stop != nil
}

func (e *Engine) logf(format string, args ...any) {
	if e.log != nil {
		e.log.Write(fmt.Sprintf(format, args...))
	}
}
