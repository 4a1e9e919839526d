package simulator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/splax/synthteams/internal/domain"
)

// Publisher receives every snapshot produced by the runner.
type Publisher interface {
	Publish(snapshot domain.Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(domain.Snapshot)

// Publish calls f.
func (f PublisherFunc) Publish(snapshot domain.Snapshot) {
	f(snapshot)
}

// Runner drives a Simulator from a single timer and fans snapshots out to publishers.
type Runner struct {
	sim          *Simulator
	logger       *slog.Logger
	initialDelay time.Duration
	reset        chan time.Duration

	// stepMu orders timer-driven steps against manual training so a reset
	// queued by Train is always seen before the next step.
	stepMu sync.Mutex

	mu         sync.RWMutex
	publishers []Publisher
	once       sync.Once
}

// NewRunner wraps sim. The first entry is created initialDelay after Run starts.
func NewRunner(sim *Simulator, logger *slog.Logger, initialDelay time.Duration) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if initialDelay < 0 {
		initialDelay = 0
	}
	initMetrics()
	return &Runner{
		sim:          sim,
		logger:       logger.With("component", "log_simulator"),
		initialDelay: initialDelay,
		reset:        make(chan time.Duration, 1),
	}
}

// Subscribe adds a publisher. Safe to call while running.
func (r *Runner) Subscribe(p Publisher) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers = append(r.publishers, p)
}

// Snapshot returns the current log.
func (r *Runner) Snapshot() domain.Snapshot {
	return r.sim.Snapshot()
}

// Run blocks until ctx is cancelled, advancing the simulator whenever its timer fires.
func (r *Runner) Run(ctx context.Context) {
	r.once.Do(func() {
		cfg := r.sim.Config()
		r.logger.Info("log simulator started",
			"history_limit", cfg.HistoryLimit,
			"first_step_delay", cfg.FirstStepDelay,
			"step_delay", cfg.StepDelay,
			"next_agent_delay", cfg.NextAgentDelay,
		)
	})
	timer := time.NewTimer(r.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("log simulator stopped")
			return
		case delay := <-r.reset:
			timer.Reset(delay)
		case <-timer.C:
			r.stepMu.Lock()
			select {
			case delay := <-r.reset:
				r.stepMu.Unlock()
				timer.Reset(delay)
				continue
			default:
			}
			event, delay := r.stepLocked()
			r.stepMu.Unlock()
			r.logger.Debug("log simulator advanced", "event", event, "next_in", delay)
			timer.Reset(delay)
		}
	}
}

// Step advances the simulator once and publishes the result.
func (r *Runner) Step() (Event, time.Duration) {
	r.stepMu.Lock()
	defer r.stepMu.Unlock()
	return r.stepLocked()
}

func (r *Runner) stepLocked() (Event, time.Duration) {
	event, delay := r.sim.Advance()
	snapshot := r.sim.Snapshot()
	recordTransition(event, len(snapshot.Entries))
	r.publish(snapshot)
	return event, delay
}

// Train forwards a manual request and, when it started an entry, moves the
// pending timer to the first-step delay.
func (r *Runner) Train() TrainResult {
	r.stepMu.Lock()
	defer r.stepMu.Unlock()
	result, delay := r.sim.Train()
	snapshot := r.sim.Snapshot()
	recordTrain(result, len(snapshot.Entries))
	if result == TrainStarted {
		r.scheduleReset(delay)
		r.publish(snapshot)
	}
	r.logger.Info("manual training requested", "result", result)
	return result
}

func (r *Runner) scheduleReset(delay time.Duration) {
	for {
		select {
		case r.reset <- delay:
			return
		default:
		}
		select {
		case <-r.reset:
		default:
		}
	}
}

func (r *Runner) publish(snapshot domain.Snapshot) {
	r.mu.RLock()
	publishers := append([]Publisher(nil), r.publishers...)
	r.mu.RUnlock()
	for _, p := range publishers {
		p.Publish(snapshot)
	}
}
