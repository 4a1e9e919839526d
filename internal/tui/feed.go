package tui

import (
	"context"
	"sync"
	"time"

	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/service/simulator"
	apiclient "github.com/splax/synthteams/pkg/api/client"
)

// Feed supplies the deployment log shown in the terminal.
type Feed interface {
	Trainer
	Snapshot() domain.Snapshot
	// Watch blocks until ctx is done, reporting every new snapshot and any
	// error reaching the log.
	Watch(ctx context.Context, onSnapshot func(domain.Snapshot), onError func(error))
}

// LocalFeed runs a simulator in process.
type LocalFeed struct {
	runner *simulator.Runner
}

// NewLocalFeed wraps runner.
func NewLocalFeed(runner *simulator.Runner) *LocalFeed {
	return &LocalFeed{runner: runner}
}

// Snapshot returns the current log.
func (f *LocalFeed) Snapshot() domain.Snapshot {
	return f.runner.Snapshot()
}

// Train forwards a manual request to the runner.
func (f *LocalFeed) Train(context.Context) (simulator.TrainResult, error) {
	return f.runner.Train(), nil
}

// Watch subscribes to the runner and drives it until ctx is done.
func (f *LocalFeed) Watch(ctx context.Context, onSnapshot func(domain.Snapshot), _ func(error)) {
	f.runner.Subscribe(simulator.PublisherFunc(onSnapshot))
	f.runner.Run(ctx)
}

// RemoteAPI is the part of the site client the remote feed uses.
type RemoteAPI interface {
	Snapshot(ctx context.Context) (apiclient.Snapshot, error)
	Train(ctx context.Context) (string, error)
}

// RemoteFeed polls a running site for its log.
type RemoteFeed struct {
	api      RemoteAPI
	interval time.Duration

	mu   sync.Mutex
	last domain.Snapshot
}

// NewRemoteFeed polls api every interval.
func NewRemoteFeed(api RemoteAPI, interval time.Duration) *RemoteFeed {
	if interval <= 0 {
		interval = time.Second
	}
	return &RemoteFeed{api: api, interval: interval}
}

// Snapshot returns the last fetched log.
func (f *RemoteFeed) Snapshot() domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Train asks the site to start a training run.
func (f *RemoteFeed) Train(ctx context.Context) (simulator.TrainResult, error) {
	result, err := f.api.Train(ctx)
	if err != nil {
		return "", err
	}
	return simulator.TrainResult(result), nil
}

// Watch fetches immediately, then every interval, reporting snapshots whose
// generation moved.
func (f *RemoteFeed) Watch(ctx context.Context, onSnapshot func(domain.Snapshot), onError func(error)) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		f.poll(ctx, onSnapshot, onError)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (f *RemoteFeed) poll(ctx context.Context, onSnapshot func(domain.Snapshot), onError func(error)) {
	remote, err := f.api.Snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil && onError != nil {
			onError(err)
		}
		return
	}
	snapshot := fromAPI(remote)
	f.mu.Lock()
	changed := snapshot.Generation != f.last.Generation || f.last.TakenAt.IsZero()
	if changed {
		f.last = snapshot
	}
	f.mu.Unlock()
	if changed {
		onSnapshot(snapshot)
	}
}

func fromAPI(s apiclient.Snapshot) domain.Snapshot {
	entries := make([]domain.Entry, 0, len(s.Entries))
	for _, e := range s.Entries {
		entry := domain.Entry{
			ID:          e.ID,
			AgentName:   e.AgentName,
			Steps:       append([]string(nil), e.Steps...),
			CurrentStep: e.CurrentStep,
			Deployed:    e.Deployed,
			Manual:      e.Manual,
			CreatedAt:   e.CreatedAt,
		}
		if e.Stats != nil {
			entry.Stats = &domain.Stats{FTEDelta: e.Stats.FTEDelta, SavingsPerYear: e.Stats.SavingsPerYear}
		}
		if e.DeployedAt != nil {
			at := *e.DeployedAt
			entry.DeployedAt = &at
		}
		entries = append(entries, entry)
	}
	return domain.Snapshot{Entries: entries, Generation: s.Generation, TakenAt: s.TakenAt}
}
