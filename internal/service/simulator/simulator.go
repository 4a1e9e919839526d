package simulator

import (
	"sync"
	"time"

	"github.com/splax/synthteams/internal/choice"
	"github.com/splax/synthteams/internal/domain"
)

const (
	defaultHistoryLimit     = 4
	defaultFirstStepDelay   = 3 * time.Second
	defaultStepDelay        = 4 * time.Second
	defaultNextAgentDelay   = 6 * time.Second
	defaultManualQueueLimit = 1
)

// Event names the transition performed by Advance.
type Event string

const (
	EventCreated      Event = "created"
	EventStepRevealed Event = "step_revealed"
	EventDeployed     Event = "deployed"
)

// TrainResult is the outcome of a manual training request.
type TrainResult string

const (
	// TrainStarted means a new entry was created immediately.
	TrainStarted TrainResult = "started"
	// TrainQueued means the request will start as soon as the current entry deploys.
	TrainQueued TrainResult = "queued"
	// TrainDropped means the queue was full.
	TrainDropped TrainResult = "dropped"
)

// Config tunes list size and cycle timing.
type Config struct {
	HistoryLimit     int
	FirstStepDelay   time.Duration
	StepDelay        time.Duration
	NextAgentDelay   time.Duration
	ManualQueueLimit int
}

func (c Config) withDefaults() Config {
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaultHistoryLimit
	}
	if c.FirstStepDelay <= 0 {
		c.FirstStepDelay = defaultFirstStepDelay
	}
	if c.StepDelay <= 0 {
		c.StepDelay = defaultStepDelay
	}
	if c.NextAgentDelay <= 0 {
		c.NextAgentDelay = defaultNextAgentDelay
	}
	if c.ManualQueueLimit < 0 {
		c.ManualQueueLimit = 0
	} else if c.ManualQueueLimit == 0 {
		c.ManualQueueLimit = defaultManualQueueLimit
	}
	return c
}

// Simulator owns the deployment log. The newest entry is first and is the
// only one that may still be in progress.
type Simulator struct {
	mu         sync.Mutex
	cfg        Config
	catalog    Catalog
	chooser    choice.Chooser
	now        func() time.Time
	entries    []domain.Entry
	nextID     int64
	queued     int
	generation uint64
}

// New constructs a Simulator with an empty log.
func New(cfg Config, catalog Catalog, chooser choice.Chooser) *Simulator {
	if chooser == nil {
		chooser = choice.New(0)
	}
	return &Simulator{
		cfg:     cfg.withDefaults(),
		catalog: catalog,
		chooser: chooser,
		now:     time.Now,
	}
}

// Config returns the effective configuration.
func (s *Simulator) Config() Config {
	return s.cfg
}

// Advance performs the next timer-driven transition and returns the delay
// before Advance should be called again.
func (s *Simulator) Advance() (Event, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 || s.entries[0].Deployed {
		manual := false
		if s.queued > 0 {
			s.queued--
			manual = true
		}
		s.startCycle(manual)
		return EventCreated, s.cfg.FirstStepDelay
	}

	head := &s.entries[0]
	if len(head.Steps) < domain.MaxSteps {
		s.revealNextStep(head)
		return EventStepRevealed, s.cfg.StepDelay
	}

	s.deploy(head)
	if s.queued > 0 {
		return EventDeployed, 0
	}
	return EventDeployed, s.cfg.NextAgentDelay
}

// Train handles a manual request. When nothing is training the entry starts
// right away and the returned delay replaces whatever wait was pending;
// otherwise the request is queued behind the current entry.
func (s *Simulator) Train() (TrainResult, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) > 0 && s.entries[0].InProgress() {
		if s.queued >= s.cfg.ManualQueueLimit {
			return TrainDropped, 0
		}
		s.queued++
		return TrainQueued, 0
	}
	s.startCycle(true)
	return TrainStarted, s.cfg.FirstStepDelay
}

// Snapshot returns a deep copy of the log.
func (s *Simulator) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.Entry, len(s.entries))
	for i, entry := range s.entries {
		entries[i] = entry.Clone()
	}
	return domain.Snapshot{Entries: entries, Generation: s.generation, TakenAt: s.now().UTC()}
}

// Queued reports how many manual requests are waiting.
func (s *Simulator) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued
}

// startCycle must be called with s.mu held and no entry in progress.
func (s *Simulator) startCycle(manual bool) {
	if len(s.entries) > 0 && s.entries[0].InProgress() {
		return
	}
	s.nextID++
	entry := domain.Entry{
		ID:          s.nextID,
		AgentName:   s.chooser.Pick(s.catalog.agents).Text,
		Steps:       make([]string, 0, domain.MaxSteps),
		CurrentStep: -1,
		Manual:      manual,
		CreatedAt:   s.now().UTC(),
	}
	s.entries = append([]domain.Entry{entry}, s.entries...)
	if len(s.entries) > s.cfg.HistoryLimit {
		s.entries = s.entries[:s.cfg.HistoryLimit]
	}
	s.generation++
}

func (s *Simulator) revealNextStep(entry *domain.Entry) {
	if len(entry.Steps) >= domain.MaxSteps {
		return
	}
	entry.Steps = append(entry.Steps, s.chooser.Pick(s.catalog.steps).Text)
	entry.CurrentStep = len(entry.Steps) - 1
	s.generation++
}

func (s *Simulator) deploy(entry *domain.Entry) {
	if entry.Deployed || len(entry.Steps) != domain.MaxSteps {
		return
	}
	stats := generateStats(s.chooser)
	at := s.now().UTC()
	entry.Deployed = true
	entry.Stats = &stats
	entry.DeployedAt = &at
	s.generation++
}
