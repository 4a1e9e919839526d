package viewstate

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	defaultTTL         = 24 * time.Hour
	storeSweepInterval = 5 * time.Minute
)

// ErrNoSession is returned when a state has no session id.
var ErrNoSession = errors.New("viewstate: session id required")

// Store loads and saves view state by session id. Unknown sessions load as New.
type Store interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, state State) error
	Close()
}

type memoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
	stopCh  chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// NewMemoryStore keeps state in process memory, evicting sessions idle for ttl.
func NewMemoryStore(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	s := &memoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
		stopCh:  make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *memoryStore) Load(_ context.Context, sessionID string) (State, error) {
	if sessionID == "" {
		return State{}, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok || s.now().After(entry.expiresAt) {
		return New(sessionID), nil
	}
	return entry.state, nil
}

func (s *memoryStore) Save(_ context.Context, state State) error {
	if state.SessionID == "" {
		return ErrNoSession
	}
	now := s.now()
	state.UpdatedAt = now.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[state.SessionID] = memoryEntry{state: state, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *memoryStore) sweepLoop() {
	ticker := time.NewTicker(storeSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup(s.now())
		case <-s.stopCh:
			return
		}
	}
}

func (s *memoryStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
}

func (s *memoryStore) Close() {
	s.once.Do(func() {
		close(s.stopCh)
	})
}
