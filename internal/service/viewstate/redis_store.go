package viewstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type redisStore struct {
	client  *redis.Client
	logger  *slog.Logger
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisStore constructs a Redis backed store holding JSON-encoded state.
func NewRedisStore(addr, password string, db int, ttl time.Duration, logger *slog.Logger) (Store, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &redisStore{
		client:  client,
		logger:  logger,
		prefix:  "synthteams:view:",
		ttl:     ttl,
		timeout: 250 * time.Millisecond,
	}, nil
}

func (s *redisStore) Load(ctx context.Context, sessionID string) (State, error) {
	if sessionID == "" {
		return State{}, ErrNoSession
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(sessionID), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load view state: %w", err)
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn("discarding unreadable view state", "session", sessionID, "error", err)
		return New(sessionID), nil
	}
	return state, nil
}

func (s *redisStore) Save(ctx context.Context, state State) error {
	if state.SessionID == "" {
		return ErrNoSession
	}
	state.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode view state: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+state.SessionID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	return nil
}

func (s *redisStore) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}
