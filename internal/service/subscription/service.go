package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/repository"
)

// ErrInvalidEmail is returned when the address is empty or has no "@".
var ErrInvalidEmail = errors.New("invalid email address")

var (
	metricsOnce   sync.Once
	subscribeHits *prometheus.CounterVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		subscribeHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synthteams",
			Subsystem: "site",
			Name:      "subscriptions_total",
			Help:      "Waitlist subscription attempts by outcome",
		}, []string{"outcome"})
		if err := prometheus.Register(subscribeHits); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
					subscribeHits = existing
				}
			}
		}
	})
}

// Service stores waitlist opt-ins.
type Service struct {
	repo   repository.SubscriptionRepository
	logger *slog.Logger
	now    func() time.Time

	schemaMu    sync.Mutex
	schemaReady bool
}

// New constructs a subscription service.
func New(repo repository.SubscriptionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	initMetrics()
	return &Service{repo: repo, logger: logger.With("component", "subscription"), now: time.Now}
}

// Validate applies the deliberately shallow shape check.
func Validate(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// Subscribe validates and stores email exactly as given; surrounding
// whitespace is ignored by the shape check only. Every failure other than
// ErrInvalidEmail is wrapped and logged; callers treat it as generic.
func (s *Service) Subscribe(ctx context.Context, email string) (*domain.Subscription, error) {
	if err := Validate(email); err != nil {
		subscribeHits.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		subscribeHits.WithLabelValues("error").Inc()
		s.logger.Error("subscription error", "error", err)
		return nil, err
	}
	sub := &domain.Subscription{Email: email, CreatedAt: s.now().UTC()}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		outcome := "error"
		if errors.Is(err, repository.ErrDuplicate) {
			outcome = "duplicate"
		}
		subscribeHits.WithLabelValues(outcome).Inc()
		s.logger.Error("subscription error", "error", err, "outcome", outcome)
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	subscribeHits.WithLabelValues("created").Inc()
	s.logger.Info("subscription stored", "subscription_id", sub.ID)
	return sub, nil
}

// Ping reports storage health.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	if err := s.repo.EnsureSchema(ctx); err != nil {
		return err
	}
	s.schemaReady = true
	return nil
}
