package repository

import (
	"context"

	"github.com/splax/synthteams/internal/domain"
)

// SubscriptionRepository persists waitlist subscriptions.
type SubscriptionRepository interface {
	// EnsureSchema creates the subscriptions table when it does not exist.
	EnsureSchema(ctx context.Context) error
	// CreateSubscription inserts a subscription and fills its ID.
	// A repeated email returns ErrDuplicate.
	CreateSubscription(ctx context.Context, sub *domain.Subscription) error
	Ping(ctx context.Context) error
}
