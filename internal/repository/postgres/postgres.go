package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/repository"
)

const uniqueViolation = "23505"

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ repository.SubscriptionRepository = (*Repository)(nil)

// EnsureSchema creates the subscriptions table if missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS subscriptions (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure subscriptions table: %w", err)
	}
	return nil
}

// CreateSubscription inserts a subscription row.
func (r *Repository) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	const query = `INSERT INTO subscriptions (email, created_at)
		VALUES ($1, $2)
		RETURNING id`
	err := r.pool.QueryRow(ctx, query, sub.Email, sub.CreatedAt.UTC()).Scan(&sub.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// Ping checks the pool.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
