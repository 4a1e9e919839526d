// Package storage opens the subscription store for the configured driver and
// hands back the handles the site and CLI need.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splax/synthteams/internal/app/migrate"
	"github.com/splax/synthteams/internal/repository"
	"github.com/splax/synthteams/internal/repository/postgres"
	"github.com/splax/synthteams/internal/repository/sqlite"
)

// Store bundles the repository with a database/sql handle for migrations.
type Store struct {
	Driver string
	Repo   repository.SubscriptionRepository
	SQL    *sql.DB

	closers []func()
}

// Open connects to dsn using driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver, dsn string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	switch driver {
	case migrate.DriverPostgres:
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		conn, err := migrate.OpenDB(driver, dsn)
		if err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("storage opened", "driver", driver)
		return &Store{
			Driver:  driver,
			Repo:    postgres.New(pool),
			SQL:     conn,
			closers: []func(){func() { _ = conn.Close() }, pool.Close},
		}, nil
	case migrate.DriverSQLite:
		repo, err := sqlite.Open(dsn)
		if err != nil {
			return nil, err
		}
		log.Info("storage opened", "driver", driver, "path", dsn)
		return &Store{
			Driver:  driver,
			Repo:    repo,
			SQL:     repo.DB(),
			closers: []func(){func() { _ = repo.Close() }},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrator returns a goose runner over the store's connection.
func (s *Store) Migrator(log *slog.Logger) (migrate.Runner, error) {
	return migrate.New(s.SQL, s.Driver, log)
}

// Ping checks the repository connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

// Close releases every handle in the order they were opened.
func (s *Store) Close() {
	for _, fn := range s.closers {
		fn()
	}
}
