package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/repository"
)

// Repository implements persistence interfaces on SQLite for local runs and tests.
type Repository struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" keeps
// everything in a single in-process connection.
func Open(path string) (*Repository, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "sqlite://")
	if path == "" {
		return nil, errors.New("empty sqlite path")
	}
	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &Repository{db: db}, nil
}

var _ repository.SubscriptionRepository = (*Repository)(nil)

// DB exposes the handle for migrations.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close releases the database.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// EnsureSchema creates the subscriptions table if missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS subscriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure subscriptions table: %w", err)
	}
	return nil
}

// CreateSubscription inserts a subscription row.
func (r *Repository) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	const query = `INSERT INTO subscriptions (email, created_at) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, sub.Email, sub.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		var sqliteErr *moderncsqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return repository.ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read subscription id: %w", err)
	}
	sub.ID = id
	return nil
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
