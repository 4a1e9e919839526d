package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/splax/synthteams/db"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

// Runner wraps database migration capabilities.
type Runner struct {
	db      *sql.DB
	driver  string
	dialect string
	dir     string
	fsys    fs.FS
	log     *slog.Logger
}

// New returns a migration runner backed by goose and the embedded migrations.
func New(conn *sql.DB, driver string, log *slog.Logger) (Runner, error) {
	if conn == nil {
		return Runner{}, errors.New("nil database provided")
	}
	dialect, dir, err := dialectFor(driver)
	if err != nil {
		return Runner{}, err
	}
	if _, err := fs.Stat(db.Migrations, dir); err != nil {
		return Runner{}, fmt.Errorf("locate migrations dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return Runner{db: conn, driver: driver, dialect: dialect, dir: dir, fsys: db.Migrations, log: log}, nil
}

// OpenDB opens a database/sql handle for driver. Postgres goes through the pgx stdlib driver.
func OpenDB(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}
	switch driver {
	case DriverPostgres:
		conn, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sql connection: %w", err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("OpenDB does not handle driver %q", driver)
	}
}

// Ensure applies pending migrations.
func (r Runner) Ensure(ctx context.Context) error {
	return r.withGoose(func() error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		r.log.Info("applying migrations", "dialect", r.dialect, "dir", r.dir)
		if err := goose.UpContext(runCtx, r.db, r.dir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		r.log.Info("migrations applied")
		return nil
	})
}

// Status reports applied and pending migrations.
func (r Runner) Status(ctx context.Context) error {
	return r.withGoose(func() error {
		r.log.Info("migration status", "dialect", r.dialect, "dir", r.dir)
		if err := goose.StatusContext(ctx, r.db, r.dir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Down rolls back migrations either to the previous version or a specific target version.
func (r Runner) Down(ctx context.Context, targetVersion int64) error {
	return r.withGoose(func() error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if targetVersion > 0 {
			r.log.Info("rolling back migrations", "target", targetVersion)
			if err := goose.DownToContext(runCtx, r.db, r.dir, targetVersion); err != nil {
				return fmt.Errorf("rollback to version %d: %w", targetVersion, err)
			}
		} else {
			r.log.Info("rolling back latest migration")
			if err := goose.DownContext(runCtx, r.db, r.dir); err != nil {
				return fmt.Errorf("rollback latest migration: %w", err)
			}
		}

		r.log.Info("rollback complete")
		return nil
	})
}

// Version returns the current schema version.
func (r Runner) Version(ctx context.Context) (int64, error) {
	var version int64
	err := r.withGoose(func() error {
		v, err := goose.GetDBVersionContext(ctx, r.db)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

// Ping ensures the database connection is alive.
func (r Runner) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (r Runner) withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(r.fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(r.dialect); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	return fn()
}

func dialectFor(driver string) (dialect, dir string, err error) {
	switch driver {
	case DriverPostgres:
		return "postgres", "migrations/postgres", nil
	case DriverSQLite:
		return "sqlite3", "migrations/sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}
