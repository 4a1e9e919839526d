package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/splax/synthteams/internal/app/migrate"
	"github.com/splax/synthteams/internal/app/storage"
	"github.com/splax/synthteams/pkg/config"
)

type dbFlags struct {
	driver  string
	dsn     string
	timeout time.Duration
}

func (f *dbFlags) bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.driver, "driver", "", "Database driver: postgres or sqlite (default $DATABASE_DRIVER)")
	cmd.PersistentFlags().StringVar(&f.dsn, "database-url", "", "Database URL or sqlite path (default $DATABASE_URL)")
	cmd.PersistentFlags().DurationVar(&f.timeout, "timeout", time.Minute, "Command timeout")
}

func (f *dbFlags) resolve() (driver, dsn string) {
	driver, dsn = f.driver, f.dsn
	if driver == "" {
		driver = config.GetString("DATABASE_DRIVER", migrate.DriverPostgres)
	}
	if dsn == "" {
		dsn = config.GetString("DATABASE_URL", "")
	}
	return driver, dsn
}

func migrateCmd(newLogger func() *slog.Logger) *cobra.Command {
	var flags dbFlags
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the subscriptions schema",
	}
	flags.bind(cmd)

	withRunner := func(cmd *cobra.Command, fn func(context.Context, migrate.Runner) error) error {
		log := newLogger()
		ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
		defer cancel()
		driver, dsn := flags.resolve()
		store, err := storage.Open(ctx, driver, dsn, log)
		if err != nil {
			return err
		}
		defer store.Close()
		runner, err := store.Migrator(log)
		if err != nil {
			return fmt.Errorf("configure migration runner: %w", err)
		}
		if err := runner.Ping(ctx); err != nil {
			return err
		}
		if err := fn(ctx, runner); err != nil {
			return err
		}
		log.Info("migration command completed", "command", cmd.Name())
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, func(ctx context.Context, r migrate.Runner) error {
				return r.Ensure(ctx)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, func(ctx context.Context, r migrate.Runner) error {
				if err := r.Status(ctx); err != nil {
					return err
				}
				version, err := r.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
				return nil
			})
		},
	})

	var target int64
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration or down to --target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, func(ctx context.Context, r migrate.Runner) error {
				return r.Down(ctx, target)
			})
		},
	}
	down.Flags().Int64Var(&target, "target", 0, "Target version to roll back to")
	cmd.AddCommand(down)
	return cmd
}
