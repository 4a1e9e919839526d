package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/splax/synthteams/pkg/config"
	"github.com/splax/synthteams/pkg/logger"
)

var buildVersion = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:           "synth",
		Short:         "Operate the Synthetic Teams site",
		Version:       buildVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv(".env", ".env.local")
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	newLogger := func() *slog.Logger {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		return logger.NewWithWriter(os.Stderr, "synth", level)
	}

	root.AddCommand(migrateCmd(newLogger))
	root.AddCommand(simulateCmd())
	root.AddCommand(subscribeCmd())
	root.AddCommand(trainCmd())
	root.AddCommand(logCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "synth %s\n", buildVersion)
		},
	}
}
