package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/splax/synthteams/internal/choice"
	"github.com/splax/synthteams/internal/service/simulator"
	"github.com/splax/synthteams/internal/tui"
	apiclient "github.com/splax/synthteams/pkg/api/client"
)

func simulateCmd() *cobra.Command {
	var (
		api       string
		seed      int64
		history   int
		firstStep time.Duration
		step      time.Duration
		nextAgent time.Duration
		poll      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Watch the agent training log in the terminal",
		Long: "Watch the agent training log in the terminal. With --api (or SITE_PUBLIC_URL) the\n" +
			"log, training requests and waitlist emails go to that site; otherwise a local\n" +
			"simulator runs and emails are only checked.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if base := resolveAPI(api); base != "" {
				cli, err := apiclient.New(base)
				if err != nil {
					return err
				}
				return tui.Run(cmd.Context(), tui.NewRemoteFeed(cli, poll), cli, apiclient.IsInvalidEmail)
			}
			sim := simulator.New(simulator.Config{
				HistoryLimit:   history,
				FirstStepDelay: firstStep,
				StepDelay:      step,
				NextAgentDelay: nextAgent,
			}, simulator.DefaultCatalog(), choice.New(seed))
			runner := simulator.NewRunner(sim, discardLogger(), 0)
			return tui.Run(cmd.Context(), tui.NewLocalFeed(runner), nil, nil)
		},
	}
	apiFlag(cmd, &api)
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().IntVar(&history, "history", 4, "Entries kept in the log")
	cmd.Flags().DurationVar(&firstStep, "first-step-delay", 3*time.Second, "Delay from agent creation to its first step")
	cmd.Flags().DurationVar(&step, "step-delay", 4*time.Second, "Delay between steps")
	cmd.Flags().DurationVar(&nextAgent, "next-agent-delay", 6*time.Second, "Delay after deployment before the next agent")
	cmd.Flags().DurationVar(&poll, "poll", time.Second, "How often to fetch the remote log")
	return cmd
}
