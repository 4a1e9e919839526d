package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	apiclient "github.com/splax/synthteams/pkg/api/client"
)

func trainCmd() *cobra.Command {
	var api string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Ask the site to train a new agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := apiclient.New(resolveAPI(api))
			if err != nil {
				return err
			}
			result, err := cli.Train(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
	apiFlag(cmd, &api)
	return cmd
}

func logCmd() *cobra.Command {
	var (
		api    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the site's current agent training log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := apiclient.New(resolveAPI(api))
			if err != nil {
				return err
			}
			snapshot, err := cli.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snapshot)
			}
			printLog(cmd.OutOrStdout(), snapshot)
			return nil
		},
	}
	apiFlag(cmd, &api)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw snapshot")
	return cmd
}

func printLog(w io.Writer, snapshot apiclient.Snapshot) {
	if len(snapshot.Entries) == 0 {
		fmt.Fprintln(w, "no agents yet")
		return
	}
	for i, entry := range snapshot.Entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  [%s]\n", entry.AgentName, entry.Phase)
		for j, step := range entry.Steps {
			if j <= entry.CurrentStep {
				fmt.Fprintf(w, "  > %s\n", step)
			}
		}
		if entry.Deployed && entry.Stats != nil {
			fmt.Fprintf(w, "  DEPLOYED  %d FTE · $%s/yr\n",
				entry.Stats.FTEDelta, humanize.Comma(int64(entry.Stats.SavingsPerYear)))
		}
	}
}
