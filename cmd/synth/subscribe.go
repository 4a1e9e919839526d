package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/splax/synthteams/pkg/api/client"
	"github.com/splax/synthteams/pkg/config"
)

func apiFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "api", "", "Site base URL (default $SITE_PUBLIC_URL)")
}

func resolveAPI(value string) string {
	if value != "" {
		return value
	}
	return config.GetString("SITE_PUBLIC_URL", "")
}

func subscribeCmd() *cobra.Command {
	var api string
	cmd := &cobra.Command{
		Use:   "subscribe EMAIL",
		Short: "Add an email to the waitlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := apiclient.New(resolveAPI(api))
			if err != nil {
				return err
			}
			msg, err := cli.Subscribe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	apiFlag(cmd, &api)
	return cmd
}
