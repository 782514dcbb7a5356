package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/tangleview/cmd/ui"
)

func newHealthCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ask the blocks API whether it is healthy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			fetcher := newHTTPFetcher(cfg)

			status, err := fetcher.Health(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.StatusIcon(false), fetcher.BaseURL())
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.StatusIcon(true), fetcher.BaseURL(), ui.Green(status))
			return nil
		},
	}
}
