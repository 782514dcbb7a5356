package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/tangleview/cmd/ui"
	"github.com/utkarsh5026/tangleview/pkg/engine"
	"github.com/utkarsh5026/tangleview/pkg/graph"
)

func newLogCmd(root *rootOptions) *cobra.Command {
	var compact bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the tangle as a text graph",
		Long: `Print the fetched blocks newest first with their approval lines drawn
in lanes, the way "git log --graph" draws history.

Parents outside the fetched page are counted but not drawn.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			records, err := engine.Fetch(cmd.Context(), newFetcher(cfg))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, ui.Yellow("No blocks yet"))
				return nil
			}

			g := graph.Build(records)
			if limit > 0 && limit < len(g.Nodes) {
				g.Nodes = g.Nodes[:limit]
			}

			if !compact {
				fmt.Fprintln(out, ui.Header(" Tangle "))
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, graph.NewRenderer(g).Render(compact))
			return nil
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "One line per block")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many blocks")

	return cmd
}
