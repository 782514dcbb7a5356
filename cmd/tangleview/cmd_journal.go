package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/tangleview/cmd/ui"
	"github.com/utkarsh5026/tangleview/pkg/journal"
)

func newJournalCmd() *cobra.Command {
	var limit int
	var kind string

	cmd := &cobra.Command{
		Use:   "journal <file>",
		Short: "Show a journal saved by watch --journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var only *journal.Kind
			if kind != "" {
				k, ok := journal.ParseKind(kind)
				if !ok {
					return fmt.Errorf("unknown kind %q (merge, failure, control)", kind)
				}
				only = &k
			}

			entries, err := journal.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			table := tablewriter.NewWriter(out)
			table.Header("Time", "Kind", "Added", "Nodes", "Edges", "Message")

			shown := 0
			for _, e := range entries {
				if only != nil && e.Kind != *only {
					continue
				}
				if limit > 0 && shown == limit {
					break
				}
				if err := table.Append(
					ui.Magenta(e.Timestamp.Local().Format("15:04:05")),
					kindColor(e.Kind),
					fmt.Sprint(e.Added),
					fmt.Sprint(e.Nodes),
					fmt.Sprint(e.Edges),
					e.Message,
				); err != nil {
					return err
				}
				shown++
			}

			if shown == 0 {
				fmt.Fprintln(out, ui.Yellow("No journal entries"))
				return nil
			}
			return table.Render()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many entries")
	cmd.Flags().StringVar(&kind, "kind", "", "Only show entries of this kind")

	return cmd
}

func kindColor(k journal.Kind) string {
	switch k {
	case journal.KindMerge:
		return ui.Green(k.String())
	case journal.KindFailure:
		return ui.Red(k.String())
	}
	return ui.Blue(k.String())
}
