package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/tangleview/cmd/ui"
	"github.com/utkarsh5026/tangleview/pkg/engine"
	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

func newRecordsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records [hash]",
		Short: "List blocks, or show one block",
		Long: `Without arguments, list the fetched blocks in a table.

With a hash, show that block in full. The API is asked for the block
directly; a file source is searched instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				var rec tangle.Record
				if cfg.Source.File == "" {
					rec, err = newHTTPFetcher(cfg).FetchRecord(ctx, args[0])
				} else {
					rec, err = findRecord(cmd, cfg.Source.File, args[0])
				}
				if err != nil {
					return err
				}
				showRecord(out, rec)
				return nil
			}

			records, err := engine.Fetch(ctx, newFetcher(cfg))
			if err != nil {
				return err
			}
			return listRecords(out, records)
		},
	}

	return cmd
}

func findRecord(cmd *cobra.Command, path, hash string) (tangle.Record, error) {
	records, err := tangle.NewFileFetcher(path).FetchRecords(cmd.Context())
	if err != nil {
		return tangle.Record{}, err
	}
	for _, r := range records {
		if r.ID == hash || (len(hash) >= tangle.ShortIDLength && strings.HasPrefix(r.ID, hash)) {
			return r, nil
		}
	}
	return tangle.Record{}, tangle.NewErrBlockNotFound(hash)
}

func listRecords(out io.Writer, records []tangle.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(out, ui.Yellow("No blocks yet"))
		return nil
	}

	fmt.Fprintln(out, ui.Header(fmt.Sprintf(" Blocks (%d) ", len(records))))
	fmt.Fprintln(out)

	table := tablewriter.NewWriter(out)
	table.Header("Block", "Created", "Parents", "PM2.5", "Quality")

	for _, r := range records {
		pm25 := "-"
		if v, ok := r.Payload.Number(tangle.KeyPM25); ok {
			pm25 = fmt.Sprintf("%.1f", v)
		}
		created := "unknown"
		if r.CreatedAt != 0 {
			created = r.Created().Local().Format("2006-01-02 15:04:05")
		}
		if err := table.Append(
			ui.Yellow(r.ShortID()),
			ui.Magenta(created),
			fmt.Sprint(len(r.ParentIDs)),
			pm25,
			layout.QualityOf(r.Payload).String(),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func showRecord(out io.Writer, r tangle.Record) {
	fmt.Fprintln(out, ui.Header(" Block "+r.ShortID()+" "))
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.KeyValue("hash", 10, ui.Yellow(r.ID)))
	if r.CreatedAt != 0 {
		fmt.Fprintln(out, ui.KeyValue("created", 10, r.Created().Local().Format("2006-01-02 15:04:05")))
	}
	if r.IsGenesis() {
		fmt.Fprintln(out, ui.KeyValue("parents", 10, "none (genesis)"))
	}
	for _, p := range r.ParentIDs {
		fmt.Fprintln(out, ui.KeyValue("parent", 10, ui.IconLink+" "+p))
	}
	for _, key := range r.Payload.Keys() {
		fmt.Fprintln(out, ui.KeyValue(key, 10, r.Payload[key]))
	}
	fmt.Fprintln(out, ui.KeyValue("quality", 10, layout.QualityOf(r.Payload)))
	if r.Signature != "" {
		fmt.Fprintln(out, ui.KeyValue("signature", 10, ui.Subtle(r.Signature)))
	}
}
