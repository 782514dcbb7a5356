package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/tangleview/cmd/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Red("error:"), err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tangleview",
		Short: "Watch a growing tangle of sensor blocks",
		Long: `tangleview fetches the blocks of a tangle (a DAG where every block
approves one or more earlier blocks) and lays them out with a small
force-directed simulation.

Use "watch" for the interactive terminal view, "render" to write frames as
PNG images, "log" and "records" for text views, and "demo" to serve a
synthetic tangle for any of them to read.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/tangleview/config.toml)")
	flags.StringVar(&opts.source, "source", "", "Base URL of the blocks API")
	flags.StringVar(&opts.input, "input", "", "Read blocks from a JSON file instead of the API")

	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newLogCmd(opts))
	cmd.AddCommand(newRecordsCmd(opts))
	cmd.AddCommand(newHealthCmd(opts))
	cmd.AddCommand(newDemoCmd(opts))
	cmd.AddCommand(newJournalCmd())

	return cmd
}
