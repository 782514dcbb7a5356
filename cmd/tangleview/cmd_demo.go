package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/tangleview/cmd/ui"
	"github.com/utkarsh5026/tangleview/pkg/config"
	"github.com/utkarsh5026/tangleview/pkg/demo"
	"github.com/utkarsh5026/tangleview/pkg/events"
)

type demoOptions struct {
	addr       string
	interval   time.Duration
	maxParents int
	backlog    int
	seed       uint64
	natsURL    string
	metrics    bool
}

func newDemoCmd(root *rootOptions) *cobra.Command {
	opts := &demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Serve a synthetic, growing tangle",
		Long: `Serve the blocks API from memory and add a block with random sensor
readings every interval. Each new block approves one or more current tips.

POST /api/blocks with a JSON sensor reading adds a block immediately.

Examples:
  # Serve on :8080 and watch it from another terminal
  tangleview demo
  tangleview watch --source http://localhost:8080

  # Announce every block on NATS so watchers fetch right away
  tangleview demo --nats nats://localhost:4222`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			feedOpts := []demo.FeedOption{demo.WithMaxParents(cfg.Demo.MaxParents)}
			if cfg.Demo.Seed != 0 {
				feedOpts = append(feedOpts, demo.WithSeed(cfg.Demo.Seed))
			}
			if cfg.Demo.Publish && cfg.Events.NATSURL != "" {
				bus, err := events.Connect(cfg.Events.NATSURL, "tangleview-demo")
				if err != nil {
					return err
				}
				defer bus.Close()
				feedOpts = append(feedOpts, demo.WithPublisher(bus))
			}

			ctx := cmd.Context()
			feed := demo.NewFeed(feedOpts...)
			if err := feed.Seed(ctx, cfg.Demo.Backlog); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Header(" tangleview demo "))
			fmt.Fprintln(out, ui.KeyValue("api", 9, ui.Cyan("http://"+displayAddr(cfg.Demo.Addr)+"/api/blocks")))
			fmt.Fprintln(out, ui.KeyValue("interval", 9, cfg.Demo.Interval.Duration))
			fmt.Fprintln(out, ui.KeyValue("backlog", 9, feed.Len()))

			server := demo.NewServer(feed, demo.WithMetricsRoute(opts.metrics))
			return server.Serve(ctx, cfg.Demo.Addr, cfg.Demo.Interval.Duration)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", "", "Listen address (default :8080)")
	flags.DurationVar(&opts.interval, "interval", 0, "Time between generated blocks")
	flags.IntVar(&opts.maxParents, "max-parents", 0, "Most parents a block approves")
	flags.IntVar(&opts.backlog, "backlog", 0, "Blocks generated before serving")
	flags.Uint64Var(&opts.seed, "seed", 0, "Seed for parent choice and readings")
	flags.StringVar(&opts.natsURL, "nats", "", "Publish block events to this NATS server")
	flags.BoolVar(&opts.metrics, "metrics", false, "Also serve /metrics")

	return cmd
}

func (o *demoOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Demo.Addr = o.addr
	}
	if flags.Changed("interval") {
		cfg.Demo.Interval = config.Duration{Duration: o.interval}
	}
	if flags.Changed("max-parents") {
		cfg.Demo.MaxParents = o.maxParents
	}
	if flags.Changed("backlog") {
		cfg.Demo.Backlog = o.backlog
	}
	if flags.Changed("seed") {
		cfg.Demo.Seed = o.seed
	}
	if flags.Changed("nats") {
		cfg.Events.NATSURL = o.natsURL
		cfg.Demo.Publish = o.natsURL != ""
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
