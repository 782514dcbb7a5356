package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/tangleview/pkg/config"
	"github.com/utkarsh5026/tangleview/pkg/events"
	"github.com/utkarsh5026/tangleview/pkg/metrics"
	"github.com/utkarsh5026/tangleview/pkg/tui"
)

type watchOptions struct {
	interval    time.Duration
	fps         int
	seed        uint64
	labels      bool
	natsURL     string
	metricsAddr string
	logFile     string
	journalPath string
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the tangle in the terminal",
		Long: `Open an interactive view of the tangle.

Blocks are fetched once on start and then every poll interval. New blocks
appear on a ring around the center and settle under the simulation. With --nats
set, block events trigger an early fetch.

Mouse:
  drag a node to move it, drag empty space to pan, wheel to zoom,
  click a node to show its readings

Keys:
  space  pause/play     s  stabilize    r  reset positions
  + -    zoom           0  reset view   f  fetch now
  esc    deselect       q  quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg, opts.journalPath)
		},
	}

	flags := cmd.Flags()
	flags.DurationVar(&opts.interval, "interval", 0, "Time between fetches")
	flags.IntVar(&opts.fps, "fps", 0, "Frames per second")
	flags.Uint64Var(&opts.seed, "seed", 0, "Seed for node placement (0 picks one)")
	flags.BoolVar(&opts.labels, "labels", false, "Draw short ids on the canvas")
	flags.StringVar(&opts.natsURL, "nats", "", "NATS server to listen on for block events")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs to this file")
	flags.StringVar(&opts.journalPath, "journal", "", "Save the session journal to this file on exit")

	return cmd
}

// apply copies the flags that were set onto cfg.
func (o *watchOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("interval") {
		cfg.Source.PollInterval = config.Duration{Duration: o.interval}
	}
	if flags.Changed("fps") {
		cfg.View.FPS = o.fps
	}
	if flags.Changed("seed") {
		cfg.View.Seed = o.seed
	}
	if flags.Changed("labels") {
		cfg.View.Labels = o.labels
	}
	if flags.Changed("nats") {
		cfg.Events.NATSURL = o.natsURL
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if flags.Changed("log-file") {
		cfg.Log.File = o.logFile
	}
}

func runWatch(ctx context.Context, cfg *config.Config, journalPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The alt screen owns the terminal; logs go to a file or nowhere.
	if cfg.Log.File != "" {
		f, err := tea.LogToFile(cfg.Log.File, "tangleview")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	scene := newScene(cfg)
	modelOpts := []tui.Option{
		tui.WithFrameInterval(cfg.View.FrameInterval()),
		tui.WithPollInterval(cfg.Source.PollInterval.Duration),
		tui.WithLabels(cfg.View.Labels),
	}

	if cfg.Events.NATSURL != "" {
		bus, err := events.Connect(cfg.Events.NATSURL, "tangleview")
		if err != nil {
			return err
		}
		defer bus.Close()

		nudges, stop, err := events.Listen(ctx, bus, cfg.Events.Subject, cfg.Events.Debounce.Duration)
		if err != nil {
			return err
		}
		defer stop()
		modelOpts = append(modelOpts, tui.WithNudges(nudges))
	}

	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			log.Printf("metrics: %v", err)
		}
	}()

	model := tui.New(ctx, scene, newFetcher(cfg), modelOpts...)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}

	if journalPath != "" {
		if saveErr := scene.Journal().Save(journalPath); saveErr != nil {
			return errors.Join(err, saveErr)
		}
	}
	return err
}
