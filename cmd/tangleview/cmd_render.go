package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"
	"golang.org/x/term"

	"github.com/utkarsh5026/tangleview/cmd/ui"
	"github.com/utkarsh5026/tangleview/pkg/config"
	"github.com/utkarsh5026/tangleview/pkg/engine"
	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/metrics"
	"github.com/utkarsh5026/tangleview/pkg/render"
)

type renderOptions struct {
	steps       int
	duration    time.Duration
	out         string
	every       int
	summary     bool
	seed        uint64
	width       int
	height      int
	legend      bool
	metricsAddr string
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Simulate the layout headlessly and write PNG frames",
		Long: `Fetch the tangle once, run the simulation for a number of frames and
write the last frame as a PNG image.

With --duration the view runs for that long instead, polling the source
like "watch" does, so blocks created meanwhile appear in the frames.

Examples:
  # Settle the layout for 300 frames
  tangleview render --steps 300 --out tangle.png

  # Record 20 seconds, one image every 10 frames
  tangleview render --duration 20s --every 10 --out frames/tangle.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if opts.steps < 1 && opts.duration <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return runRender(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.steps, "steps", 120, "Frames to simulate")
	flags.DurationVar(&opts.duration, "duration", 0, "Run live for this long instead of a fixed number of frames")
	flags.StringVarP(&opts.out, "out", "o", "tangle.png", "Output image")
	flags.IntVar(&opts.every, "every", 0, "Also write every Nth frame as a numbered image")
	flags.BoolVar(&opts.summary, "summary", false, "Print a summary table")
	flags.Uint64Var(&opts.seed, "seed", 0, "Seed for node placement (0 picks one)")
	flags.IntVar(&opts.width, "width", 0, "Image width in pixels")
	flags.IntVar(&opts.height, "height", 0, "Image height in pixels")
	flags.BoolVar(&opts.legend, "legend", false, "Draw the air quality legend")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	return cmd
}

func (o *renderOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.View.Seed = o.seed
	}
	if flags.Changed("width") {
		cfg.View.Width = o.width
	}
	if flags.Changed("height") {
		cfg.View.Height = o.height
	}
	if flags.Changed("legend") {
		cfg.View.Legend = o.legend
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}
}

func runRender(ctx context.Context, out io.Writer, cfg *config.Config, opts *renderOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			log.Printf("metrics: %v", err)
		}
	}()

	scene := newScene(cfg)
	fetcher := newFetcher(cfg)

	var written []string
	var writeErr error
	onFrame := func(frame int, img *image.RGBA) {
		if opts.every <= 0 || frame%opts.every != 0 || writeErr != nil {
			return
		}
		path := numberedPath(opts.out, frame)
		if writeErr = render.WritePNG(path, img); writeErr == nil {
			written = append(written, path)
		}
	}

	var last layout.MergeResult
	if opts.duration > 0 {
		runCtx, stop := context.WithTimeout(ctx, opts.duration)
		defer stop()

		driver := engine.NewDriver(scene, fetcher,
			engine.WithFrameInterval(cfg.View.FrameInterval()),
			engine.WithPollInterval(cfg.Source.PollInterval.Duration),
			engine.OnFrame(onFrame),
			engine.OnMerge(func(r layout.MergeResult) { last = r }),
		)
		if err := driver.Run(runCtx); err != nil {
			return err
		}
		if _, err := scene.LastFetch(); err != nil && scene.Store().Len() == 0 {
			return err
		}
	} else {
		records, err := engine.Fetch(ctx, fetcher)
		if err != nil {
			return err
		}
		last = scene.Apply(records)

		start := time.Now()
		for i := 0; i < opts.steps; i++ {
			img := scene.Tick(start.Add(time.Duration(i) * cfg.View.FrameInterval()))
			onFrame(scene.Frames(), img)
		}
	}
	if writeErr != nil {
		return writeErr
	}

	img := scene.Canvas().Image()
	if err := render.WritePNG(opts.out, img); err != nil {
		return err
	}

	fmt.Fprintln(out, ui.Success("wrote %s (%d frames)", opts.out, scene.Frames()))
	if len(written) > 0 {
		fmt.Fprintln(out, ui.Success("wrote %d numbered frames next to it", len(written)))
	}

	if opts.summary {
		if err := writeSummary(out, scene, last); err != nil {
			return err
		}
	}

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
			fmt.Fprint(out, render.Terminal(fitWidth(img, cols)))
		}
	}
	return nil
}

func writeSummary(out io.Writer, scene *engine.Scene, last layout.MergeResult) error {
	stats := scene.Stats()
	view := scene.View()

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Header(" Render Summary "))

	table := tablewriter.NewWriter(out)
	table.Header("Metric", "Value")
	rows := [][]string{
		{"blocks", fmt.Sprint(stats.Blocks)},
		{"connections", fmt.Sprint(stats.Connections)},
		{"health", fmt.Sprintf("%.0f%%", stats.Health*100)},
		{"active", fmt.Sprint(stats.Active)},
		{"frames", fmt.Sprint(scene.Frames())},
		{"zoom", fmt.Sprintf("%d%%", view.Percent())},
		{"last merge added", fmt.Sprint(len(last.Added))},
		{"dangling parents", fmt.Sprint(last.Dangling)},
	}
	for _, row := range rows {
		if err := table.Append(ui.Cyan(row[0]), row[1]); err != nil {
			return err
		}
	}
	return table.Render()
}

// numberedPath turns "dir/tangle.png" into "dir/tangle-0007.png".
func numberedPath(path string, frame int) string {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("%s-%04d%s", strings.TrimSuffix(path, filepath.Ext(path)), frame, ext)
}

// fitWidth scales img down to at most cols pixels wide.
func fitWidth(img image.Image, cols int) image.Image {
	b := img.Bounds()
	if cols <= 0 || b.Dx() <= cols {
		return img
	}
	h := b.Dy() * cols / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, cols, max(h, 2)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
