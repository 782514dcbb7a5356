package engine

import (
	"context"
	"image"
	"time"

	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/metrics"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// Default driver timing
const (
	DefaultFrameInterval = time.Second / 30
	DefaultPollInterval  = 15 * time.Second
)

// FrameFunc receives every rendered frame and its index. The image is
// reused by the next frame.
type FrameFunc func(frame int, img *image.RGBA)

// MergeFunc receives the outcome of every successful merge.
type MergeFunc func(result layout.MergeResult)

// Driver runs a Scene headlessly: one loop goroutine owns the scene and
// selects over the frame ticker, the poll ticker, nudges and fetch
// results. The fetch round trip runs on its own goroutine and never blocks
// frames; at most one fetch is in flight.
type Driver struct {
	scene   *Scene
	fetcher tangle.Fetcher

	frameInterval time.Duration
	pollInterval  time.Duration
	nudges        <-chan struct{}
	nudge         chan struct{}

	onFrame FrameFunc
	onMerge MergeFunc
}

// DriverOption configures a Driver
type DriverOption func(*Driver)

// WithFrameInterval sets the time between frames
func WithFrameInterval(d time.Duration) DriverOption {
	return func(dr *Driver) {
		if d > 0 {
			dr.frameInterval = d
		}
	}
}

// WithPollInterval sets the time between fetches
func WithPollInterval(d time.Duration) DriverOption {
	return func(dr *Driver) {
		if d > 0 {
			dr.pollInterval = d
		}
	}
}

// WithNudges triggers an immediate fetch for every value received on ch
func WithNudges(ch <-chan struct{}) DriverOption {
	return func(dr *Driver) {
		dr.nudges = ch
	}
}

// OnFrame registers a callback for rendered frames
func OnFrame(fn FrameFunc) DriverOption {
	return func(dr *Driver) {
		dr.onFrame = fn
	}
}

// OnMerge registers a callback for merges
func OnMerge(fn MergeFunc) DriverOption {
	return func(dr *Driver) {
		dr.onMerge = fn
	}
}

// NewDriver creates a driver for scene fed by fetcher.
func NewDriver(scene *Scene, fetcher tangle.Fetcher, opts ...DriverOption) *Driver {
	d := &Driver{
		scene:         scene,
		fetcher:       fetcher,
		frameInterval: DefaultFrameInterval,
		pollInterval:  DefaultPollInterval,
		nudge:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Scene returns the driven scene. Only touch it from OnFrame or OnMerge
// callbacks while Run is active.
func (d *Driver) Scene() *Scene {
	return d.scene
}

// Nudge requests an immediate fetch. Safe to call from any goroutine;
// nudges arriving while one is pending are coalesced.
func (d *Driver) Nudge() {
	select {
	case d.nudge <- struct{}{}:
	default:
	}
}

type fetchResult struct {
	records []tangle.Record
	err     error
}

// Run fetches once immediately, then keeps drawing frames and polling
// until ctx is done. Frames start once the store has nodes. The frame
// ticker and the poll ticker stop together when Run returns.
func (d *Driver) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	poll := time.NewTicker(d.pollInterval)
	defer poll.Stop()

	frame := time.NewTicker(d.frameInterval)
	frame.Stop()
	defer frame.Stop()
	var frames <-chan time.Time

	results := make(chan fetchResult, 1)
	inFlight := false
	fetch := func() {
		if inFlight {
			return
		}
		inFlight = true
		go func() {
			records, err := Fetch(ctx, d.fetcher)
			results <- fetchResult{records: records, err: err}
		}()
	}

	schedule := func() {
		if frames == nil && d.scene.Store().Len() > 0 {
			frame.Reset(d.frameInterval)
			frames = frame.C
		}
	}

	fetch()
	schedule()

	nudges := d.nudges
	for {
		select {
		case <-ctx.Done():
			return nil

		case now := <-frames:
			img := d.scene.Tick(now)
			if d.onFrame != nil {
				d.onFrame(d.scene.Frames(), img)
			}

		case <-poll.C:
			fetch()

		case <-d.nudge:
			metrics.NudgesTotal.Inc()
			fetch()

		case _, ok := <-nudges:
			if !ok {
				nudges = nil
				continue
			}
			metrics.NudgesTotal.Inc()
			fetch()

		case res := <-results:
			inFlight = false
			if ctx.Err() != nil {
				return nil
			}
			if res.err != nil {
				d.scene.FetchFailed(res.err)
				continue
			}
			result := d.scene.Apply(res.records)
			if d.onMerge != nil {
				d.onMerge(result)
			}
			schedule()
		}
	}
}

// Fetch runs one fetch and records its outcome in the fetch metrics.
func Fetch(ctx context.Context, f tangle.Fetcher) ([]tangle.Record, error) {
	started := time.Now()
	records, err := f.FetchRecords(ctx)
	metrics.ObserveFetch(started, err)
	return records, err
}
