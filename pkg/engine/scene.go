// Package engine ties the layout store, the pointer controller and the
// renderer into one animated scene, and drives it from a fetch source.
package engine

import (
	"fmt"
	"image"
	"log"
	"time"

	"github.com/utkarsh5026/tangleview/pkg/interact"
	"github.com/utkarsh5026/tangleview/pkg/journal"
	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/metrics"
	"github.com/utkarsh5026/tangleview/pkg/render"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// Scene is the state behind one view: the layout store, the pointer
// controller, the renderer and its canvas.
//
// A Scene is not safe for concurrent use. Ticks, merges and pointer events
// must all be delivered from the same goroutine.
type Scene struct {
	store    *layout.Store
	ctrl     *interact.Controller
	renderer *render.Renderer
	canvas   *render.Canvas
	journal  *journal.Journal

	running bool
	frames  int

	lastFetch time.Time
	lastErr   error
}

// Option configures a Scene
type Option func(*sceneConfig)

type sceneConfig struct {
	storeOpts []layout.StoreOption
	render    render.Options
	journal   *journal.Journal
	width     int
	height    int
	scale     float64
}

// WithStoreOptions passes options to the layout store
func WithStoreOptions(opts ...layout.StoreOption) Option {
	return func(c *sceneConfig) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// WithRenderOptions sets the renderer layers
func WithRenderOptions(opts render.Options) Option {
	return func(c *sceneConfig) {
		c.render = opts
	}
}

// WithJournal records merges into j instead of a private journal
func WithJournal(j *journal.Journal) Option {
	return func(c *sceneConfig) {
		c.journal = j
	}
}

// WithCanvas sets the canvas size in pixels and the pixels per device unit
func WithCanvas(width, height int, scale float64) Option {
	return func(c *sceneConfig) {
		c.width, c.height, c.scale = width, height, scale
	}
}

// NewScene creates a running scene over an empty store.
func NewScene(params layout.Params, opts ...Option) *Scene {
	cfg := sceneConfig{
		render: render.DefaultOptions(),
		width:  int(params.Width),
		height: int(params.Height),
		scale:  1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.journal == nil {
		cfg.journal = journal.New(journal.DefaultCapacity)
	}

	return &Scene{
		store:    layout.NewStore(params, cfg.storeOpts...),
		ctrl:     interact.NewController(),
		renderer: render.NewRenderer(cfg.render),
		canvas:   render.NewCanvas(cfg.width, cfg.height, cfg.scale),
		journal:  cfg.journal,
		running:  true,
	}
}

// Store returns the layout store.
func (s *Scene) Store() *layout.Store {
	return s.store
}

// Controller returns the pointer controller.
func (s *Scene) Controller() *interact.Controller {
	return s.ctrl
}

// Journal returns the merge journal.
func (s *Scene) Journal() *journal.Journal {
	return s.journal
}

// Renderer returns the renderer.
func (s *Scene) Renderer() *render.Renderer {
	return s.renderer
}

// Canvas returns the current canvas.
func (s *Scene) Canvas() *render.Canvas {
	return s.canvas
}

// Resize replaces the canvas. scale is pixels per device unit.
func (s *Scene) Resize(width, height int, scale float64) {
	if width <= 0 || height <= 0 {
		return
	}
	s.canvas = render.NewCanvas(width, height, scale)
}

// Running reports whether physics advances on each tick.
func (s *Scene) Running() bool {
	return s.running
}

// Frames returns how many ticks have been drawn.
func (s *Scene) Frames() int {
	return s.frames
}

// Tick advances the simulation one step when running and draws a frame.
// The returned image is reused by the next tick.
func (s *Scene) Tick(now time.Time) *image.RGBA {
	start := time.Now()

	if s.running {
		s.store.Step(s.ctrl.Pinned())
	}

	selected, _ := s.ctrl.Selected()
	s.renderer.Draw(s.canvas, render.Frame{
		Store:    s.store,
		View:     s.ctrl.View,
		Selected: selected,
		Now:      now,
	})
	s.frames++

	metrics.FrameSeconds.Observe(time.Since(start).Seconds())
	return s.canvas.Image()
}

// Apply merges a snapshot into the store between ticks.
func (s *Scene) Apply(records []tangle.Record) layout.MergeResult {
	result := s.store.Merge(records)
	s.lastFetch = time.Now()
	s.lastErr = nil

	metrics.ObserveLayout(len(result.Added), result.Nodes, result.Edges)
	s.journal.Append(journal.KindMerge, len(result.Added), result.Nodes, result.Edges,
		mergeMessage(len(records), result))

	if len(result.Added) > 0 {
		log.Printf("merge: %d new of %d records, %d nodes, %d edges", len(result.Added), len(records), result.Nodes, result.Edges)
	}
	return result
}

// FetchFailed records a failed fetch. The store is left untouched.
func (s *Scene) FetchFailed(err error) {
	if err == nil {
		return
	}
	s.lastFetch = time.Now()
	s.lastErr = err

	stats := s.store.Stats()
	s.journal.Append(journal.KindFailure, 0, stats.Blocks, stats.Connections, err.Error())
	log.Printf("fetch: %v", err)
}

// LastFetch returns when the last fetch finished and its error, if any.
func (s *Scene) LastFetch() (time.Time, error) {
	return s.lastFetch, s.lastErr
}

// Stats summarizes the layout.
func (s *Scene) Stats() layout.Stats {
	return s.store.Stats()
}

// Selected returns the selected node for the detail panel.
func (s *Scene) Selected() (*layout.Node, bool) {
	id, ok := s.ctrl.Selected()
	if !ok {
		return nil, false
	}
	return s.store.Node(id)
}

// ToggleSimulation pauses or resumes physics and returns the new state.
func (s *Scene) ToggleSimulation() bool {
	s.running = !s.running
	if s.running {
		s.control("play")
	} else {
		s.control("pause")
	}
	return s.running
}

// SetRunning pauses or resumes physics.
func (s *Scene) SetRunning(running bool) {
	s.running = running
}

// Stabilize damps every velocity.
func (s *Scene) Stabilize() {
	s.store.Stabilize()
	s.control("stabilize")
}

// ResetPositions places the nodes on a circle around the center.
func (s *Scene) ResetPositions() {
	s.store.ResetCircular()
	s.control("reset positions")
}

func (s *Scene) ZoomIn()  { s.ctrl.View.ZoomIn() }
func (s *Scene) ZoomOut() { s.ctrl.View.ZoomOut() }

// ResetView restores zoom 1 and no pan.
func (s *Scene) ResetView() {
	s.ctrl.View.Reset()
}

// ClearSelection drops the selected node.
func (s *Scene) ClearSelection() {
	s.ctrl.ClearSelection()
}

// View returns the viewport.
func (s *Scene) View() interact.Viewport {
	return s.ctrl.View
}

// Pointer events, in device coordinates.

func (s *Scene) PointerDown(p layout.Vec) {
	s.ctrl.PointerDown(s.store, p)
}

func (s *Scene) PointerMove(p layout.Vec, primaryHeld bool) {
	s.ctrl.PointerMove(s.store, p, primaryHeld)
}

func (s *Scene) PointerUp()           { s.ctrl.PointerUp() }
func (s *Scene) PointerLeave()        { s.ctrl.PointerLeave() }
func (s *Scene) Wheel(deltaY float64) { s.ctrl.Wheel(deltaY) }

func (s *Scene) control(action string) {
	stats := s.store.Stats()
	s.journal.Append(journal.KindControl, 0, stats.Blocks, stats.Connections, action)
}

func mergeMessage(records int, r layout.MergeResult) string {
	msg := fmt.Sprintf("snapshot of %d", records)
	if r.Animated > 0 {
		msg += fmt.Sprintf(", %d animated", r.Animated)
	}
	if r.Dangling > 0 {
		msg += fmt.Sprintf(", %d dangling", r.Dangling)
	}
	return msg
}
