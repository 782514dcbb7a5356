// Package tui hosts an engine.Scene in the terminal. The bubbletea update
// loop is the scene's only scheduler: frames, fetch results, poll timers
// and event nudges all arrive as messages on the same goroutine.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/utkarsh5026/tangleview/pkg/engine"
	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/metrics"
	"github.com/utkarsh5026/tangleview/pkg/render"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// Screen layout in cells
const (
	headerRows = 1
	footerRows = 2
	panelWidth = 30
	minCols    = 10
	minRows    = 4
)

// frameMsg asks for the next animation frame.
type frameMsg time.Time

// pollMsg fires every poll interval.
type pollMsg struct{}

// nudgeMsg is delivered when a block event asks for an early fetch.
type nudgeMsg struct{}

// fetchMsg carries the outcome of one fetch back into the loop.
type fetchMsg struct {
	records []tangle.Record
	err     error
}

// Model is the bubbletea model for the watch view.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	scene   *engine.Scene
	fetcher tangle.Fetcher
	nudges  <-chan struct{}

	frameInterval time.Duration
	pollInterval  time.Duration

	help help.Model

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	// Canvas area in cells and pixels per device unit.
	cols  int
	rows  int
	scale float64
	frame string

	fetching   bool
	animating  bool
	quitting   bool
	lastMerge  layout.MergeResult
	mergeCount int
}

// Option configures a Model
type Option func(*Model)

// WithFrameInterval sets the time between frames
func WithFrameInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.frameInterval = d
		}
	}
}

// WithPollInterval sets the time between fetches
func WithPollInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithNudges fetches early whenever a value arrives on ch
func WithNudges(ch <-chan struct{}) Option {
	return func(m *Model) {
		m.nudges = ch
	}
}

// WithLabels draws node labels on the canvas. Off by default: a cell is
// too coarse for text.
func WithLabels(on bool) Option {
	return func(m *Model) {
		opts := m.scene.Renderer().Options()
		opts.Labels = on
		m.scene.Renderer().SetOptions(opts)
	}
}

// New creates the watch model. Cancelling ctx, or quitting, stops the
// in-flight fetch.
func New(ctx context.Context, scene *engine.Scene, fetcher tangle.Fetcher, opts ...Option) Model {
	ctx, cancel := context.WithCancel(ctx)
	scene.Renderer().SetOptions(render.Options{})

	m := Model{
		ctx:           ctx,
		cancel:        cancel,
		scene:         scene,
		fetcher:       fetcher,
		frameInterval: engine.DefaultFrameInterval,
		pollInterval:  engine.DefaultPollInterval,
		help:          help.New(),
		scale:         1,
		fetching:      true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Scene returns the hosted scene.
func (m Model) Scene() *engine.Scene {
	return m.scene
}

// Init implements tea.Model. Fetches once immediately, starts the poll
// timer and listens for nudges.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		fetchRecords(m.ctx, m.fetcher),
		schedulePoll(m.pollInterval),
		listenForNudge(m.nudges),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.BlurMsg:
		m.scene.PointerLeave()
		return m, nil

	case frameMsg:
		if m.scene.Store().Len() == 0 {
			m.animating = false
			return m, nil
		}
		img := m.scene.Tick(time.Time(msg))
		if m.ready {
			m.frame = render.Terminal(img)
		}
		return m, scheduleFrame(m.frameInterval)

	case fetchMsg:
		m.fetching = false
		if msg.err != nil {
			m.scene.FetchFailed(msg.err)
			return m, nil
		}
		m.lastMerge = m.scene.Apply(msg.records)
		m.mergeCount++
		return m, m.startFrames()

	case pollMsg:
		return m, tea.Batch(m.fetch(), schedulePoll(m.pollInterval))

	case nudgeMsg:
		metrics.NudgesTotal.Inc()
		return m, tea.Batch(m.fetch(), listenForNudge(m.nudges))
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, keys.Toggle):
		m.scene.ToggleSimulation()

	case key.Matches(msg, keys.Stabilize):
		m.scene.Stabilize()

	case key.Matches(msg, keys.Reset):
		m.scene.ResetPositions()

	case key.Matches(msg, keys.ZoomIn):
		m.scene.ZoomIn()

	case key.Matches(msg, keys.ZoomOut):
		m.scene.ZoomOut()

	case key.Matches(msg, keys.ResetView):
		m.scene.ResetView()

	case key.Matches(msg, keys.Deselect):
		m.scene.ClearSelection()

	case key.Matches(msg, keys.Fetch):
		return m, m.fetch()
	}
	return m, nil
}

// handleMouse maps cell events on the canvas to pointer events. Leaving
// the canvas counts as leaving the surface.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	p, inside := m.toDevice(msg.X, msg.Y)

	switch {
	case tea.MouseEvent(msg).IsWheel():
		if !inside {
			return
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scene.Wheel(-1)
		case tea.MouseButtonWheelDown:
			m.scene.Wheel(1)
		}

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if inside {
			m.scene.PointerDown(p)
		}

	case msg.Action == tea.MouseActionMotion:
		if !inside {
			m.scene.PointerLeave()
			return
		}
		m.scene.PointerMove(p, msg.Button == tea.MouseButtonLeft)

	case msg.Action == tea.MouseActionRelease:
		m.scene.PointerUp()
	}
}

// toDevice maps a terminal cell to device coordinates. Each cell covers
// one pixel column and two pixel rows; the cell center is used.
func (m Model) toDevice(x, y int) (layout.Vec, bool) {
	cx, cy := x, y-headerRows
	if cx < 0 || cy < 0 || cx >= m.cols || cy >= m.rows {
		return layout.Vec{}, false
	}
	px := float64(cx) + 0.5
	py := float64(cy)*2 + 1
	return layout.Vec{X: px / m.scale, Y: py / m.scale}, true
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.ready = true
	m.help.Width = width

	m.cols = max(width-panelWidth-1, minCols)
	m.rows = max(height-headerRows-footerRows, minRows)

	params := m.scene.Store().Params()
	w, h := render.TerminalSize(m.cols, m.rows)
	m.scale = render.FitScale(w, h, params.Width, params.Height)
	m.scene.Resize(w, h, m.scale)
}

// fetch starts a fetch unless one is already in flight.
func (m *Model) fetch() tea.Cmd {
	if m.fetching {
		return nil
	}
	m.fetching = true
	return fetchRecords(m.ctx, m.fetcher)
}

// startFrames schedules the frame loop when it is idle and there is
// something to draw.
func (m *Model) startFrames() tea.Cmd {
	if m.animating || m.scene.Store().Len() == 0 {
		return nil
	}
	m.animating = true
	return scheduleFrame(m.frameInterval)
}

func fetchRecords(ctx context.Context, f tangle.Fetcher) tea.Cmd {
	return func() tea.Msg {
		records, err := engine.Fetch(ctx, f)
		return fetchMsg{records: records, err: err}
	}
}

func scheduleFrame(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func schedulePoll(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

// listenForNudge blocks until a nudge arrives. A closed or nil channel
// ends the listening.
func listenForNudge(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return nudgeMsg{}
	}
}
