package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/tangleview/pkg/engine"
	"github.com/utkarsh5026/tangleview/pkg/interact"
	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

func newTestModel(t *testing.T, opts ...Option) Model {
	t.Helper()
	scene := engine.NewScene(layout.DefaultParams(), engine.WithStoreOptions(layout.WithSeed(3, 5)))
	return New(context.Background(), scene, tangle.NewStaticFetcher(), opts...)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func records() []tangle.Record {
	return []tangle.Record{
		{ID: "aaaaaaaaaa", Payload: tangle.Payload{"pm25": 40.0, "co2": 410.0}, CreatedAt: 1700000000},
		{ID: "bbbbbbbbbb", ParentIDs: []string{"aaaaaaaaaa"}, Payload: tangle.Payload{"pm25": 8.0}},
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestInit(t *testing.T) {
	m := newTestModel(t)
	assert.NotNil(t, m.Init())
	assert.True(t, m.fetching, "the eager fetch is in flight from the start")
	assert.Equal(t, "\n  Loading tangle...", m.View())
}

func TestFetchResults(t *testing.T) {
	m := newTestModel(t)

	m, cmd := update(t, m, fetchMsg{records: records()})
	assert.NotNil(t, cmd, "first nodes start the frame loop")
	assert.False(t, m.fetching)
	assert.True(t, m.animating)
	assert.Equal(t, 2, m.scene.Store().Len())
	assert.Equal(t, 1, m.mergeCount)

	m, cmd = update(t, m, fetchMsg{records: records()})
	assert.Nil(t, cmd, "frame loop is already running")
	assert.Empty(t, m.lastMerge.Added)

	m, _ = update(t, m, fetchMsg{err: tangle.NewErrFetchFailed("test", errors.New("connection refused"))})
	assert.Equal(t, 2, m.scene.Store().Len())
	_, err := m.scene.LastFetch()
	assert.Error(t, err)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, m.View(), "fetch failed")
}

func TestSingleFetchInFlight(t *testing.T) {
	m := newTestModel(t)

	m, cmd := update(t, m, keyRune('f'))
	assert.Nil(t, cmd, "eager fetch still in flight")

	m, _ = update(t, m, fetchMsg{records: records()})
	m, cmd = update(t, m, keyRune('f'))
	assert.NotNil(t, cmd)
	assert.True(t, m.fetching)

	m, cmd = update(t, m, pollMsg{})
	assert.NotNil(t, cmd, "poll timer is rescheduled")
	assert.True(t, m.fetching)
}

func TestNudges(t *testing.T) {
	nudges := make(chan struct{}, 1)
	m := newTestModel(t, WithNudges(nudges))
	m, _ = update(t, m, fetchMsg{records: records()})

	m, cmd := update(t, m, nudgeMsg{})
	assert.NotNil(t, cmd)
	assert.True(t, m.fetching)

	nudges <- struct{}{}
	assert.Equal(t, nudgeMsg{}, listenForNudge(nudges)())

	close(nudges)
	assert.Nil(t, listenForNudge(nudges)())
	assert.Nil(t, listenForNudge(nil))
}

func TestFrames(t *testing.T) {
	m := newTestModel(t)

	m, cmd := update(t, m, frameMsg(time.Now()))
	assert.Nil(t, cmd, "no frames without nodes")
	assert.False(t, m.animating)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, fetchMsg{records: records()})

	m, cmd = update(t, m, frameMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.NotEmpty(t, m.frame)
	assert.Equal(t, 1, m.scene.Frames())
}

func TestResize(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.True(t, m.ready)
	assert.Equal(t, 69, m.cols)
	assert.Equal(t, 27, m.rows)

	w, h := m.scene.Canvas().Size()
	assert.Equal(t, 69, w)
	assert.Equal(t, 54, h)
	assert.InDelta(t, 69.0/800.0, m.scale, 1e-9)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 3})
	assert.Equal(t, minCols, m.cols)
	assert.Equal(t, minRows, m.rows)
}

func TestKeys(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, m.scene.Running())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Contains(t, m.View(), "PAUSED")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, m.scene.Running())

	m, _ = update(t, m, keyRune('+'))
	assert.InDelta(t, 1.2, m.scene.View().Zoom, 1e-9)
	m, _ = update(t, m, keyRune('-'))
	m, _ = update(t, m, keyRune('-'))
	assert.InDelta(t, 1/1.2, m.scene.View().Zoom, 1e-9)
	m, _ = update(t, m, keyRune('0'))
	assert.Equal(t, interact.NewViewport(), m.scene.View())

	m, _ = update(t, m, fetchMsg{records: records()})
	m, _ = update(t, m, keyRune('r'))
	center := m.scene.Store().Params().Center()
	for _, n := range m.scene.Store().Nodes() {
		assert.InDelta(t, 150, n.Pos.Dist(center), 25.0001)
	}

	m.scene.Controller().Select("aaaaaaaaaa")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	_, ok := m.scene.Selected()
	assert.False(t, ok)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ctx.Err(), "quitting cancels fetches")
	assert.Empty(t, m.View())

	_, cmd = update(t, m, frameMsg(time.Now()))
	assert.Nil(t, cmd, "no frames after quit")
}

func TestMouseDragAndPan(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, fetchMsg{records: records()})

	start, ok := m.toDevice(20, 10)
	require.True(t, ok)
	require.True(t, m.scene.Store().Move("aaaaaaaaaa", start))
	far, _ := m.toDevice(60, 25)
	require.True(t, m.scene.Store().Move("bbbbbbbbbb", far))

	m, _ = update(t, m, tea.MouseMsg{X: 20, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, interact.Dragging{NodeID: "aaaaaaaaaa"}, m.scene.Controller().Mode())

	m, _ = update(t, m, tea.MouseMsg{X: 30, Y: 12, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	target, _ := m.toDevice(30, 12)
	a, _ := m.scene.Store().Node("aaaaaaaaaa")
	assert.Equal(t, target, a.Pos)

	m, _ = update(t, m, tea.MouseMsg{X: 30, Y: 12, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	assert.Equal(t, interact.Idle{}, m.scene.Controller().Mode())
	assert.Contains(t, m.View(), "Block aaaaaa")

	// empty space: press then drag pans
	m, _ = update(t, m, tea.MouseMsg{X: 5, Y: 25, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, selected := m.scene.Selected()
	assert.False(t, selected)
	m, _ = update(t, m, tea.MouseMsg{X: 6, Y: 25, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.Equal(t, interact.Panning{}, m.scene.Controller().Mode())
	assert.InDelta(t, 1/m.scale, m.scene.View().Pan.X, 1e-9)

	// leaving the canvas ends the gesture
	m, _ = update(t, m, tea.MouseMsg{X: 95, Y: 25, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.Equal(t, interact.Idle{}, m.scene.Controller().Mode())
}

func TestMouseWheelAndBlur(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, _ = update(t, m, tea.MouseMsg{X: 10, Y: 10, Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	assert.InDelta(t, 1.1, m.scene.View().Zoom, 1e-9)

	m, _ = update(t, m, tea.MouseMsg{X: 10, Y: 10, Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	assert.InDelta(t, 0.99, m.scene.View().Zoom, 1e-9)

	m, _ = update(t, m, tea.MouseMsg{X: 90, Y: 10, Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	assert.InDelta(t, 0.99, m.scene.View().Zoom, 1e-9, "wheel over the panel is ignored")

	m, _ = update(t, m, tea.MouseMsg{X: 5, Y: 20, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m, _ = update(t, m, tea.BlurMsg{})
	assert.Equal(t, interact.Idle{}, m.scene.Controller().Mode())
}

func TestToDevice(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	p, ok := m.toDevice(0, headerRows)
	require.True(t, ok)
	assert.InDelta(t, 0.5/m.scale, p.X, 1e-9)
	assert.InDelta(t, 1/m.scale, p.Y, 1e-9)

	_, ok = m.toDevice(0, 0)
	assert.False(t, ok, "header row")
	_, ok = m.toDevice(m.cols, headerRows)
	assert.False(t, ok, "detail panel")
}
