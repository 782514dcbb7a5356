package engine

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarsh5026/tangleview/pkg/interact"
	"github.com/utkarsh5026/tangleview/pkg/journal"
	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

func rec(id string, parents ...string) tangle.Record {
	return tangle.Record{ID: id, ParentIDs: parents}
}

func newTestScene(opts ...Option) *Scene {
	opts = append([]Option{
		WithStoreOptions(layout.WithSeed(7, 11)),
		WithCanvas(80, 60, 0.1),
	}, opts...)
	return NewScene(layout.DefaultParams(), opts...)
}

func snapshot(s *layout.Store) map[string][2]layout.Vec {
	out := make(map[string][2]layout.Vec)
	for _, n := range s.Nodes() {
		out[n.ID] = [2]layout.Vec{n.Pos, n.Vel}
	}
	return out
}

func TestScene_ApplyKeepsKnownNodes(t *testing.T) {
	s := newTestScene()

	first := s.Apply([]tangle.Record{rec("A")})
	assert.Equal(t, []string{"A"}, first.Added)
	before := snapshot(s.Store())

	second := s.Apply([]tangle.Record{rec("A"), rec("B", "A")})
	assert.Equal(t, []string{"B"}, second.Added)
	assert.Equal(t, 2, second.Nodes)
	assert.Equal(t, []layout.Edge{{From: "A", To: "B", Animated: true}}, s.Store().Edges())
	assert.Equal(t, before["A"], snapshot(s.Store())["A"])

	last, ok := s.Journal().Last(journal.KindMerge)
	require.True(t, ok)
	assert.Equal(t, 1, last.Added)
	assert.Equal(t, 2, last.Nodes)
	assert.Equal(t, 1, last.Edges)

	_, err := s.LastFetch()
	assert.NoError(t, err)
}

func TestScene_FetchFailedLeavesStoreUntouched(t *testing.T) {
	s := newTestScene()
	s.Apply([]tangle.Record{rec("A"), rec("B", "A")})
	before := snapshot(s.Store())

	s.FetchFailed(tangle.NewErrFetchFailed("test", errors.New("offline")))

	assert.Equal(t, before, snapshot(s.Store()))
	_, err := s.LastFetch()
	assert.True(t, tangle.IsFetchFailure(err))

	entry, ok := s.Journal().Last(journal.KindFailure)
	require.True(t, ok)
	assert.Contains(t, entry.Message, "offline")
	assert.Equal(t, 2, entry.Nodes)

	s.FetchFailed(nil)
	assert.Equal(t, 2, s.Journal().Len())
}

func TestScene_TickPausedHoldsPositions(t *testing.T) {
	s := newTestScene()
	s.Apply([]tangle.Record{rec("A"), rec("B", "A"), rec("C", "B")})

	assert.False(t, s.ToggleSimulation())
	before := snapshot(s.Store())

	img := s.Tick(time.Now())
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 80, 60), img.Bounds())
	assert.Equal(t, before, snapshot(s.Store()))
	assert.Equal(t, 1, s.Frames())

	assert.True(t, s.ToggleSimulation())
	s.Tick(time.Now())
	assert.NotEqual(t, before, snapshot(s.Store()))

	control, ok := s.Journal().Last(journal.KindControl)
	require.True(t, ok)
	assert.Equal(t, "play", control.Message)
}

func TestScene_DragHoldsNodeWhileNeighborMoves(t *testing.T) {
	s := newTestScene()
	s.Apply([]tangle.Record{rec("A"), rec("B", "A")})
	require.True(t, s.Store().Move("A", layout.Vec{X: 300, Y: 300}))
	require.True(t, s.Store().Move("B", layout.Vec{X: 400, Y: 300}))

	s.PointerDown(layout.Vec{X: 400, Y: 300})
	assert.Equal(t, interact.Dragging{NodeID: "B"}, s.Controller().Mode())

	// within repulsion range of A
	s.PointerMove(layout.Vec{X: 340, Y: 300}, true)
	s.Tick(time.Now())

	b, _ := s.Store().Node("B")
	assert.Equal(t, layout.Vec{X: 340, Y: 300}, b.Pos)
	assert.Equal(t, layout.Vec{}, b.Vel)

	a, _ := s.Store().Node("A")
	assert.Less(t, a.Pos.X, 300.0)

	selected, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "B", selected.ID)

	s.PointerUp()
	assert.Equal(t, interact.Idle{}, s.Controller().Mode())

	s.ClearSelection()
	_, ok = s.Selected()
	assert.False(t, ok)
}

func TestScene_ViewControls(t *testing.T) {
	s := newTestScene()

	s.ZoomIn()
	assert.InDelta(t, 1.2, s.View().Zoom, 1e-9)
	s.ZoomOut()
	s.ZoomOut()
	assert.InDelta(t, 1/1.2, s.View().Zoom, 1e-9)

	s.Wheel(-1)
	assert.InDelta(t, 1.1/1.2, s.View().Zoom, 1e-9)

	s.ResetView()
	assert.Equal(t, interact.NewViewport(), s.View())

	s.Resize(40, 20, 0.05)
	w, h := s.Canvas().Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)

	s.Resize(0, 10, 1)
	w, _ = s.Canvas().Size()
	assert.Equal(t, 40, w)
}

func TestScene_StabilizeAndReset(t *testing.T) {
	s := newTestScene()
	s.Apply([]tangle.Record{rec("A"), rec("B", "A"), rec("C", "A")})

	s.ResetPositions()
	center := s.Store().Params().Center()
	for _, n := range s.Store().Nodes() {
		d := n.Pos.Dist(center)
		assert.GreaterOrEqual(t, d, 125.0)
		assert.LessOrEqual(t, d, 175.0)
		assert.Equal(t, layout.Vec{}, n.Vel)
	}

	require.True(t, s.Store().Move("A", layout.Vec{X: 100, Y: 100}))
	a, _ := s.Store().Node("A")
	a.Vel = layout.Vec{X: 2, Y: -4}
	s.Stabilize()
	assert.InDelta(t, 0.2, a.Vel.X, 1e-9)
	assert.InDelta(t, -0.4, a.Vel.Y, 1e-9)
}

func TestDriver_EagerFetchThenFrames(t *testing.T) {
	fetcher := tangle.NewStaticFetcher(rec("A"), rec("B", "A"))
	scene := newTestScene()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var frames int
	d := NewDriver(scene, fetcher,
		WithFrameInterval(2*time.Millisecond),
		WithPollInterval(time.Hour),
		OnFrame(func(frame int, img *image.RGBA) {
			frames = frame
			if frame >= 3 {
				cancel()
			}
		}),
	)

	require.NoError(t, d.Run(ctx))
	assert.GreaterOrEqual(t, frames, 3)
	assert.Equal(t, 1, fetcher.Calls())
	assert.Equal(t, 2, scene.Store().Len())
}

func TestDriver_FailedFetchKeepsLayout(t *testing.T) {
	fetcher := tangle.NewStaticFetcher(rec("A"), rec("B", "A")).
		ThenFail(errors.New("connection refused"))
	scene := newTestScene()

	var merged map[string][2]layout.Vec
	d := NewDriver(scene, fetcher,
		WithFrameInterval(time.Hour),
		WithPollInterval(5*time.Millisecond),
		OnMerge(func(r layout.MergeResult) {
			merged = snapshot(scene.Store())
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return fetcher.Calls() >= 3 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.NotNil(t, merged)
	assert.Equal(t, merged, snapshot(scene.Store()))

	_, ok := scene.Journal().Last(journal.KindFailure)
	assert.True(t, ok)
}

func TestDriver_SingleFetchInFlight(t *testing.T) {
	var calls, active, peak atomic.Int32
	release := make(chan struct{})

	fetcher := tangle.FetcherFunc(func(ctx context.Context) ([]tangle.Record, error) {
		calls.Add(1)
		n := active.Add(1)
		defer active.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		select {
		case <-release:
			return []tangle.Record{rec("A")}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	d := NewDriver(newTestScene(), fetcher,
		WithFrameInterval(time.Hour),
		WithPollInterval(time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for i := 0; i < 10; i++ {
		d.Nudge()
		time.Sleep(2 * time.Millisecond)
	}
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), peak.Load())
}

func TestDriver_NudgesTriggerFetch(t *testing.T) {
	fetcher := tangle.NewStaticFetcher(rec("A"))
	nudges := make(chan struct{})

	var merges atomic.Int32
	d := NewDriver(newTestScene(), fetcher,
		WithFrameInterval(time.Hour),
		WithPollInterval(time.Hour),
		WithNudges(nudges),
		OnMerge(func(layout.MergeResult) { merges.Add(1) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return merges.Load() == 1 }, 5*time.Second, time.Millisecond)

	nudges <- struct{}{}
	require.Eventually(t, func() bool { return merges.Load() == 2 }, 5*time.Second, time.Millisecond)

	close(nudges)
	d.Nudge()
	require.Eventually(t, func() bool { return merges.Load() == 3 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, 3, fetcher.Calls())

	cancel()
	require.NoError(t, <-done)
}

func TestDriver_RunReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDriver(newTestScene(), tangle.NewStaticFetcher())

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
