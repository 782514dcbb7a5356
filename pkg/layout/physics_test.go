package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

func TestStep_ContainmentAndSpeed(t *testing.T) {
	p := DefaultParams()
	s := NewStore(p, WithSeed(21, 22))
	s.Merge(chain(60))

	// push a few nodes outside the canvas with high speed
	s.nodes["n000"].Pos = Vec{-100, -100}
	s.nodes["n001"].Pos = Vec{2000, 900}
	s.nodes["n002"].Vel = Vec{40, -40}

	for step := 0; step < 500; step++ {
		s.Step("")

		for _, n := range s.Nodes() {
			lo, hi := p.Bounds(n.Radius)
			require.GreaterOrEqual(t, n.Pos.X, lo.X, "step %d node %s", step, n.ID)
			require.LessOrEqual(t, n.Pos.X, hi.X, "step %d node %s", step, n.ID)
			require.GreaterOrEqual(t, n.Pos.Y, lo.Y, "step %d node %s", step, n.ID)
			require.LessOrEqual(t, n.Pos.Y, hi.Y, "step %d node %s", step, n.ID)
			require.LessOrEqual(t, n.Vel.Len(), p.MaxSpeed+1e-9, "step %d node %s", step, n.ID)
		}
	}
}

func TestStep_NewFlagClearsAfterWindow(t *testing.T) {
	s := NewStore(DefaultParams(), WithSeed(23, 24))
	s.Merge([]tangle.Record{rec("A")})
	n, _ := s.Node("A")

	wasOld := false
	for step := 1; step <= 200; step++ {
		s.Step("")
		if wasOld {
			require.False(t, n.IsNew, "node became new again at step %d", step)
		}
		if !n.IsNew {
			wasOld = true
		}

		if step == 125 {
			assert.True(t, n.IsNew)
		}
		if step == 127 {
			assert.False(t, n.IsNew)
		}
	}
	assert.InDelta(t, 20.0, n.PulsePhase, 1e-6)

	s.Merge([]tangle.Record{rec("A")})
	assert.False(t, n.IsNew)
}

func TestStep_PinnedNodeIsHeld(t *testing.T) {
	s := NewStore(DefaultParams(), WithSeed(25, 26))
	s.Merge([]tangle.Record{rec("A"), rec("B", "A")})

	s.Move("B", Vec{700, 300})
	b, _ := s.Node("B")

	for i := 0; i < 10; i++ {
		s.Step("B")
	}

	assert.Equal(t, Vec{700, 300}, b.Pos)
	assert.Equal(t, Vec{}, b.Vel)
	assert.InDelta(t, 1.0, b.PulsePhase, 1e-9)
}

func TestStep_SpringMovesOnlyChild(t *testing.T) {
	s := NewStore(DefaultParams(), WithSeed(27, 28))
	s.Merge([]tangle.Record{rec("A"), rec("B", "A")})

	s.Move("A", Vec{400, 300})
	s.Move("B", Vec{650, 300})
	a, _ := s.Node("A")
	b, _ := s.Node("B")

	s.Step("")
	assert.Equal(t, Vec{400, 300}, a.Pos, "parent at center, out of repulsion range")
	assert.Equal(t, Vec{}, a.Vel)
	assert.Less(t, b.Pos.X, 650.0)

	s.Move("B", Vec{650, 300})
	for i := 0; i < 60; i++ {
		s.Step("B")
	}
	assert.Equal(t, Vec{400, 300}, a.Pos, "holding the child does not drag the parent")
}

func TestStep_DampingConvergence(t *testing.T) {
	s := NewStore(DefaultParams(), WithSeed(29, 30))
	s.Merge([]tangle.Record{rec("A"), rec("B"), rec("C")})

	s.nodes["A"].Pos = Vec{250, 300}
	s.nodes["B"].Pos = Vec{550, 300}
	s.nodes["C"].Pos = Vec{400, 150}
	for _, n := range s.Nodes() {
		n.Vel = Vec{0.2, -0.2}
	}

	for i := 0; i < 1000; i++ {
		s.Step("")
	}

	energy := 0.0
	for _, n := range s.Nodes() {
		energy += 0.5 * (n.Vel.X*n.Vel.X + n.Vel.Y*n.Vel.Y)
	}
	assert.Less(t, energy, 1e-6)
}

func TestStep_OrderIndependent(t *testing.T) {
	layoutOf := func(ids []string) map[string]Vec {
		s := NewStore(DefaultParams(), WithSeed(31, 32))
		records := make([]tangle.Record, len(ids))
		for i, id := range ids {
			records[i] = rec(id)
		}
		s.Merge(records)

		start := map[string]Vec{
			"A": {300, 300}, "B": {340, 310}, "C": {360, 250}, "D": {420, 330},
		}
		for id, pos := range start {
			s.Move(id, pos)
		}
		for i := 0; i < 50; i++ {
			s.Step("")
		}
		return positions(s)
	}

	forward := layoutOf([]string{"A", "B", "C", "D"})
	backward := layoutOf([]string{"D", "C", "B", "A"})

	for id, pos := range forward {
		assert.InDelta(t, pos.X, backward[id].X, 1e-9, id)
		assert.InDelta(t, pos.Y, backward[id].Y, 1e-9, id)
	}
}

func TestStep_ForcesAreClamped(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *Store)
		node  string
		check func(t *testing.T, f Vec)
	}{
		{
			name: "near nodes repel at cap",
			setup: func(s *Store) {
				s.Move("A", Vec{400, 300})
				s.Move("B", Vec{400.5, 300})
			},
			node: "A",
			check: func(t *testing.T, f Vec) {
				assert.InDelta(t, -5.0, f.X, 1e-9)
				assert.InDelta(t, 0.0, f.Y, 1e-9)
			},
		},
		{
			name: "distant nodes ignore each other",
			setup: func(s *Store) {
				s.Move("A", Vec{300, 300})
				s.Move("B", Vec{500, 300})
			},
			node: "A",
			check: func(t *testing.T, f Vec) {
				assert.Equal(t, Vec{}, f)
			},
		},
		{
			name: "center pull only past threshold",
			setup: func(s *Store) {
				s.Move("A", Vec{100, 300})
				s.Move("B", Vec{700, 300})
			},
			node: "A",
			check: func(t *testing.T, f Vec) {
				assert.InDelta(t, 300*0.0001, f.X, 1e-12)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(DefaultParams(), WithSeed(33, 34))
			s.Merge([]tangle.Record{rec("A"), rec("B")})
			tt.setup(s)

			forces := s.forces("")
			tt.check(t, forces[indexOf(s, tt.node)])
		})
	}
}

func TestStep_SpringPullsChildAndIsCapped(t *testing.T) {
	s := NewStore(DefaultParams(), WithSeed(35, 36))
	s.Merge([]tangle.Record{rec("A"), rec("B", "A")})
	s.Move("A", Vec{250, 300})
	s.Move("B", Vec{550, 300})

	forces := s.forces("")
	fa := forces[indexOf(s, "A")]
	fb := forces[indexOf(s, "B")]

	// 0.005*(300-80) = 1.1, below the spring cap
	assert.Equal(t, Vec{}, fa)
	assert.InDelta(t, -1.1, fb.X, 1e-9)

	s.Move("B", Vec{750, 300})
	s.Move("A", Vec{50, 300})
	forces = s.forces("")
	fa = forces[indexOf(s, "A")]
	fb = forces[indexOf(s, "B")]
	assert.InDelta(t, 350*0.0001, fa.X, 1e-9)
	assert.InDelta(t, -2.0-350*0.0001, fb.X, 1e-9)
}

func TestStabilizeAndReset(t *testing.T) {
	p := DefaultParams()
	s := NewStore(p, WithSeed(37, 38))
	s.Merge(chain(8))

	for _, n := range s.Nodes() {
		n.Vel = Vec{3, 4}
	}
	before := positions(s)

	s.Stabilize()
	for _, n := range s.Nodes() {
		assert.InDelta(t, 0.5, n.Vel.Len(), 1e-9)
	}
	assert.Equal(t, before, positions(s))

	s.ResetCircular()
	for i, n := range s.Nodes() {
		assert.Equal(t, Vec{}, n.Vel)

		offset := n.Pos.Sub(p.Center())
		assert.InDelta(t, p.ResetRadius, offset.Len(), p.ResetJitter/2+1e-9)

		want := float64(i) / 8 * 2 * math.Pi
		got := math.Atan2(offset.Y, offset.X)
		if got < 0 {
			got += 2 * math.Pi
		}
		assert.InDelta(t, want, got, 1e-9, n.ID)
	}
}

func chain(n int) []tangle.Record {
	records := make([]tangle.Record, n)
	for i := range records {
		id := fmt.Sprintf("n%03d", i)
		if i == 0 {
			records[i] = rec(id)
			continue
		}
		records[i] = rec(id, fmt.Sprintf("n%03d", i-1))
	}
	return records
}

func indexOf(s *Store, id string) int {
	for i, other := range s.order {
		if other == id {
			return i
		}
	}
	return -1
}
