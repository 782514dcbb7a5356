package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(p *Params)
		wantField string
	}{
		{"defaults", func(p *Params) {}, ""},
		{"canvas smaller than a node", func(p *Params) { p.Width, p.Height = 100, 100 }, "width"},
		{"short canvas", func(p *Params) { p.Height = 150 }, "height"},
		{"negative padding", func(p *Params) { p.BoundaryPadding = -1 }, "boundary_padding"},
		{"radius order", func(p *Params) { p.MaxRadius = 5 }, "max_radius"},
		{"bounce above one", func(p *Params) { p.Bounce = 2 }, "bounce"},
		{"negative damping", func(p *Params) { p.Damping = -0.1 }, "damping"},
		{"zero center cap", func(p *Params) { p.CenterCap = 0 }, "center_cap"},
		{"negative repulsion cap", func(p *Params) { p.RepulsionCap = -5 }, "repulsion_cap"},
		{"negative spring cap", func(p *Params) { p.SpringCap = -2 }, "spring_cap"},
		{"negative max force", func(p *Params) { p.MaxForce = -3 }, "max_force"},
		{"negative max speed", func(p *Params) { p.MaxSpeed = -5 }, "max_speed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var invalid *ErrInvalidParams
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.wantField, invalid.Field)
		})
	}
}

func TestParams_SmallestValidCanvasContainsNodes(t *testing.T) {
	p := DefaultParams()
	p.Width, p.Height = 151, 151
	require.NoError(t, p.Validate())

	s := NewStore(p, WithSeed(41, 42))
	s.Merge(chain(6))

	for i := 0; i < 50; i++ {
		s.Step("")
		for _, n := range s.Nodes() {
			lo, hi := p.Bounds(n.Radius)
			assert.LessOrEqual(t, lo.X, hi.X)
			assert.True(t, n.Pos.X >= lo.X && n.Pos.X <= hi.X, "x out of bounds for %s", n.ID)
			assert.True(t, n.Pos.Y >= lo.Y && n.Pos.Y <= hi.Y, "y out of bounds for %s", n.ID)
			assert.LessOrEqual(t, n.Vel.Len(), p.MaxSpeed+1e-9)
		}
	}
}
