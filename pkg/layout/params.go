package layout

import (
	"fmt"
	"math"
)

// Params holds every tunable of the layout simulation.
type Params struct {
	// Width and Height bound the simulation canvas
	Width  float64
	Height float64

	// MinRadius and MaxRadius bound node radii
	MinRadius float64
	MaxRadius float64

	// BoundaryPadding is kept free between a node's edge and the canvas edge
	BoundaryPadding float64

	// Bounce is the fraction of speed kept when a node is pushed back
	// inside the boundary
	Bounce float64

	// CenterThreshold is the distance from the canvas center beyond which
	// the center pull applies
	CenterThreshold float64
	CenterStrength  float64
	CenterCap       float64

	// RepulsionStrength/d² pushes nodes closer than RepulsionCutoff apart
	RepulsionStrength float64
	RepulsionCutoff   float64
	RepulsionCap      float64

	// SpringStrength*(d-SpringLength) pulls a child toward its parent
	SpringStrength float64
	SpringLength   float64
	SpringCap      float64

	// MaxForce caps the summed force, MaxSpeed the resulting velocity
	MaxForce float64
	MaxSpeed float64

	// Damping scales velocity every step
	Damping float64

	// PulseStep advances the pulse phase every step; nodes stop being new
	// once the phase exceeds NewWindow
	PulseStep float64
	NewWindow float64

	// SeedMinDistance and SeedMaxDistance bound the ring around the canvas
	// center where new nodes appear
	SeedMinDistance float64
	SeedMaxDistance float64

	// SeedSpeed is the width of the uniform range of each initial
	// velocity component
	SeedSpeed float64

	// ResetRadius and ResetJitter place nodes on a circle for ResetCircular
	ResetRadius float64
	ResetJitter float64

	// HealthyNodeCount is the node count at which network health reads 100%
	HealthyNodeCount int
}

// DefaultParams returns the standard simulation parameters
func DefaultParams() Params {
	return Params{
		Width:             800,
		Height:            600,
		MinRadius:         12,
		MaxRadius:         25,
		BoundaryPadding:   50,
		Bounce:            0.5,
		CenterThreshold:   200,
		CenterStrength:    0.0001,
		CenterCap:         1,
		RepulsionStrength: 10,
		RepulsionCutoff:   200,
		RepulsionCap:      5,
		SpringStrength:    0.005,
		SpringLength:      80,
		SpringCap:         2,
		MaxForce:          3,
		MaxSpeed:          5,
		Damping:           0.98,
		PulseStep:         0.1,
		NewWindow:         4 * math.Pi,
		SeedMinDistance:   50,
		SeedMaxDistance:   200,
		SeedSpeed:         2,
		ResetRadius:       150,
		ResetJitter:       50,
		HealthyNodeCount:  50,
	}
}

// Center returns the canvas center.
func (p Params) Center() Vec {
	return Vec{p.Width / 2, p.Height / 2}
}

// Bounds returns the allowed range of a node center with radius r.
func (p Params) Bounds(r float64) (lo, hi Vec) {
	margin := r + p.BoundaryPadding
	return Vec{margin, margin}, Vec{p.Width - margin, p.Height - margin}
}

// ErrInvalidParams reports a parameter the simulation cannot run with.
type ErrInvalidParams struct {
	Field  string
	Reason string
}

func (e *ErrInvalidParams) Error() string {
	return fmt.Sprintf("invalid layout parameter '%s': %s", e.Field, e.Reason)
}

// Validate checks that every node fits inside the padded canvas and that
// the caps and factors keep the integrator stable.
func (p Params) Validate() error {
	invalid := func(field, reason string) error {
		return &ErrInvalidParams{Field: field, Reason: reason}
	}
	margin := 2 * (p.MaxRadius + p.BoundaryPadding)

	switch {
	case p.MinRadius <= 0 || p.MaxRadius < p.MinRadius:
		return invalid("max_radius", "radii must be positive with max >= min")
	case p.BoundaryPadding < 0:
		return invalid("boundary_padding", "must not be negative")
	case p.Width <= margin:
		return invalid("width", fmt.Sprintf("must exceed %g, twice the largest radius plus padding", margin))
	case p.Height <= margin:
		return invalid("height", fmt.Sprintf("must exceed %g, twice the largest radius plus padding", margin))
	case p.Bounce < 0 || p.Bounce > 1:
		return invalid("bounce", "must be within [0, 1]")
	case p.Damping < 0 || p.Damping > 1:
		return invalid("damping", "must be within [0, 1]")
	case p.CenterCap <= 0:
		return invalid("center_cap", "must be positive")
	case p.RepulsionCap <= 0:
		return invalid("repulsion_cap", "must be positive")
	case p.SpringCap <= 0:
		return invalid("spring_cap", "must be positive")
	case p.MaxForce <= 0:
		return invalid("max_force", "must be positive")
	case p.MaxSpeed <= 0:
		return invalid("max_speed", "must be positive")
	}
	return nil
}
