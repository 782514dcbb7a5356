package interact

import (
	"math"

	"github.com/utkarsh5026/tangleview/pkg/layout"
)

// Zoom limits and step factors
const (
	MinZoom = 0.1
	MaxZoom = 3.0

	ZoomStep     = 1.2
	WheelZoomIn  = 1.1
	WheelZoomOut = 0.9
)

// Viewport maps simulation coordinates to device coordinates:
// device = world*Zoom + Pan.
type Viewport struct {
	Zoom float64
	Pan  layout.Vec
}

// NewViewport returns the identity viewport
func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

// ToWorld converts a device position to simulation coordinates.
func (v Viewport) ToWorld(device layout.Vec) layout.Vec {
	return device.Sub(v.Pan).Scale(1 / v.zoom())
}

// ToDevice converts a simulation position to device coordinates.
func (v Viewport) ToDevice(world layout.Vec) layout.Vec {
	return world.Scale(v.zoom()).Add(v.Pan)
}

// ZoomBy multiplies the zoom by factor, keeping it within limits.
func (v *Viewport) ZoomBy(factor float64) {
	v.Zoom = clampZoom(v.zoom() * factor)
}

// ZoomIn zooms in one step.
func (v *Viewport) ZoomIn() {
	v.ZoomBy(ZoomStep)
}

// ZoomOut zooms out one step.
func (v *Viewport) ZoomOut() {
	v.ZoomBy(1 / ZoomStep)
}

// Reset restores zoom 1 and no pan.
func (v *Viewport) Reset() {
	v.Zoom = 1
	v.Pan = layout.Vec{}
}

// Percent returns the zoom as a rounded percentage.
func (v Viewport) Percent() int {
	return int(math.Round(v.zoom() * 100))
}

func (v Viewport) zoom() float64 {
	if v.Zoom == 0 {
		return 1
	}
	return v.Zoom
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(z, MaxZoom))
}
