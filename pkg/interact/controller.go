package interact

import (
	"github.com/utkarsh5026/tangleview/pkg/layout"
)

// Target is the node set the controller hit-tests and drags.
type Target interface {
	NodeAt(p layout.Vec) (string, bool)
	Move(id string, pos layout.Vec) bool
}

// Controller turns pointer events into viewport, selection and drag
// changes. All positions it receives are in device coordinates.
type Controller struct {
	View Viewport

	mode     Mode
	selected string
	last     layout.Vec
	hasLast  bool
}

// NewController creates a controller with the identity viewport
func NewController() *Controller {
	return &Controller{
		View: NewViewport(),
		mode: Idle{},
	}
}

// Mode returns the current interaction mode.
func (c *Controller) Mode() Mode {
	if c.mode == nil {
		return Idle{}
	}
	return c.mode
}

// Selected returns the selected node id.
func (c *Controller) Selected() (string, bool) {
	return c.selected, c.selected != ""
}

// Select marks id as selected; an empty id clears the selection.
func (c *Controller) Select(id string) {
	c.selected = id
}

// ClearSelection drops the selection.
func (c *Controller) ClearSelection() {
	c.selected = ""
}

// Pinned returns the id of the node held by the pointer, or "".
func (c *Controller) Pinned() string {
	if d, ok := c.mode.(Dragging); ok {
		return d.NodeID
	}
	return ""
}

// PointerDown starts a drag when p hits a node. A miss clears the
// selection and remembers p as the origin of a possible pan.
func (c *Controller) PointerDown(t Target, p layout.Vec) {
	c.last, c.hasLast = p, true

	if id, ok := t.NodeAt(c.View.ToWorld(p)); ok {
		c.mode = Dragging{NodeID: id}
		c.selected = id
		return
	}

	c.selected = ""
	c.mode = Idle{}
}

// PointerMove drags the held node to p, or pans by the pointer delta when
// the primary button is held over empty space.
func (c *Controller) PointerMove(t Target, p layout.Vec, primaryHeld bool) {
	defer func() { c.last, c.hasLast = p, true }()

	switch m := c.Mode().(type) {
	case Dragging:
		if !t.Move(m.NodeID, c.View.ToWorld(p)) {
			c.mode = Idle{}
		}
	case Panning:
		if !primaryHeld {
			c.mode = Idle{}
			return
		}
		c.pan(p)
	case Idle:
		if primaryHeld && c.hasLast {
			c.mode = Panning{}
			c.pan(p)
		}
	}
}

// PointerUp ends any drag or pan. The selection is kept.
func (c *Controller) PointerUp() {
	c.mode = Idle{}
}

// PointerLeave behaves like PointerUp and forgets the last position.
func (c *Controller) PointerLeave() {
	c.mode = Idle{}
	c.hasLast = false
}

// Wheel zooms in for negative deltaY (scroll up) and out for positive.
func (c *Controller) Wheel(deltaY float64) {
	switch {
	case deltaY < 0:
		c.View.ZoomBy(WheelZoomIn)
	case deltaY > 0:
		c.View.ZoomBy(WheelZoomOut)
	}
}

func (c *Controller) pan(p layout.Vec) {
	c.View.Pan = c.View.Pan.Add(p.Sub(c.last))
}
