package interact

// Mode is the pointer interaction state. Exactly one mode is active at a
// time: Idle, Dragging or Panning.
type Mode interface {
	mode()
	String() string
}

// Idle means the pointer is not manipulating anything.
type Idle struct{}

// Dragging means the pointer holds a node.
type Dragging struct {
	NodeID string
}

// Panning means the pointer is moving the viewport.
type Panning struct{}

func (Idle) mode()     {}
func (Dragging) mode() {}
func (Panning) mode()  {}

func (Idle) String() string       { return "idle" }
func (d Dragging) String() string { return "dragging " + d.NodeID }
func (Panning) String() string    { return "panning" }
