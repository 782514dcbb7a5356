package journal

import (
	"time"
)

// Kind tells what happened to the layout
type Kind int

const (
	// KindMerge is a successful snapshot merge
	KindMerge Kind = iota
	// KindFailure is a fetch that left the layout untouched
	KindFailure
	// KindControl is an operator action such as a reset
	KindControl
)

// String returns the journal token of the kind
func (k Kind) String() string {
	switch k {
	case KindMerge:
		return "merge"
	case KindFailure:
		return "failure"
	case KindControl:
		return "control"
	default:
		return "unknown"
	}
}

// ParseKind parses a journal token
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "merge":
		return KindMerge, true
	case "failure":
		return KindFailure, true
	case "control":
		return KindControl, true
	default:
		return 0, false
	}
}

// Entry represents a single journal entry
type Entry struct {
	// Timestamp is when the event happened
	Timestamp time.Time

	// Kind is what happened
	Kind Kind

	// Added is the number of nodes a merge created
	Added int

	// Nodes and Edges are the layout totals after the event
	Nodes int
	Edges int

	// Message describes the event
	Message string
}
