// Package graph lays a tangle out as text: one row per record, newest
// first, with each line of ancestry kept in its own lane.
package graph

import "github.com/utkarsh5026/tangleview/pkg/tangle"

// GraphNode is one record placed in the lane graph
type GraphNode struct {
	// Record is the record drawn on this row
	Record tangle.Record

	// Lane is the column the record's marker sits in
	Lane int

	// ParentLanes holds the lane each listed parent continues in, in
	// parent order. Parents outside the record set are left out.
	ParentLanes []int

	// Through lists the other lanes whose lines pass this row
	Through []int

	// Below lists the lanes still open under this row
	Below []int

	// IsJoin is set when the record approves two or more parents
	IsJoin bool

	// IsGenesis is set when the record has no parents
	IsGenesis bool

	// Missing counts parents that are not in the record set
	Missing int

	// Children are the rows that list this record as a parent
	Children []*GraphNode

	// Index is the row number (0 = newest)
	Index int
}

// RecordGraph is the row and lane structure of a record set
type RecordGraph struct {
	Nodes   []*GraphNode
	MaxLane int
	byID    map[string]*GraphNode
}

// NewRecordGraph creates an empty graph
func NewRecordGraph() *RecordGraph {
	return &RecordGraph{
		Nodes: make([]*GraphNode, 0),
		byID:  make(map[string]*GraphNode),
	}
}

// AddNode appends a row
func (g *RecordGraph) AddNode(node *GraphNode) {
	g.Nodes = append(g.Nodes, node)
	g.byID[node.Record.ID] = node
	g.MaxLane = max(g.MaxLane, node.Lane)
	for _, lane := range node.ParentLanes {
		g.MaxLane = max(g.MaxLane, lane)
	}
}

// Node looks a row up by record id
func (g *RecordGraph) Node(id string) *GraphNode {
	return g.byID[id]
}

// Width returns the number of lanes
func (g *RecordGraph) Width() int {
	if len(g.Nodes) == 0 {
		return 0
	}
	return g.MaxLane + 1
}

// Height returns the number of rows
func (g *RecordGraph) Height() int {
	return len(g.Nodes)
}
