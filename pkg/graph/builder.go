package graph

import (
	"cmp"
	"slices"

	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// Builder assigns lanes to records.
//
// Rows are processed newest first. Each open lane waits for one record
// and no two lanes wait for the same one. A record takes the lane waiting
// for it, hands that lane to its first parent without a lane and opens
// further lanes for its other parents. Parents that already have a lane
// are joined into it.
type Builder struct {
	graph *RecordGraph

	// lanes[i] is the id lane i is waiting for, "" when free
	lanes []string
}

// NewBuilder creates a builder
func NewBuilder() *Builder {
	return &Builder{
		graph: NewRecordGraph(),
		lanes: make([]string, 0, 8),
	}
}

// Build lays out records. Input order does not matter: rows are sorted by
// creation time, newest first, with ties kept in input order. Duplicate
// ids keep their first occurrence.
func (b *Builder) Build(records []tangle.Record) *RecordGraph {
	rows := dedupe(records)
	slices.SortStableFunc(rows, func(x, y tangle.Record) int {
		return cmp.Compare(y.CreatedAt, x.CreatedAt)
	})

	pending := make(map[string]bool, len(rows))
	for _, r := range rows {
		pending[r.ID] = true
	}

	for i, r := range rows {
		delete(pending, r.ID)
		b.place(r, i, pending)
	}

	for _, node := range b.graph.Nodes {
		for _, p := range node.Record.ParentIDs {
			if parent := b.graph.Node(p); parent != nil && parent.Index > node.Index {
				parent.Children = append(parent.Children, node)
			}
		}
	}
	return b.graph
}

func (b *Builder) place(r tangle.Record, index int, pending map[string]bool) {
	lane := b.claim(r.ID)

	node := &GraphNode{
		Record:      r,
		Lane:        lane,
		ParentLanes: make([]int, 0, len(r.ParentIDs)),
		IsJoin:      len(r.ParentIDs) > 1,
		IsGenesis:   len(r.ParentIDs) == 0,
		Index:       index,
	}
	node.Through = b.open(lane)

	b.lanes[lane] = ""
	first := true
	for _, p := range r.ParentIDs {
		if !pending[p] {
			node.Missing++
			continue
		}
		if at := slices.Index(b.lanes, p); at >= 0 {
			node.ParentLanes = append(node.ParentLanes, at)
			continue
		}
		if first {
			b.lanes[lane] = p
			node.ParentLanes = append(node.ParentLanes, lane)
			first = false
			continue
		}
		at := b.free(lane)
		b.lanes[at] = p
		node.ParentLanes = append(node.ParentLanes, at)
	}

	node.Below = b.open(-1)
	b.graph.AddNode(node)
}

// claim returns the lane waiting for id, or a free one when no lane is.
func (b *Builder) claim(id string) int {
	if lane := slices.Index(b.lanes, id); lane >= 0 {
		return lane
	}
	return b.free(-1)
}

// free returns the first free lane other than skip, growing the lane set
// when none is free.
func (b *Builder) free(skip int) int {
	for i, waiting := range b.lanes {
		if waiting == "" && i != skip {
			return i
		}
	}
	b.lanes = append(b.lanes, "")
	return len(b.lanes) - 1
}

// open lists occupied lanes other than skip.
func (b *Builder) open(skip int) []int {
	var out []int
	for i, waiting := range b.lanes {
		if waiting != "" && i != skip {
			out = append(out, i)
		}
	}
	return out
}

func dedupe(records []tangle.Record) []tangle.Record {
	seen := make(map[string]bool, len(records))
	out := make([]tangle.Record, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

// Build is shorthand for NewBuilder().Build(records).
func Build(records []tangle.Record) *RecordGraph {
	return NewBuilder().Build(records)
}
