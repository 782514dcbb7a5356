package layout

import (
	"image/color"
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// Node is the simulation state of one record.
type Node struct {
	// ID is the record id the node stands for
	ID string

	// Pos and Vel are in simulation coordinates
	Pos Vec
	Vel Vec

	// Radius and Color are derived from the payload once, at creation
	Radius float64
	Color  color.NRGBA

	// ParentIDs is copied from the record
	ParentIDs []string

	// IsNew is set at creation and cleared for good once PulsePhase
	// passes the new-node window
	IsNew      bool
	PulsePhase float64

	// CreatedAt is the record's logical creation time
	CreatedAt int64

	// Record is the record the node was built from
	Record tangle.Record
}

// Contains reports whether p lies within the node's disk.
func (n *Node) Contains(p Vec) bool {
	return n.Pos.Dist(p) <= n.Radius
}

// Edge is a parent to child reference between two known nodes.
type Edge struct {
	From     string
	To       string
	Animated bool
}

// MergeResult describes what a merge changed.
type MergeResult struct {
	// Added lists the ids synthesized by the merge, in snapshot order
	Added []string

	// Nodes and Edges are the totals after the merge
	Nodes int
	Edges int

	// Animated counts edges into nodes added by this merge
	Animated int

	// Dangling counts parent references to ids not yet known
	Dangling int
}

// Stats summarizes the current layout.
type Stats struct {
	Blocks      int
	Connections int
	Health      float64
	Active      int
}

// Store is the long-lived simulation state: one Node per known record id,
// the order nodes were first seen in, and the edges of the last merge.
//
// A Store is not safe for concurrent use. Ticks and merges must run on the
// same goroutine.
type Store struct {
	params Params
	rng    *rand.Rand

	nodes map[string]*Node
	order []string
	edges []Edge
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithSeed makes node placement reproducible
func WithSeed(seed1, seed2 uint64) StoreOption {
	return func(s *Store) {
		s.rng = rand.New(rand.NewPCG(seed1, seed2))
	}
}

// WithRand sets the random source used for node placement
func WithRand(r *rand.Rand) StoreOption {
	return func(s *Store) {
		if r != nil {
			s.rng = r
		}
	}
}

// NewStore creates an empty store
func NewStore(params Params, opts ...StoreOption) *Store {
	now := uint64(time.Now().UnixNano())
	s := &Store{
		params: params,
		rng:    rand.New(rand.NewPCG(now, now>>32|1)),
		nodes:  make(map[string]*Node),
		order:  make([]string, 0),
		edges:  make([]Edge, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Params returns the simulation parameters.
func (s *Store) Params() Params {
	return s.params
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	return len(s.order)
}

// Node returns the node for id.
func (s *Store) Node(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns the nodes in the order they were first seen.
func (s *Store) Nodes() []*Node {
	out := make([]*Node, len(s.order))
	for i, id := range s.order {
		out[i] = s.nodes[id]
	}
	return out
}

// Edges returns the edges built by the last merge.
func (s *Store) Edges() []Edge {
	return s.edges
}

// NodeAt returns the id of the first node, in store order, whose disk
// contains p.
func (s *Store) NodeAt(p Vec) (string, bool) {
	for _, id := range s.order {
		if s.nodes[id].Contains(p) {
			return id, true
		}
	}
	return "", false
}

// Stats summarizes the current layout.
func (s *Store) Stats() Stats {
	active := 0
	for _, e := range s.edges {
		if e.Animated {
			active++
		}
	}

	health := 1.0
	if s.params.HealthyNodeCount > 0 {
		health = math.Min(float64(len(s.order))/float64(s.params.HealthyNodeCount), 1)
	}

	return Stats{
		Blocks:      len(s.order),
		Connections: len(s.edges),
		Health:      health,
		Active:      active,
	}
}

// Merge folds a snapshot of records into the store.
//
// Known ids keep their node untouched. Unknown ids get a fresh node placed
// on the seed ring around the canvas center. Nodes are never removed, even
// when a snapshot omits them. The edge list is rebuilt from every node's
// parents; an edge is animated when its child was added by this merge.
// The new state is assembled aside and swapped in at the end.
func (s *Store) Merge(records []tangle.Record) MergeResult {
	nodes := make(map[string]*Node, len(s.nodes)+len(records))
	maps.Copy(nodes, s.nodes)
	order := slices.Clone(s.order)

	added := make(map[string]bool)
	var addedIDs []string

	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		if _, exists := nodes[rec.ID]; exists {
			continue
		}

		nodes[rec.ID] = s.newNode(rec)
		order = append(order, rec.ID)
		added[rec.ID] = true
		addedIDs = append(addedIDs, rec.ID)
	}

	edges, dangling := buildEdges(nodes, order, added)

	s.nodes = nodes
	s.order = order
	s.edges = edges

	animated := 0
	for _, e := range edges {
		if e.Animated {
			animated++
		}
	}

	return MergeResult{
		Added:    addedIDs,
		Nodes:    len(order),
		Edges:    len(edges),
		Animated: animated,
		Dangling: dangling,
	}
}

// buildEdges emits one edge per distinct, present, non-self parent of every
// node, scanning nodes in order. It also counts the skipped references to
// unknown parents.
func buildEdges(nodes map[string]*Node, order []string, added map[string]bool) ([]Edge, int) {
	edges := make([]Edge, 0, len(order))
	dangling := 0

	for _, id := range order {
		n := nodes[id]
		seen := make(map[string]bool, len(n.ParentIDs))

		for _, parent := range n.ParentIDs {
			if parent == id || seen[parent] {
				continue
			}
			seen[parent] = true

			if _, ok := nodes[parent]; !ok {
				dangling++
				continue
			}

			edges = append(edges, Edge{
				From:     parent,
				To:       id,
				Animated: added[id],
			})
		}
	}

	return edges, dangling
}

func (s *Store) newNode(rec tangle.Record) *Node {
	p := s.params

	angle := s.rng.Float64() * 2 * math.Pi
	distance := p.SeedMinDistance + s.rng.Float64()*(p.SeedMaxDistance-p.SeedMinDistance)
	pos := p.Center().Add(Vec{math.Cos(angle) * distance, math.Sin(angle) * distance})

	vel := Vec{
		(s.rng.Float64() - 0.5) * p.SeedSpeed,
		(s.rng.Float64() - 0.5) * p.SeedSpeed,
	}

	return &Node{
		ID:        rec.ID,
		Pos:       pos,
		Vel:       vel,
		Radius:    p.RadiusFor(rec.Payload),
		Color:     ColorFor(rec.Payload),
		ParentIDs: slices.Clone(rec.ParentIDs),
		IsNew:     true,
		CreatedAt: rec.CreatedAt,
		Record:    rec,
	}
}
