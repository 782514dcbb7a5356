package layout

import "math"

// Step advances every node by one simulation step.
//
// Forces for all nodes are computed from start-of-step positions, then
// applied, so the outcome does not depend on iteration order. The node
// named by pinned is held by the pointer: it receives no force and keeps
// its position and velocity, but its pulse still advances.
func (s *Store) Step(pinned string) {
	p := s.params
	forces := s.forces(pinned)

	for i, id := range s.order {
		n := s.nodes[id]

		n.PulsePhase += p.PulseStep
		if n.IsNew && n.PulsePhase > p.NewWindow {
			n.IsNew = false
		}

		if id == pinned {
			continue
		}

		f := forces[i].ClampLen(p.MaxForce)
		n.Vel = n.Vel.Add(f).ClampLen(p.MaxSpeed).Scale(p.Damping)
		n.Pos = n.Pos.Add(n.Vel)
		s.contain(n)
	}
}

// forces computes the clamped force contributions acting on every node,
// indexed like s.order.
func (s *Store) forces(pinned string) []Vec {
	p := s.params
	center := p.Center()
	forces := make([]Vec, len(s.order))
	index := make(map[string]int, len(s.order))

	for i, id := range s.order {
		index[id] = i
	}

	for i, id := range s.order {
		if id == pinned {
			continue
		}
		n := s.nodes[id]

		offset := center.Sub(n.Pos)
		if offset.Len() > p.CenterThreshold {
			forces[i] = forces[i].Add(offset.Scale(p.CenterStrength).ClampLen(p.CenterCap))
		}

		for j, otherID := range s.order {
			if i == j {
				continue
			}
			d := n.Pos.Sub(s.nodes[otherID].Pos)
			dist := d.Len()
			if dist <= 0 || dist >= p.RepulsionCutoff {
				continue
			}
			mag := math.Min(p.RepulsionStrength/(dist*dist), p.RepulsionCap)
			forces[i] = forces[i].Add(d.Scale(mag / dist))
		}
	}

	for _, e := range s.edges {
		from, okFrom := s.nodes[e.From]
		to, okTo := s.nodes[e.To]
		if !okFrom || !okTo {
			continue
		}

		d := to.Pos.Sub(from.Pos)
		dist := d.Len()
		if dist == 0 {
			continue
		}

		// only the child is pulled; a parent feels nothing from its children
		if e.To == pinned {
			continue
		}
		mag := clamp(p.SpringStrength*(dist-p.SpringLength), -p.SpringCap, p.SpringCap)
		forces[index[e.To]] = forces[index[e.To]].Sub(d.Scale(mag / dist))
	}

	return forces
}

// contain pushes a node back inside the padded canvas, reflecting the
// offending velocity component inward at reduced speed.
func (s *Store) contain(n *Node) {
	lo, hi := s.params.Bounds(n.Radius)
	bounce := s.params.Bounce

	if n.Pos.X < lo.X {
		n.Pos.X = lo.X
		n.Vel.X = math.Abs(n.Vel.X) * bounce
	} else if n.Pos.X > hi.X {
		n.Pos.X = hi.X
		n.Vel.X = -math.Abs(n.Vel.X) * bounce
	}

	if n.Pos.Y < lo.Y {
		n.Pos.Y = lo.Y
		n.Vel.Y = math.Abs(n.Vel.Y) * bounce
	} else if n.Pos.Y > hi.Y {
		n.Pos.Y = hi.Y
		n.Vel.Y = -math.Abs(n.Vel.Y) * bounce
	}
}

// Stabilize damps every velocity to a tenth. Positions are untouched.
func (s *Store) Stabilize() {
	for _, n := range s.nodes {
		n.Vel = n.Vel.Scale(0.1)
	}
}

// ResetCircular lays nodes out on a jittered circle around the canvas
// center, in store order, and stops them.
func (s *Store) ResetCircular() {
	p := s.params
	center := p.Center()
	count := float64(len(s.order))

	for i, id := range s.order {
		n := s.nodes[id]
		angle := float64(i) / count * 2 * math.Pi
		radius := p.ResetRadius + (s.rng.Float64()-0.5)*p.ResetJitter

		n.Pos = center.Add(Vec{math.Cos(angle) * radius, math.Sin(angle) * radius})
		n.Vel = Vec{}
	}
}

// Move places a node at pos and stops it. Unknown ids are ignored.
func (s *Store) Move(id string, pos Vec) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	n.Pos = pos
	n.Vel = Vec{}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
