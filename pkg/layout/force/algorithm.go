package force

import (
	"slices"

	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
)

// Algorithm advances a layout one step at a time and exposes its state for
// persistence.
type Algorithm[S any] interface {
	Step(g graph.Graph, view geom.Rect)
	State() S
}

// stepper is the stepping core shared by the base algorithm and its
// extras variant. Buffers are reused across steps.
type stepper struct {
	nodes []graph.NodeIndex
	pos   []geom.Vec2
	disp  []geom.Vec2
	links []Link
	slots map[graph.NodeIndex]int
}

func (c *stepper) step(st *State, g graph.Graph, view geom.Rect, extras func(*Input, []geom.Vec2)) {
	if g.NodeCount() == 0 || !st.Running {
		return
	}
	k, ok := PrepareConstants(view, g.NodeCount(), st.KScale)
	if !ok {
		return
	}
	c.snapshot(g, view)

	ComputeRepulsion(c.pos, c.disp, k, st.Epsilon, st.CRepulse)
	ComputeAttraction(c.links, c.pos, c.disp, k, st.Epsilon, st.CAttract)
	if extras != nil {
		extras(&Input{Graph: g, Nodes: c.nodes, Positions: c.pos, View: view, K: k}, c.disp)
	}

	if avg, ok := ApplyDisplacements(g, c.nodes, c.pos, c.disp, st.DT, st.Damping, st.MaxStep); ok {
		st.setAvgDisplacement(avg)
	}
	st.Steps++
}

// snapshot captures nodes, positions and links, and zeroes the
// displacement buffer. Non-finite positions are reset to the viewport
// center.
func (c *stepper) snapshot(g graph.Graph, view geom.Rect) {
	c.nodes = slices.AppendSeq(c.nodes[:0], g.Nodes())
	n := len(c.nodes)

	c.pos = slices.Grow(c.pos[:0], n)[:n]
	c.disp = slices.Grow(c.disp[:0], n)[:n]
	clear(c.disp)

	if c.slots == nil {
		c.slots = make(map[graph.NodeIndex]int, n)
	}
	clear(c.slots)

	center := view.Center()
	for i, idx := range c.nodes {
		p := g.Position(idx)
		if !p.IsFinite() && center.IsFinite() {
			p = center
			g.SetPosition(idx, p)
		}
		c.pos[i] = p
		c.slots[idx] = i
	}

	c.links = c.links[:0]
	for from, to := range g.Edges() {
		s, ok := c.slots[from]
		if !ok {
			continue
		}
		t, ok := c.slots[to]
		if !ok {
			continue
		}
		c.links = append(c.links, Link{Source: s, Target: t})
	}
}
