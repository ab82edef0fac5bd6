package graph

import (
	"errors"
	"iter"
	"maps"
	"slices"

	"github.com/matzehuels/forcelayout/pkg/geom"
)

var (
	// ErrInvalidNodeID is returned by [Stable.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Stable.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Stable.AddEdge] when the source
	// node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Stable.AddEdge] when the target
	// node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// NodeIndex addresses a node. Indices are stable: removing a node never
// renumbers the others.
type NodeIndex int

// Graph is the contract the layout engines consume.
//
// Implementations must yield the same node order from consecutive calls to
// Nodes while the graph is not mutated. Edges may contain loops and
// parallel edges; engines decide how to treat them.
type Graph interface {
	NodeCount() int
	Nodes() iter.Seq[NodeIndex]
	Position(NodeIndex) geom.Vec2
	SetPosition(NodeIndex, geom.Vec2)
	Edges() iter.Seq2[NodeIndex, NodeIndex]
}

// NodeInfo is the descriptive part of a node.
type NodeInfo struct {
	ID    string
	Label string
	Meta  map[string]any
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n NodeInfo) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

type slot struct {
	info NodeInfo
	pos  geom.Vec2
}

type edge struct {
	from, to NodeIndex
}

// Stable is an in-memory graph with stable indices and string IDs.
//
// The zero value is not usable - use New.
type Stable struct {
	slots    []*slot // nil marks a removed node
	ids      map[string]NodeIndex
	edges    []edge
	directed bool
	count    int
}

var _ Graph = (*Stable)(nil)

// New creates an empty graph. The directed flag only affects serialization
// and Neighbors; layout forces treat every edge as undirected.
func New(directed bool) *Stable {
	return &Stable{
		ids:      make(map[string]NodeIndex),
		directed: directed,
	}
}

// Directed reports whether the graph was created as directed.
func (g *Stable) Directed() bool { return g.directed }

// AddNode adds a node at the given position and returns its index.
func (g *Stable) AddNode(info NodeInfo, pos geom.Vec2) (NodeIndex, error) {
	if info.ID == "" {
		return 0, ErrInvalidNodeID
	}
	if _, exists := g.ids[info.ID]; exists {
		return 0, ErrDuplicateNodeID
	}
	if info.Meta == nil {
		info.Meta = map[string]any{}
	}
	idx := NodeIndex(len(g.slots))
	g.slots = append(g.slots, &slot{info: info, pos: pos})
	g.ids[info.ID] = idx
	g.count++
	return idx, nil
}

// RemoveNode removes a node and every edge touching it.
// Removing an unknown index is a no-op.
func (g *Stable) RemoveNode(idx NodeIndex) {
	s := g.slot(idx)
	if s == nil {
		return
	}
	delete(g.ids, s.info.ID)
	g.slots[idx] = nil
	g.count--
	g.edges = slices.DeleteFunc(g.edges, func(e edge) bool {
		return e.from == idx || e.to == idx
	})
}

// AddEdge connects two existing nodes. Loops and parallel edges are allowed.
func (g *Stable) AddEdge(from, to NodeIndex) error {
	if g.slot(from) == nil {
		return ErrUnknownSourceNode
	}
	if g.slot(to) == nil {
		return ErrUnknownTargetNode
	}
	g.edges = append(g.edges, edge{from: from, to: to})
	return nil
}

// AddEdgeByID connects two nodes by their IDs.
func (g *Stable) AddEdgeByID(from, to string) error {
	f, ok := g.ids[from]
	if !ok {
		return ErrUnknownSourceNode
	}
	t, ok := g.ids[to]
	if !ok {
		return ErrUnknownTargetNode
	}
	return g.AddEdge(f, t)
}

// RemoveEdge removes every edge from -> to. In undirected graphs edges
// to -> from are removed as well.
func (g *Stable) RemoveEdge(from, to NodeIndex) {
	g.edges = slices.DeleteFunc(g.edges, func(e edge) bool {
		if e.from == from && e.to == to {
			return true
		}
		return !g.directed && e.from == to && e.to == from
	})
}

// NodeCount returns the number of live nodes.
func (g *Stable) NodeCount() int { return g.count }

// EdgeCount returns the number of edges.
func (g *Stable) EdgeCount() int { return len(g.edges) }

// Nodes yields live node indices in ascending order.
func (g *Stable) Nodes() iter.Seq[NodeIndex] {
	return func(yield func(NodeIndex) bool) {
		for i, s := range g.slots {
			if s == nil {
				continue
			}
			if !yield(NodeIndex(i)) {
				return
			}
		}
	}
}

// Edges yields (source, target) pairs in insertion order.
func (g *Stable) Edges() iter.Seq2[NodeIndex, NodeIndex] {
	return func(yield func(NodeIndex, NodeIndex) bool) {
		for _, e := range g.edges {
			if !yield(e.from, e.to) {
				return
			}
		}
	}
}

// Neighbors yields the nodes adjacent to idx. For directed graphs only
// successors are yielded. Parallel edges yield the neighbor once per edge.
func (g *Stable) Neighbors(idx NodeIndex) iter.Seq[NodeIndex] {
	return func(yield func(NodeIndex) bool) {
		for _, e := range g.edges {
			var n NodeIndex
			switch {
			case e.from == idx:
				n = e.to
			case !g.directed && e.to == idx:
				n = e.from
			default:
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Position returns the location of idx, or the origin for unknown indices.
func (g *Stable) Position(idx NodeIndex) geom.Vec2 {
	if s := g.slot(idx); s != nil {
		return s.pos
	}
	return geom.Zero
}

// SetPosition moves idx. Unknown indices are ignored.
func (g *Stable) SetPosition(idx NodeIndex, p geom.Vec2) {
	if s := g.slot(idx); s != nil {
		s.pos = p
	}
}

// Index looks up a node by ID.
func (g *Stable) Index(id string) (NodeIndex, bool) {
	idx, ok := g.ids[id]
	return idx, ok
}

// Node returns the descriptive data of idx.
func (g *Stable) Node(idx NodeIndex) (NodeInfo, bool) {
	if s := g.slot(idx); s != nil {
		return s.info, true
	}
	return NodeInfo{}, false
}

// IDs returns all node IDs sorted alphabetically.
func (g *Stable) IDs() []string {
	return slices.Sorted(maps.Keys(g.ids))
}

// Bounds returns the smallest rectangle containing every node position.
// An empty graph has an empty rectangle at the origin.
func (g *Stable) Bounds() geom.Rect {
	var (
		r     geom.Rect
		first = true
	)
	for idx := range g.Nodes() {
		p := g.slots[idx].pos
		if first {
			r = geom.Rect{Min: p, Max: p}
			first = false
			continue
		}
		r = r.Expand(p)
	}
	return r
}

// Clone returns a deep copy of the graph. Indices are preserved.
func (g *Stable) Clone() *Stable {
	out := &Stable{
		slots:    make([]*slot, len(g.slots)),
		ids:      maps.Clone(g.ids),
		edges:    slices.Clone(g.edges),
		directed: g.directed,
		count:    g.count,
	}
	for i, s := range g.slots {
		if s == nil {
			continue
		}
		c := *s
		c.info.Meta = maps.Clone(s.info.Meta)
		out.slots[i] = &c
	}
	return out
}

func (g *Stable) slot(idx NodeIndex) *slot {
	if idx < 0 || int(idx) >= len(g.slots) {
		return nil
	}
	return g.slots[idx]
}
