package graph

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/forcelayout/pkg/geom"
)

// =============================================================================
// Document - Node-Link Serialization
// =============================================================================

// Document is the canonical serialization format for graphs.
// Used for files, API requests and responses, and the session store.
//
// The format is designed for round-trip fidelity: a graph decoded with
// positions and encoded again produces the same document.
type Document struct {
	Directed bool   `json:"directed,omitempty" yaml:"directed,omitempty" bson:"directed,omitempty"`
	Nodes    []Node `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges    []Edge `json:"edges" yaml:"edges" bson:"edges"`
}

// Node is a serialized node. X and Y are optional; a node missing either
// coordinate is placed by [Placement] on import.
type Node struct {
	ID    string         `json:"id" yaml:"id" bson:"id"`
	Label string         `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
	X     *float64       `json:"x,omitempty" yaml:"x,omitempty" bson:"x,omitempty"`
	Y     *float64       `json:"y,omitempty" yaml:"y,omitempty" bson:"y,omitempty"`
	Meta  map[string]any `json:"meta,omitempty" yaml:"meta,omitempty" bson:"meta,omitempty"`
}

// Edge connects two nodes by ID.
type Edge struct {
	From string `json:"from" yaml:"from" bson:"from"`
	To   string `json:"to" yaml:"to" bson:"to"`
}

// =============================================================================
// Placement - Initial Positions
// =============================================================================

// Placement controls where nodes without coordinates start out.
type Placement struct {
	// Area is the rectangle nodes are scattered into.
	Area geom.Rect
	// Seed makes the scatter reproducible.
	Seed uint64
}

// DefaultPlacement scatters into an 800x600 area with seed 42.
var DefaultPlacement = Placement{Area: geom.FromSize(800, 600), Seed: 42}

func (p Placement) rng() *rand.Rand {
	return rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
}

func (p Placement) area() geom.Rect {
	if !p.Area.IsPositive() || !p.Area.IsFinite() {
		return DefaultPlacement.Area
	}
	return p.Area
}

// =============================================================================
// Stable ↔ Document Conversion
// =============================================================================

// FromStable converts a graph to its serialization format.
// Nodes are sorted by ID for deterministic output; edges keep insertion order.
func FromStable(g *Stable) Document {
	out := Document{
		Directed: g.Directed(),
		Nodes:    make([]Node, 0, g.NodeCount()),
		Edges:    make([]Edge, 0, g.EdgeCount()),
	}
	for idx := range g.Nodes() {
		info, _ := g.Node(idx)
		p := g.Position(idx)
		out.Nodes = append(out.Nodes, Node{
			ID:    info.ID,
			Label: info.Label,
			X:     finitePtr(p.X),
			Y:     finitePtr(p.Y),
			Meta:  copyMeta(info.Meta),
		})
	}
	slices.SortFunc(out.Nodes, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })

	for from, to := range g.Edges() {
		f, _ := g.Node(from)
		t, _ := g.Node(to)
		out.Edges = append(out.Edges, Edge{From: f.ID, To: t.ID})
	}
	return out
}

// ToStable converts a document to a graph.
// Nodes are added in document order; those without finite coordinates
// are scattered uniformly inside the placement area.
func ToStable(doc Document, place Placement) (*Stable, error) {
	g := New(doc.Directed)
	area := place.area()
	rng := place.rng()

	for _, n := range doc.Nodes {
		pos, ok := n.position()
		if !ok {
			pos = geom.V(
				area.Min.X+rng.Float64()*area.Width(),
				area.Min.Y+rng.Float64()*area.Height(),
			)
		}
		info := NodeInfo{ID: n.ID, Label: n.Label, Meta: copyMeta(n.Meta)}
		if _, err := g.AddNode(info, pos); err != nil {
			return nil, fmt.Errorf("add node %q: %w", n.ID, err)
		}
	}

	for _, e := range doc.Edges {
		if err := g.AddEdgeByID(e.From, e.To); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// Unmarshal decodes JSON bytes into a graph.
func Unmarshal(data []byte, place Placement) (*Stable, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToStable(doc, place)
}

func (n Node) position() (geom.Vec2, bool) {
	if n.X == nil || n.Y == nil {
		return geom.Zero, false
	}
	p := geom.V(*n.X, *n.Y)
	return p, p.IsFinite()
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// copyMeta creates a shallow copy of metadata to avoid mutation.
// Returns nil for empty input so that encoded documents omit the field.
func copyMeta(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
