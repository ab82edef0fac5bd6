package layout

import (
	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/layout/force"
)

// Layout advances node positions one frame at a time.
type Layout[S any] interface {
	Next(g graph.Graph, view geom.Rect)
	State() S
}

// ForceDirected adapts a force algorithm to [Layout].
type ForceDirected[S any] struct {
	alg force.Algorithm[S]
}

// NewForceDirected wraps alg.
func NewForceDirected[S any](alg force.Algorithm[S]) *ForceDirected[S] {
	return &ForceDirected[S]{alg: alg}
}

// Next runs one algorithm step. Empty graphs are skipped.
func (l *ForceDirected[S]) Next(g graph.Graph, view geom.Rect) {
	if g.NodeCount() == 0 {
		return
	}
	l.alg.Step(g, view)
}

// State returns the algorithm state.
func (l *ForceDirected[S]) State() S { return l.alg.State() }

// Strategy describes a force algorithm: its persisted name, its default
// state and how to rebuild it from a state.
type Strategy[S any] struct {
	Name     string
	Defaults func() S
	New      func(S) force.Algorithm[S]
}

// Layout builds a layout from state.
func (s Strategy[S]) Layout(state S) Layout[S] {
	return NewForceDirected(s.New(state))
}

// Strategy names.
const (
	NameFruchtermanReingold        = "fruchterman-reingold"
	NameFruchtermanReingoldGravity = "fruchterman-reingold-gravity"
)

// FruchtermanReingold is the base force-directed strategy.
var FruchtermanReingold = Strategy[force.State]{
	Name:     NameFruchtermanReingold,
	Defaults: force.DefaultState,
	New: func(s force.State) force.Algorithm[force.State] {
		return force.NewFruchtermanReingold(s)
	},
}

// FruchtermanReingoldGravity adds center gravity to the base strategy.
var FruchtermanReingoldGravity = Strategy[force.GravityState]{
	Name:     NameFruchtermanReingoldGravity,
	Defaults: force.DefaultGravityState,
	New: func(s force.GravityState) force.Algorithm[force.GravityState] {
		return force.NewFruchtermanReingoldWithCenterGravity(s)
	},
}
