package force

import (
	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
)

// FruchtermanReingold is the base force-directed algorithm.
type FruchtermanReingold struct {
	state State
	core  stepper
}

var _ Algorithm[State] = (*FruchtermanReingold)(nil)

// NewFruchtermanReingold builds the algorithm from a state, typically one
// decoded from the previous frame.
func NewFruchtermanReingold(state State) *FruchtermanReingold {
	return &FruchtermanReingold{state: state}
}

// Step advances the layout by one iteration.
func (a *FruchtermanReingold) Step(g graph.Graph, view geom.Rect) {
	a.core.step(&a.state, g, view, nil)
}

// State returns a copy of the current state.
func (a *FruchtermanReingold) State() State { return a.state }

// Control exposes the running flag and telemetry of the live state.
func (a *FruchtermanReingold) Control() Animated { return &a.state }
