package force

import (
	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
)

// WithExtras is the base algorithm followed by a composition of extra
// forces, applied after attraction and before integration.
type WithExtras[E Extras[E]] struct {
	state ExtrasState[E]
	core  stepper
}

// NewWithExtras builds the algorithm from a state.
func NewWithExtras[E Extras[E]](state ExtrasState[E]) *WithExtras[E] {
	return &WithExtras[E]{state: state}
}

// Step advances the layout by one iteration.
func (a *WithExtras[E]) Step(g graph.Graph, view geom.Rect) {
	a.core.step(&a.state.State, g, view, a.state.Extras.ApplyAll)
}

// State returns a copy of the current state.
func (a *WithExtras[E]) State() ExtrasState[E] { return a.state }

// Control exposes the running flag and telemetry of the live state.
func (a *WithExtras[E]) Control() Animated { return &a.state }
