package force

import (
	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
)

// Input is the read-only view of a step handed to extra forces.
// Nodes and Positions are parallel to the displacement buffer.
type Input struct {
	Graph     graph.Graph
	Nodes     []graph.NodeIndex
	Positions []geom.Vec2
	View      geom.Rect
	K         float64
}

// Plugin is an auxiliary force. Implementations must be usable as their
// zero value.
//
// Apply only accumulates into disp. It must not write positions or change
// the length of disp.
type Plugin[P any] interface {
	DefaultParams() P
	EnabledByDefault() bool
	Apply(params P, in *Input, disp []geom.Vec2)
}
