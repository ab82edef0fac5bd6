package force

import (
	"math"

	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
)

// Link is an edge expressed as positions in the node snapshot.
type Link struct {
	Source, Target int
}

// PrepareConstants returns the characteristic length
// k = kScale * sqrt(area / nodeCount).
//
// It reports false when there are no nodes, the viewport has no positive
// area, or k is not a finite positive number.
func PrepareConstants(view geom.Rect, nodeCount int, kScale float64) (float64, bool) {
	if nodeCount <= 0 {
		return 0, false
	}
	area := view.Area()
	if !(area > 0) {
		return 0, false
	}
	k := kScale * math.Sqrt(area/float64(nodeCount))
	if math.IsNaN(k) || math.IsInf(k, 0) || k <= 0 {
		return 0, false
	}
	return k, true
}

// ComputeRepulsion adds c*k²/d repulsion between every unordered pair of
// nodes. Distances are floored at epsilon.
func ComputeRepulsion(pos, disp []geom.Vec2, k, epsilon, cRepulse float64) {
	kk := k * k
	for i := 0; i < len(pos); i++ {
		for j := i + 1; j < len(pos); j++ {
			delta := pos[i].Sub(pos[j])
			dist := math.Max(delta.Len(), epsilon)
			push := delta.Div(dist).Scale(cRepulse * kk / dist)
			disp[i] = disp[i].Add(push)
			disp[j] = disp[j].Sub(push)
		}
	}
}

// ComputeAttraction adds c*d²/k attraction along every link, pulling both
// endpoints toward each other. Loops contribute nothing; parallel links
// each contribute.
func ComputeAttraction(links []Link, pos, disp []geom.Vec2, k, epsilon, cAttract float64) {
	for _, l := range links {
		if l.Source == l.Target {
			continue
		}
		delta := pos[l.Target].Sub(pos[l.Source])
		dist := math.Max(delta.Len(), epsilon)
		pull := delta.Div(dist).Scale(cAttract * dist * dist / k)
		disp[l.Source] = disp[l.Source].Add(pull)
		disp[l.Target] = disp[l.Target].Sub(pull)
	}
}

// ApplyDisplacements moves every snapshot node by disp*dt, clamped to
// maxStep and then scaled by damping, and returns the mean length of the
// applied moves.
//
// A move that would leave a non-finite position is skipped and counts as
// zero. It reports false for an empty snapshot.
func ApplyDisplacements(g graph.Graph, nodes []graph.NodeIndex, pos, disp []geom.Vec2, dt, damping, maxStep float64) (float64, bool) {
	if len(nodes) == 0 {
		return 0, false
	}
	var total float64
	for i, idx := range nodes {
		step := disp[i].Scale(dt).ClampLen(maxStep).Scale(damping)
		next := pos[i].Add(step)
		if !next.IsFinite() {
			continue
		}
		g.SetPosition(idx, next)
		total += step.Len()
	}
	return total / float64(len(nodes)), true
}
