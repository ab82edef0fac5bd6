package force

import (
	"math"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
)

const propNodes = 6

func randomGraph(t *testing.T, xs, ys []float64) *graph.Stable {
	pts := make([]geom.Vec2, len(xs))
	for i := range xs {
		pts[i] = geom.V(xs[i], ys[i])
	}
	var edges [][2]int
	for i := 1; i < len(pts); i++ {
		edges = append(edges, [2]int{i - 1, i})
	}
	return buildGraph(t, pts, edges)
}

// TestStepProperties checks invariants that must hold for any starting
// configuration.
func TestStepProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	coords := gen.SliceOfN(propNodes, gen.Float64Range(-2000, 2000))

	properties.Property("no move exceeds max_step*damping", prop.ForAll(
		func(xs, ys []float64, damping, maxStep float64) bool {
			g := randomGraph(t, xs, ys)
			before := positions(g)

			st := DefaultGravityState()
			st.Damping = damping
			st.MaxStep = maxStep
			NewFruchtermanReingoldWithCenterGravity(st).Step(g, testView)

			limit := maxStep*damping + 1e-9
			for i, p := range positions(g) {
				if p.Dist(before[i]) > limit {
					return false
				}
			}
			return true
		},
		coords, coords,
		gen.Float64Range(0.01, 1),
		gen.Float64Range(0.1, 50),
	))

	properties.Property("repulsion is symmetric for an isolated pair", prop.ForAll(
		func(x1, y1, x2, y2 float64) bool {
			pos := []geom.Vec2{geom.V(x1, y1), geom.V(x2, y2)}
			disp := make([]geom.Vec2, 2)
			ComputeRepulsion(pos, disp, 50, 1e-3, 1)
			sum := disp[0].Add(disp[1])
			return math.Abs(sum.X) < 1e-9 && math.Abs(sum.Y) < 1e-9
		},
		gen.Float64Range(-1000, 1000), gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000), gen.Float64Range(-1000, 1000),
	))

	properties.Property("steps are deterministic", prop.ForAll(
		func(xs, ys []float64) bool {
			a, b := randomGraph(t, xs, ys), randomGraph(t, xs, ys)
			algA := NewFruchtermanReingold(DefaultState())
			algB := NewFruchtermanReingold(DefaultState())
			for range 5 {
				algA.Step(a, testView)
				algB.Step(b, testView)
			}
			return slices.Equal(positions(a), positions(b))
		},
		coords, coords,
	))

	properties.Property("pause leaves positions untouched", prop.ForAll(
		func(xs, ys []float64) bool {
			g := randomGraph(t, xs, ys)
			before := positions(g)
			st := DefaultState()
			st.Running = false
			NewFruchtermanReingold(st).Step(g, testView)
			return slices.Equal(positions(g), before)
		},
		coords, coords,
	))

	properties.TestingRun(t)
}
