package force

import (
	"encoding/json"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
)

var testView = geom.FromSize(1200, 800)

func buildGraph(t testing.TB, pts []geom.Vec2, edges [][2]int) *graph.Stable {
	t.Helper()
	g := graph.New(false)
	ids := make([]graph.NodeIndex, len(pts))
	for i, p := range pts {
		idx, err := g.AddNode(graph.NodeInfo{ID: string(rune('a' + i))}, p)
		if err != nil {
			t.Fatalf("AddNode: %v", err)
		}
		ids[i] = idx
	}
	for _, e := range edges {
		if err := g.AddEdge(ids[e[0]], ids[e[1]]); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	return g
}

func positions(g *graph.Stable) []geom.Vec2 {
	var out []geom.Vec2
	for idx := range g.Nodes() {
		out = append(out, g.Position(idx))
	}
	return out
}

func chainGraph(t testing.TB) *graph.Stable {
	return buildGraph(t,
		[]geom.Vec2{geom.V(0, 0), geom.V(100, 0), geom.V(200, 0)},
		[][2]int{{0, 1}, {1, 2}},
	)
}

func TestPrepareConstants(t *testing.T) {
	tests := []struct {
		name   string
		view   geom.Rect
		n      int
		kScale float64
		wantK  float64
		wantOK bool
	}{
		{name: "Typical", view: geom.FromSize(100, 100), n: 4, kScale: 1, wantK: 50, wantOK: true},
		{name: "Scaled", view: geom.FromSize(100, 100), n: 1, kScale: 2, wantK: 200, wantOK: true},
		{name: "NoNodes", view: geom.FromSize(100, 100), n: 0, kScale: 1},
		{name: "ZeroArea", view: geom.FromSize(100, 0), n: 3, kScale: 1},
		{name: "Inverted", view: geom.R(10, 10, 0, 0), n: 3, kScale: 1},
		{name: "InfiniteK", view: geom.FromSize(100, 100), n: 1, kScale: math.Inf(1)},
		{name: "NaNScale", view: geom.FromSize(100, 100), n: 1, kScale: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, ok := PrepareConstants(tt.view, tt.n, tt.kScale)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(k-tt.wantK) > 1e-9 {
				t.Errorf("k = %v, want %v", k, tt.wantK)
			}
		})
	}
}

func TestComputeRepulsion(t *testing.T) {
	pos := []geom.Vec2{geom.V(0, 0), geom.V(10, 0)}
	disp := make([]geom.Vec2, 2)
	ComputeRepulsion(pos, disp, 10, 1e-3, 1)

	// f = k²/d = 10
	if math.Abs(disp[0].X+10) > 1e-12 || disp[0].Y != 0 {
		t.Errorf("disp[0] = %v, want (-10,0)", disp[0])
	}
	if disp[0] != disp[1].Scale(-1) {
		t.Errorf("repulsion not symmetric: %v vs %v", disp[0], disp[1])
	}
}

func TestComputeRepulsionCoincident(t *testing.T) {
	pos := []geom.Vec2{geom.V(5, 5), geom.V(5, 5)}
	disp := make([]geom.Vec2, 2)
	ComputeRepulsion(pos, disp, 10, 1e-3, 1)
	for i, d := range disp {
		if !d.IsFinite() {
			t.Errorf("disp[%d] = %v, want finite", i, d)
		}
	}
}

func TestComputeAttractionQuadratic(t *testing.T) {
	magnitude := func(d float64) float64 {
		pos := []geom.Vec2{geom.V(0, 0), geom.V(d, 0)}
		disp := make([]geom.Vec2, 2)
		ComputeAttraction([]Link{{0, 1}}, pos, disp, 10, 1e-3, 1)
		return disp[0].Len()
	}
	near, far := magnitude(20), magnitude(40)
	if math.Abs(far/near-4) > 1e-9 {
		t.Errorf("doubling distance scaled attraction by %v, want 4", far/near)
	}
	if magnitude(60) <= far {
		t.Error("attraction not strictly increasing with distance")
	}
}

func TestComputeAttractionLinks(t *testing.T) {
	pos := []geom.Vec2{geom.V(0, 0), geom.V(10, 0)}

	disp := make([]geom.Vec2, 2)
	ComputeAttraction([]Link{{0, 0}, {1, 1}}, pos, disp, 10, 1e-3, 1)
	if !disp[0].IsZero() || !disp[1].IsZero() {
		t.Errorf("loops contributed: %v", disp)
	}

	single := make([]geom.Vec2, 2)
	ComputeAttraction([]Link{{0, 1}}, pos, single, 10, 1e-3, 1)
	double := make([]geom.Vec2, 2)
	ComputeAttraction([]Link{{0, 1}, {1, 0}}, pos, double, 10, 1e-3, 1)
	if math.Abs(double[0].X-2*single[0].X) > 1e-12 {
		t.Errorf("parallel links: %v, want twice %v", double[0], single[0])
	}
	if single[0].X <= 0 || single[1].X >= 0 {
		t.Errorf("endpoints not pulled together: %v", single)
	}
}

func TestApplyDisplacements(t *testing.T) {
	tests := []struct {
		name    string
		disp    geom.Vec2
		wantPos geom.Vec2
	}{
		// 40*0.05 = 2, below max step; damped to 0.6
		{name: "Unclamped", disp: geom.V(40, 0), wantPos: geom.V(0.6, 0)},
		// 4000*0.05 = 200, clamped to 10, damped to 3
		{name: "Clamped", disp: geom.V(0, 4000), wantPos: geom.V(0, 3)},
		{name: "Zero", disp: geom.Zero, wantPos: geom.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, []geom.Vec2{geom.Zero}, nil)
			nodes := slices.Collect(g.Nodes())
			avg, ok := ApplyDisplacements(g, nodes, positions(g), []geom.Vec2{tt.disp}, 0.05, 0.3, 10)
			if !ok {
				t.Fatal("ok = false")
			}
			got := g.Position(nodes[0])
			if got.Dist(tt.wantPos) > 1e-9 {
				t.Errorf("position = %v, want %v", got, tt.wantPos)
			}
			if math.Abs(avg-tt.wantPos.Len()) > 1e-9 {
				t.Errorf("avg = %v, want %v", avg, tt.wantPos.Len())
			}
		})
	}
}

func TestApplyDisplacementsSkipsNonFinite(t *testing.T) {
	g := buildGraph(t, []geom.Vec2{geom.V(1, 1), geom.V(2, 2)}, nil)
	nodes := slices.Collect(g.Nodes())
	disp := []geom.Vec2{geom.V(math.Inf(1), 0), geom.V(40, 0)}

	avg, ok := ApplyDisplacements(g, nodes, positions(g), disp, 0.05, 0.3, 10)
	if !ok {
		t.Fatal("ok = false")
	}
	if got := g.Position(nodes[0]); got != geom.V(1, 1) {
		t.Errorf("non-finite move applied: %v", got)
	}
	if math.Abs(avg-0.3) > 1e-9 {
		t.Errorf("avg = %v, want 0.3", avg)
	}
}

func TestApplyDisplacementsEmpty(t *testing.T) {
	g := graph.New(false)
	if _, ok := ApplyDisplacements(g, nil, nil, nil, 0.05, 0.3, 10); ok {
		t.Error("ok = true for empty snapshot")
	}
}

func TestStepEmptyGraph(t *testing.T) {
	alg := NewFruchtermanReingold(DefaultState())
	alg.Step(graph.New(false), testView)

	st := alg.State()
	if _, ok := st.LastAvgDisplacement(); ok {
		t.Error("last avg displacement set on empty graph")
	}
	if st.StepCount() != 0 {
		t.Errorf("step count = %d, want 0", st.StepCount())
	}
}

func TestStepPaused(t *testing.T) {
	g := chainGraph(t)
	before := positions(g)

	st := DefaultState()
	st.SetRunning(false)
	alg := NewFruchtermanReingold(st)
	alg.Step(g, testView)
	alg.Step(g, testView)

	if !slices.Equal(positions(g), before) {
		t.Errorf("positions changed while paused: %v", positions(g))
	}
	if got := alg.State(); got.AvgDisplacement != nil {
		t.Error("avg displacement recorded while paused")
	}
}

func TestStepDegenerateViewport(t *testing.T) {
	g := chainGraph(t)
	before := positions(g)
	alg := NewFruchtermanReingold(DefaultState())
	alg.Step(g, geom.FromSize(0, 800))
	if !slices.Equal(positions(g), before) {
		t.Error("zero-area viewport moved nodes")
	}
}

func TestStepDegenerateViewportKeepsNonFinite(t *testing.T) {
	g := buildGraph(t, []geom.Vec2{geom.V(math.Inf(1), 0), geom.V(1, 1)}, [][2]int{{0, 1}})
	alg := NewFruchtermanReingold(DefaultState())
	alg.Step(g, geom.FromSize(0, 0))

	got := positions(g)
	if !math.IsInf(got[0].X, 1) || got[1] != geom.V(1, 1) {
		t.Errorf("positions = %v, want untouched", got)
	}
	if st := alg.State(); st.StepCount() != 0 {
		t.Errorf("step count = %d, want 0", st.StepCount())
	}
}

func TestStepChain(t *testing.T) {
	g := chainGraph(t)

	// B sits between two equal neighbors, so its net horizontal force is 0.
	k, _ := PrepareConstants(testView, 3, 1)
	pos := positions(g)
	disp := make([]geom.Vec2, 3)
	ComputeRepulsion(pos, disp, k, 1e-3, 1)
	ComputeAttraction([]Link{{0, 1}, {1, 2}}, pos, disp, k, 1e-3, 1)
	if math.Abs(disp[1].X) > 1e-9 {
		t.Errorf("B horizontal force = %v, want ~0", disp[1].X)
	}

	alg := NewFruchtermanReingold(DefaultState())
	alg.Step(g, testView)

	want := []geom.Vec2{geom.V(-3, 0), geom.V(100, 0), geom.V(203, 0)}
	for i, p := range positions(g) {
		if p.Dist(want[i]) > 1e-4 {
			t.Errorf("node %d at %v, want %v", i, p, want[i])
		}
	}
	st := alg.State()
	avg, ok := st.LastAvgDisplacement()
	if !ok || math.Abs(avg-2) > 1e-4 {
		t.Errorf("avg = %v (%v), want 2", avg, ok)
	}
	if got := st.StepCount(); got != 1 {
		t.Errorf("step count = %d, want 1", got)
	}
}

func TestStepResetsNonFinitePositions(t *testing.T) {
	g := buildGraph(t, []geom.Vec2{geom.V(math.NaN(), 0), geom.V(10, 10)}, [][2]int{{0, 1}})
	alg := NewFruchtermanReingold(DefaultState())
	alg.Step(g, testView)
	for i, p := range positions(g) {
		if !p.IsFinite() {
			t.Errorf("node %d at %v after step", i, p)
		}
	}
}

func TestStepDeterministic(t *testing.T) {
	a, b := chainGraph(t), chainGraph(t)
	algA := NewFruchtermanReingoldWithCenterGravity(DefaultGravityState())
	algB := NewFruchtermanReingoldWithCenterGravity(DefaultGravityState())
	for range 50 {
		algA.Step(a, testView)
		algB.Step(b, testView)
	}
	if !slices.Equal(positions(a), positions(b)) {
		t.Error("identical inputs diverged")
	}
}

func TestGravityZeroMatchesBase(t *testing.T) {
	base, extra := chainGraph(t), chainGraph(t)

	st := DefaultGravityState()
	st.Extras.Head.Params.C = 0
	algBase := NewFruchtermanReingold(DefaultState())
	algExtra := NewFruchtermanReingoldWithCenterGravity(st)
	for range 20 {
		algBase.Step(base, testView)
		algExtra.Step(extra, testView)
	}
	if !slices.Equal(positions(base), positions(extra)) {
		t.Errorf("c=0 gravity diverged: %v vs %v", positions(base), positions(extra))
	}
}

func TestGravityDisabledMatchesBase(t *testing.T) {
	base, extra := chainGraph(t), chainGraph(t)

	st := DefaultGravityState()
	st.Extras.Head.Enabled = false
	NewFruchtermanReingold(DefaultState()).Step(base, testView)
	NewFruchtermanReingoldWithCenterGravity(st).Step(extra, testView)
	if !slices.Equal(positions(base), positions(extra)) {
		t.Error("disabled gravity changed the step")
	}
}

func TestGravityPullsTowardCenter(t *testing.T) {
	g := buildGraph(t, []geom.Vec2{geom.V(0, 0)}, nil)
	center := testView.Center()
	before := g.Position(0).Dist(center)

	alg := NewFruchtermanReingoldWithCenterGravity(DefaultGravityState())
	alg.Step(g, testView)

	if after := g.Position(0).Dist(center); after >= before {
		t.Errorf("distance to center %v -> %v, want decrease", before, after)
	}
}

func TestCenterGravityApply(t *testing.T) {
	in := &Input{Positions: []geom.Vec2{geom.V(0, 0)}, View: geom.FromSize(10, 20)}
	disp := []geom.Vec2{geom.V(1, 1)}
	CenterGravity{}.Apply(CenterGravityParams{C: 0.5}, in, disp)
	if want := geom.V(3.5, 6); disp[0] != want {
		t.Errorf("disp = %v, want %v", disp[0], want)
	}
}

func TestDefaultGravityState(t *testing.T) {
	st := DefaultGravityState()
	if !st.Extras.Head.Enabled {
		t.Error("center gravity disabled by default")
	}
	if st.Extras.Head.Params.C != 0.3 {
		t.Errorf("c = %v, want 0.3", st.Extras.Head.Params.C)
	}
	if st.State != DefaultState() {
		t.Errorf("base state = %+v", st.State)
	}
}

func TestStateJSON(t *testing.T) {
	data, err := json.Marshal(DefaultGravityState())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{
		`"dt":0.05`, `"damping":0.3`, `"is_running":true`, `"max_step":10`,
		`"last_avg_displacement":null`, `"step_count":0`,
		`"extras":{"head":{"enabled":true,"params":{"c":0.3}},"tail":{}}`,
	} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded state missing %s:\n%s", key, data)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantErr    bool
		wantFields []string
		check      func(t *testing.T, s State)
	}{
		{
			name:  "Partial",
			input: `{"dt": 0.1}`,
			check: func(t *testing.T, s State) {
				want := DefaultState()
				want.DT = 0.1
				if s != want {
					t.Errorf("state = %+v, want %+v", s, want)
				}
			},
		},
		{
			name:       "OutOfRange",
			input:      `{"dt": -1, "damping": 2, "c_repulse": 5}`,
			wantFields: []string{"dt", "damping"},
			check: func(t *testing.T, s State) {
				if s.DT != 0.05 || s.Damping != 0.3 || s.CRepulse != 5 {
					t.Errorf("state = %+v", s)
				}
			},
		},
		{
			name:       "NegativeAvg",
			input:      `{"last_avg_displacement": -4}`,
			wantFields: []string{"last_avg_displacement"},
			check: func(t *testing.T, s State) {
				if s.AvgDisplacement != nil {
					t.Errorf("avg = %v, want nil", *s.AvgDisplacement)
				}
			},
		},
		{
			name:    "Malformed",
			input:   `{"dt": `,
			wantErr: true,
			check: func(t *testing.T, s State) {
				if s != DefaultState() {
					t.Errorf("state = %+v, want defaults", s)
				}
			},
		},
		{
			name:  "Telemetry",
			input: `{"last_avg_displacement": 1.5, "step_count": 7, "is_running": false}`,
			check: func(t *testing.T, s State) {
				avg, ok := s.LastAvgDisplacement()
				if !ok || avg != 1.5 || s.StepCount() != 7 || s.IsRunning() {
					t.Errorf("state = %+v", s)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fields, err := Decode([]byte(tt.input), DefaultState())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !slices.Equal(fields, tt.wantFields) {
				t.Errorf("sanitized fields = %v, want %v", fields, tt.wantFields)
			}
			tt.check(t, s)
		})
	}
}

func TestDecodeExtras(t *testing.T) {
	s, fields, err := Decode([]byte(`{"extras":{"head":{"enabled":false}}}`), DefaultGravityState())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("sanitized fields = %v", fields)
	}
	if s.Extras.Head.Enabled {
		t.Error("enabled flag not decoded")
	}
	if s.Extras.Head.Params.C != 0.3 {
		t.Errorf("missing params lost default: c = %v", s.Extras.Head.Params.C)
	}
}

func TestSanitize(t *testing.T) {
	st := DefaultGravityState()
	st.Epsilon = math.NaN()
	st.MaxStep = math.Inf(1)
	st.KScale = 0
	st.Extras.Head.Params.C = math.NaN()

	fields := st.Sanitize()

	want := DefaultGravityState()
	if st.State != want.State {
		t.Errorf("base state = %+v, want defaults", st.State)
	}
	if st.Extras.Head.Params.C != 0.3 {
		t.Errorf("c = %v, want 0.3", st.Extras.Head.Params.C)
	}
	for _, f := range []string{"epsilon", "max_step", "k_scale", "extras"} {
		if !slices.Contains(fields, f) {
			t.Errorf("field %s not reported in %v", f, fields)
		}
	}
}

func TestControl(t *testing.T) {
	alg := NewFruchtermanReingoldWithCenterGravity(DefaultGravityState())
	alg.Control().SetRunning(false)
	alg.Control().SetStepCount(12)
	if st := alg.State(); st.Running || st.Steps != 12 {
		t.Errorf("state = %+v", st.State)
	}
}
