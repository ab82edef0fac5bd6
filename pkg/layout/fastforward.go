package layout

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/observability"
)

// FastForwardOptions controls a multi-step run.
type FastForwardOptions struct {
	// Steps is the maximum number of steps. Zero runs nothing.
	Steps int
	// Budget limits wall-clock time. It is checked before every step;
	// zero means unlimited.
	Budget time.Duration
	// UntilStable stops once the average displacement of a step drops
	// below Epsilon.
	UntilStable bool
	Epsilon     float64
	// ForceRun runs even a paused layout. The previous running flag is
	// restored afterwards.
	ForceRun bool
	// Stop, when set, is consulted after every step and ends the run
	// when it returns true.
	Stop func(Progress) bool
	// OnStep, when set, is called after every step.
	OnStep func(Progress)
}

// Progress is the view of a running fast-forward handed to Stop and OnStep.
type Progress struct {
	Steps int
	Avg   float64
	Nodes int
}

// Result reports what a fast-forward run did.
type Result struct {
	Steps int `json:"steps"`
	// LastAvg is the average displacement of the final step, or +Inf
	// when no step ran.
	LastAvg float64 `json:"last_avg"`
	Stable  bool    `json:"stable"`
	Stopped bool    `json:"stopped,omitempty"`
	Status  Status  `json:"status"`
}

// FastForward advances the layout by several steps within one load/save
// cycle.
//
// With UntilStable, the convergence signal is the state's own average
// displacement when the step advanced the state, and otherwise the mean
// position change measured on the graph.
func (s *Session[S, P]) FastForward(ctx context.Context, g graph.Graph, view geom.Rect, opts FastForwardOptions) (Result, error) {
	res := Result{LastAvg: math.Inf(1)}
	if opts.Steps <= 0 || g.NodeCount() == 0 {
		st, err := s.Status(ctx)
		res.Status = st
		return res, err
	}

	state, err := s.Load(ctx)
	if err != nil {
		return res, err
	}
	wasRunning := P(&state).IsRunning()
	if opts.ForceRun {
		P(&state).SetRunning(true)
	}
	l := s.strategy.Layout(state)

	start := time.Now()
	measure := opts.UntilStable || opts.Stop != nil || opts.OnStep != nil
	var tracker deltaTracker
	if measure {
		tracker.reset(g)
	}
	for res.Steps < opts.Steps {
		if opts.Budget > 0 && time.Since(start) >= opts.Budget {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}
		before := P(&state).StepCount()
		l.Next(g, view)
		state = l.State()
		res.Steps++

		if !measure {
			continue
		}
		if avg, ok := P(&state).LastAvgDisplacement(); ok && P(&state).StepCount() > before {
			res.LastAvg = avg
			tracker.reset(g)
		} else {
			res.LastAvg = tracker.measure(g)
		}
		if opts.OnStep != nil {
			opts.OnStep(Progress{Steps: res.Steps, Avg: res.LastAvg, Nodes: g.NodeCount()})
		}
		if opts.UntilStable && res.LastAvg < opts.Epsilon {
			res.Stable = true
			break
		}
		if opts.Stop != nil && opts.Stop(Progress{Steps: res.Steps, Avg: res.LastAvg, Nodes: g.NodeCount()}) {
			res.Stopped = true
			break
		}
	}
	if !measure {
		if avg, ok := P(&state).LastAvgDisplacement(); ok {
			res.LastAvg = avg
		}
	}

	if opts.ForceRun {
		P(&state).SetRunning(wasRunning)
	}
	if err := s.Save(ctx, state); err != nil {
		return res, err
	}
	observability.Layout().OnFastForward(ctx, s.strategy.Name, res.Steps, time.Since(start))
	res.Status = s.status(P(&state))
	return res, nil
}

// deltaTracker measures the mean position change between two points in time.
type deltaTracker struct {
	nodes []graph.NodeIndex
	prev  []geom.Vec2
}

func (t *deltaTracker) reset(g graph.Graph) {
	t.nodes = slices.AppendSeq(t.nodes[:0], g.Nodes())
	t.prev = t.prev[:0]
	for _, idx := range t.nodes {
		t.prev = append(t.prev, g.Position(idx))
	}
}

func (t *deltaTracker) measure(g graph.Graph) float64 {
	if len(t.nodes) == 0 {
		return 0
	}
	var sum float64
	for i, idx := range t.nodes {
		cur := g.Position(idx)
		sum += cur.Dist(t.prev[i])
		t.prev[i] = cur
	}
	return sum / float64(len(t.nodes))
}
