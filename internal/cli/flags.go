package cli

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/matzehuels/forcelayout/pkg/pipeline"
)

// layoutFlags are the layout and tunable flags shared by layout and watch.
// Only flags set on the command line override the config file.
type layoutFlags struct {
	strategy    string
	id          string
	steps       int
	budget      time.Duration
	untilStable bool
	epsilon     float64
	until       string
	forceRun    bool
	fresh       bool
	width       float64
	height      float64
	seed        uint64

	dt        float64
	damping   float64
	cRepulse  float64
	cAttract  float64
	kScale    float64
	maxStep   float64
	gravity   float64
	noGravity bool
}

func (f *layoutFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.strategy, "strategy", pipeline.DefaultStrategy, "layout strategy")
	fs.StringVar(&f.id, "id", "", "session ID (default: derived from the graph content)")
	fs.IntVarP(&f.steps, "steps", "n", pipeline.DefaultSteps, "maximum steps to run")
	fs.DurationVar(&f.budget, "budget", 0, "wall-clock limit, e.g. 500ms (0 = unlimited)")
	fs.BoolVar(&f.untilStable, "until-stable", false, "stop once the average displacement drops below --epsilon")
	fs.Float64Var(&f.epsilon, "epsilon", pipeline.DefaultStableEpsilon, "stability threshold for --until-stable")
	fs.StringVar(&f.until, "until", "", `stop expression over steps, avg and nodes, e.g. "steps > 100 && avg < 0.5"`)
	fs.BoolVar(&f.forceRun, "force-run", false, "run even if the persisted layout is paused")
	fs.BoolVar(&f.fresh, "fresh", false, "discard the persisted layout state first")
	fs.Float64Var(&f.width, "width", pipeline.DefaultWidth, "viewport width")
	fs.Float64Var(&f.height, "height", pipeline.DefaultHeight, "viewport height")
	fs.Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "seed for placing nodes without coordinates")

	fs.Float64Var(&f.dt, "dt", 0, "integration time step")
	fs.Float64Var(&f.damping, "damping", 0, "velocity damping in (0, 1]")
	fs.Float64Var(&f.cRepulse, "c-repulse", 0, "repulsion coefficient")
	fs.Float64Var(&f.cAttract, "c-attract", 0, "attraction coefficient")
	fs.Float64Var(&f.kScale, "k-scale", 0, "scale of the ideal edge length")
	fs.Float64Var(&f.maxStep, "max-step", 0, "per-step displacement limit")
	fs.Float64Var(&f.gravity, "gravity", 0, "center gravity coefficient")
	fs.BoolVar(&f.noGravity, "no-gravity", false, "disable center gravity")
}

// apply overrides opts with every flag set in fs.
func (f *layoutFlags) apply(fs *pflag.FlagSet, opts *pipeline.Options) {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("strategy", func() { opts.Strategy = f.strategy })
	set("id", func() { opts.ID = f.id })
	set("steps", func() { opts.Steps = f.steps })
	set("budget", func() { opts.Budget = f.budget })
	set("until-stable", func() { opts.UntilStable = f.untilStable })
	set("epsilon", func() { opts.Epsilon = f.epsilon })
	set("until", func() { opts.Until = f.until })
	set("force-run", func() { opts.ForceRun = f.forceRun })
	set("fresh", func() { opts.Fresh = f.fresh })
	set("width", func() { opts.Width = f.width })
	set("height", func() { opts.Height = f.height })
	set("seed", func() { opts.Seed = f.seed })

	var t pipeline.Tunables
	set("dt", func() { t.DT = pipeline.Float(f.dt) })
	set("damping", func() { t.Damping = pipeline.Float(f.damping) })
	set("c-repulse", func() { t.CRepulse = pipeline.Float(f.cRepulse) })
	set("c-attract", func() { t.CAttract = pipeline.Float(f.cAttract) })
	set("k-scale", func() { t.KScale = pipeline.Float(f.kScale) })
	set("max-step", func() { t.MaxStep = pipeline.Float(f.maxStep) })
	set("gravity", func() { t.Gravity = pipeline.Float(f.gravity) })
	set("no-gravity", func() { t.GravityEnabled = pipeline.Bool(!f.noGravity) })
	opts.Tunables = opts.Tunables.Overlay(t)
}
