package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcelayout/pkg/errors"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/layout"
	"github.com/matzehuels/forcelayout/pkg/store"
)

// Runner encapsulates pipeline execution with persisted layout sessions.
// Both CLI and API use this to avoid duplicating session handling.
//
// The Runner is stateless except for the store and logger - it doesn't
// keep pipeline results. Multiple goroutines can safely use the same
// Runner as long as they lay out different sessions.
type Runner struct {
	Store  store.Store
	Logger *log.Logger
	// TTL is the expiry of persisted layout states. Zero keeps them.
	TTL time.Duration
}

// NewRunner creates a runner with the given store.
// If st is nil, a Null store is used (nothing persists between runs).
func NewRunner(st store.Store, logger *log.Logger) *Runner {
	if st == nil {
		st = store.NewNull()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:  st,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	g, err := Parse(opts)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("read graph",
		"path", opts.Input,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount())

	return r.Run(ctx, g, opts)
}

// Run lays out and renders an already parsed graph. The graph's positions
// are updated in place.
func (r *Runner) Run(ctx context.Context, g *graph.Stable, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Graph:     g,
		GraphHash: GraphHash(g),
		Artifacts: make(map[string][]byte),
	}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	// Stage 1: Layout
	layoutStart := time.Now()
	res, resumed, err := r.layoutGraph(ctx, g, SessionID(opts.ID, result.GraphHash), opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = res
	result.Stats.Resumed = resumed
	result.Stats.LayoutTime = time.Since(layoutStart)

	r.Logger.Info("computed layout",
		"strategy", opts.Strategy,
		"steps", res.Steps,
		"total_steps", res.Status.Steps,
		"stable", res.Stable,
		"duration", result.Stats.LayoutTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, err := Render(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Layout fast-forwards the persisted session for g without rendering.
func (r *Runner) Layout(ctx context.Context, g *graph.Stable, opts Options) (layout.Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Result{}, err
	}
	res, _, err := r.layoutGraph(ctx, g, SessionID(opts.ID, GraphHash(g)), opts)
	return res, err
}

func (r *Runner) layoutGraph(ctx context.Context, g *graph.Stable, id string, opts Options) (layout.Result, bool, error) {
	ctrl, err := r.Controller(opts.Strategy, id)
	if err != nil {
		return layout.Result{}, false, err
	}
	opts.Logger.Debug("layout session", "key", store.LayoutKey(opts.Strategy, id), "opts", opts.String())

	if opts.Fresh {
		if err := ctrl.Reset(ctx); err != nil {
			return layout.Result{}, false, errors.Wrap(errors.ErrCodeStore, err, "reset layout")
		}
	}
	status, err := ctrl.Status(ctx)
	if err != nil {
		return layout.Result{}, false, errors.Wrap(errors.ErrCodeStore, err, "load layout")
	}
	if !opts.Tunables.IsZero() {
		if _, err := ApplyTunables(ctx, ctrl, opts.Tunables); err != nil {
			return layout.Result{}, false, err
		}
	}

	ff, err := opts.FastForwardOptions()
	if err != nil {
		return layout.Result{}, false, err
	}
	res, err := ctrl.FastForward(ctx, g, opts.View(), ff)
	if err != nil {
		return layout.Result{}, false, errors.Wrap(errors.ErrCodeStore, err, "fast-forward layout")
	}
	return res, status.Steps > 0, nil
}

// Controller opens the session of the named strategy on the runner's store.
func (r *Runner) Controller(strategy, id string) (layout.Controller, error) {
	if err := errors.ValidateID(id); err != nil {
		return nil, err
	}
	ctrl, err := layout.NewController(strategy, id, r.Store, layout.SessionOptions{Logger: r.Logger, TTL: r.TTL})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStrategy, err, "open session")
	}
	return ctrl, nil
}

// ApplyTunables overlays t onto the persisted state of ctrl.
func ApplyTunables(ctx context.Context, ctrl layout.Controller, t Tunables) (layout.Status, error) {
	if err := t.Validate(); err != nil {
		return layout.Status{}, err
	}
	cur, err := ctrl.StateJSON(ctx)
	if err != nil {
		return layout.Status{}, errors.Wrap(errors.ErrCodeStore, err, "load layout state")
	}
	merged, err := t.Apply(cur)
	if err != nil {
		return layout.Status{}, errors.Wrap(errors.ErrCodeInternal, err, "merge tunables")
	}
	status, err := ctrl.SetStateJSON(ctx, merged)
	if err != nil {
		return layout.Status{}, errors.Wrap(errors.ErrCodeStore, err, "save layout state")
	}
	return status, nil
}

// GraphHash is the content hash of a graph's canonical JSON form.
func GraphHash(g *graph.Stable) string {
	data, err := graph.Marshal(g)
	if err != nil {
		return ""
	}
	return store.Hash(data)
}

// SessionID picks the explicit ID, or derives one from the graph hash so
// the same input file resumes the same session.
func SessionID(id, hash string) string {
	if id != "" {
		return id
	}
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return "g-" + hash
}

// Close releases resources held by the runner (primarily the store).
func (r *Runner) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
