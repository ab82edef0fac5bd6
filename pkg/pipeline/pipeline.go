// Package pipeline runs graph layouts end to end for the CLI and the API.
//
// This package implements the complete parse → layout → render pipeline so
// every entry point shares the same defaults, validation and persistence
// behaviour.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Read a graph document (JSON or YAML) and scatter nodes that
//     have no coordinates into the viewport
//  2. Layout: Fast-forward a persisted force layout session over the graph
//  3. Render: Generate output in various formats (SVG, PNG, PDF, DOT, JSON, YAML)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(st, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "graph.json",
//	    Steps:   500,
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcelayout/pkg/errors"
	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = 600.0

	// DefaultSeed is the default random seed for initial placement.
	DefaultSeed = uint64(42)

	// DefaultSteps is the default number of fast-forward steps.
	DefaultSteps = 500

	// DefaultStableEpsilon is the average displacement below which a layout
	// counts as stable.
	DefaultStableEpsilon = 0.01

	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0

	// DefaultStrategy is the layout strategy used when none is given.
	DefaultStrategy = layout.NameFruchtermanReingoldGravity
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
	FormatYAML: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options
	Input string `json:"-"` // graph file path (CLI only)

	// Layout options
	Strategy    string        `json:"strategy,omitempty"`
	ID          string        `json:"id,omitempty"` // session ID; defaults to a prefix of the graph hash
	Steps       int           `json:"steps,omitempty"`
	Budget      time.Duration `json:"budget,omitempty"`
	UntilStable bool          `json:"until_stable,omitempty"`
	Epsilon     float64       `json:"epsilon,omitempty"`
	Until       string        `json:"until,omitempty"` // expr-lang stop condition over steps, avg, nodes
	ForceRun    bool          `json:"force_run,omitempty"`
	Fresh       bool          `json:"fresh,omitempty"` // reset the persisted state before running
	Tunables    Tunables      `json:"tunables"`
	Width       float64       `json:"width,omitempty"`
	Height      float64       `json:"height,omitempty"`
	Seed        uint64        `json:"seed,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Scale    float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger           `json:"-"`
	Progress func(layout.Progress) `json:"-"` // called after every layout step

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the laid-out graph.
	Graph *graph.Stable

	// GraphHash is the content hash of the graph before layout.
	GraphHash string

	// Layout reports what the fast-forward did.
	Layout layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Resumed    bool // a persisted state was continued
	LayoutTime time.Duration
	RenderTime time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(formatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStrategy checks that a strategy is registered.
func ValidateStrategy(name string) error {
	if !slices.Contains(layout.Strategies(), name) {
		return errors.New(errors.ErrCodeInvalidStrategy, "invalid strategy: %q (must be one of: %s)",
			name, strings.Join(layout.Strategies(), ", "))
	}
	return nil
}

func formatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if o.Steps == 0 {
		o.Steps = DefaultSteps
	}
	if o.Epsilon == 0 {
		o.Epsilon = DefaultStableEpsilon
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateStrategy(o.Strategy); err != nil {
		return err
	}
	if o.ID != "" {
		if err := errors.ValidateID(o.ID); err != nil {
			return err
		}
	}
	if o.Steps < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "steps must not be negative, got %d", o.Steps)
	}
	if o.Budget < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "budget must not be negative, got %s", o.Budget)
	}
	if !(o.Epsilon > 0) {
		return errors.New(errors.ErrCodeInvalidInput, "epsilon must be positive, got %v", o.Epsilon)
	}
	if view := o.View(); !view.IsPositive() || !view.IsFinite() {
		return errors.New(errors.ErrCodeInvalidInput, "viewport must be positive, got %vx%v", o.Width, o.Height)
	}
	return o.Tunables.Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	return ValidateFormats(o.Formats)
}

// View returns the viewport rectangle anchored at the origin.
func (o *Options) View() geom.Rect {
	return geom.FromSize(o.Width, o.Height)
}

// Placement returns where nodes without coordinates are scattered.
func (o *Options) Placement() graph.Placement {
	return graph.Placement{Area: o.View(), Seed: o.Seed}
}

// FastForwardOptions converts the layout options for [layout.Controller.FastForward].
func (o *Options) FastForwardOptions() (layout.FastForwardOptions, error) {
	stop, err := CompileUntil(o.Until)
	if err != nil {
		return layout.FastForwardOptions{}, err
	}
	return layout.FastForwardOptions{
		Steps:       o.Steps,
		Budget:      o.Budget,
		UntilStable: o.UntilStable,
		Epsilon:     o.Epsilon,
		ForceRun:    o.ForceRun,
		Stop:        stop,
		OnStep:      o.Progress,
	}, nil
}

// String summarizes the layout options for logs.
func (o *Options) String() string {
	return fmt.Sprintf("%s steps=%d view=%vx%v", o.Strategy, o.Steps, o.Width, o.Height)
}
