package force

import "github.com/matzehuels/forcelayout/pkg/geom"

// Extras is a statically composed list of extra forces.
//
// Each element can construct its own defaults and sanitize itself, so a
// composition's default state is derived from its type alone.
type Extras[T any] interface {
	Defaults() T
	// Sanitize returns a copy with invalid parameters replaced by defaults
	// and reports whether anything changed.
	Sanitize() (T, bool)
	ApplyAll(in *Input, disp []geom.Vec2)
}

// Extra is one entry of a composition: a plugin type plus its runtime
// toggle and parameters.
type Extra[F Plugin[P], P any] struct {
	Enabled bool `json:"enabled"`
	Params  P    `json:"params"`
}

var _ Extras[Extra[CenterGravity, CenterGravityParams]] = Extra[CenterGravity, CenterGravityParams]{}

// Defaults returns the plugin's default entry.
func (Extra[F, P]) Defaults() Extra[F, P] {
	var f F
	return Extra[F, P]{Enabled: f.EnabledByDefault(), Params: f.DefaultParams()}
}

// Sanitize resets the parameters to the plugin defaults if they fail
// validation. The enabled flag is kept.
func (e Extra[F, P]) Sanitize() (Extra[F, P], bool) {
	if validParams(e.Params) {
		return e, false
	}
	var f F
	e.Params = f.DefaultParams()
	return e, true
}

// ApplyAll applies the plugin when enabled.
func (e Extra[F, P]) ApplyAll(in *Input, disp []geom.Vec2) {
	if !e.Enabled {
		return
	}
	var f F
	f.Apply(e.Params, in, disp)
}

// Chain prepends Head to the composition Tail.
type Chain[H Extras[H], T Extras[T]] struct {
	Head H `json:"head"`
	Tail T `json:"tail"`
}

func (Chain[H, T]) Defaults() Chain[H, T] {
	var (
		h H
		t T
	)
	return Chain[H, T]{Head: h.Defaults(), Tail: t.Defaults()}
}

func (c Chain[H, T]) Sanitize() (Chain[H, T], bool) {
	h, hc := c.Head.Sanitize()
	t, tc := c.Tail.Sanitize()
	return Chain[H, T]{Head: h, Tail: t}, hc || tc
}

// ApplyAll applies Head, then the rest of the chain.
func (c Chain[H, T]) ApplyAll(in *Input, disp []geom.Vec2) {
	c.Head.ApplyAll(in, disp)
	c.Tail.ApplyAll(in, disp)
}

// None terminates a composition.
type None struct{}

func (None) Defaults() None               { return None{} }
func (None) Sanitize() (None, bool)       { return None{}, false }
func (None) ApplyAll(*Input, []geom.Vec2) {}
