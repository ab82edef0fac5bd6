package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/forcelayout/pkg/errors"
	"github.com/matzehuels/forcelayout/pkg/layout/force"
)

// Tunables overrides individual fields of a layout state. Nil fields leave
// the persisted value alone.
type Tunables struct {
	DT       *float64 `json:"dt,omitempty" validate:"omitempty,finite,gt=0"`
	Damping  *float64 `json:"damping,omitempty" validate:"omitempty,finite,gt=0,lte=1"`
	CRepulse *float64 `json:"c_repulse,omitempty" validate:"omitempty,finite,gte=0"`
	CAttract *float64 `json:"c_attract,omitempty" validate:"omitempty,finite,gte=0"`
	Epsilon  *float64 `json:"epsilon,omitempty" validate:"omitempty,finite,gt=0"`
	KScale   *float64 `json:"k_scale,omitempty" validate:"omitempty,finite,gt=0"`
	MaxStep  *float64 `json:"max_step,omitempty" validate:"omitempty,finite,gt=0"`

	// Gravity settings only apply to strategies with center gravity.
	Gravity        *float64 `json:"gravity,omitempty" validate:"omitempty,finite"`
	GravityEnabled *bool    `json:"gravity_enabled,omitempty"`
}

var validate = force.NewValidator()

// Validate rejects out-of-range overrides.
func (t Tunables) Validate() error {
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid tunables")
	}
	return nil
}

// IsZero reports whether no field is overridden.
func (t Tunables) IsZero() bool {
	return t == Tunables{}
}

// Overlay returns t with every field set in o replacing its own.
func (t Tunables) Overlay(o Tunables) Tunables {
	pick := func(a, b *float64) *float64 {
		if b != nil {
			return b
		}
		return a
	}
	t.DT = pick(t.DT, o.DT)
	t.Damping = pick(t.Damping, o.Damping)
	t.CRepulse = pick(t.CRepulse, o.CRepulse)
	t.CAttract = pick(t.CAttract, o.CAttract)
	t.Epsilon = pick(t.Epsilon, o.Epsilon)
	t.KScale = pick(t.KScale, o.KScale)
	t.MaxStep = pick(t.MaxStep, o.MaxStep)
	t.Gravity = pick(t.Gravity, o.Gravity)
	if o.GravityEnabled != nil {
		t.GravityEnabled = o.GravityEnabled
	}
	return t
}

// patch returns the overrides as a partial state document.
func (t Tunables) patch() map[string]any {
	p := map[string]any{}
	set := func(key string, v *float64) {
		if v != nil {
			p[key] = *v
		}
	}
	set("dt", t.DT)
	set("damping", t.Damping)
	set("c_repulse", t.CRepulse)
	set("c_attract", t.CAttract)
	set("epsilon", t.Epsilon)
	set("k_scale", t.KScale)
	set("max_step", t.MaxStep)

	if t.Gravity != nil || t.GravityEnabled != nil {
		head := map[string]any{}
		if t.GravityEnabled != nil {
			head["enabled"] = *t.GravityEnabled
		}
		if t.Gravity != nil {
			head["params"] = map[string]any{"c": *t.Gravity}
		}
		p["extras"] = map[string]any{"head": head}
	}
	return p
}

// Apply overlays the overrides onto a state document and returns the
// merged document. Fields absent from the state are added.
func (t Tunables) Apply(state []byte) ([]byte, error) {
	doc := map[string]any{}
	if len(state) > 0 {
		if err := json.Unmarshal(state, &doc); err != nil {
			return nil, fmt.Errorf("decode state: %w", err)
		}
	}
	merge(doc, t.patch())
	return json.Marshal(doc)
}

// merge copies src into dst, descending into nested objects.
func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		existing, ok := dst[k].(map[string]any)
		if !ok {
			existing = map[string]any{}
			dst[k] = existing
		}
		merge(existing, sub)
	}
}

// Float returns a pointer to v, for building Tunables literals.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building Tunables literals.
func Bool(v bool) *bool { return &v }
