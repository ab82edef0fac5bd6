package force

import "github.com/matzehuels/forcelayout/pkg/geom"

// CenterGravityParams configures [CenterGravity].
type CenterGravityParams struct {
	// C is the pull strength toward the viewport center.
	C float64 `json:"c" validate:"finite"`
}

// CenterGravity pulls every node toward the viewport center with a force
// proportional to its distance from it.
type CenterGravity struct{}

var _ Plugin[CenterGravityParams] = CenterGravity{}

func (CenterGravity) DefaultParams() CenterGravityParams { return CenterGravityParams{C: 0.3} }

func (CenterGravity) EnabledByDefault() bool { return true }

func (CenterGravity) Apply(params CenterGravityParams, in *Input, disp []geom.Vec2) {
	if params.C == 0 {
		return
	}
	center := in.View.Center()
	for i, p := range in.Positions {
		disp[i] = disp[i].Add(center.Sub(p).Scale(params.C))
	}
}

// GravityExtras is the composition holding center gravity only.
type GravityExtras = Chain[Extra[CenterGravity, CenterGravityParams], None]

// GravityState is the persisted state of [FruchtermanReingoldWithCenterGravity].
type GravityState = ExtrasState[GravityExtras]

// FruchtermanReingoldWithCenterGravity is the base algorithm plus center gravity.
type FruchtermanReingoldWithCenterGravity = WithExtras[GravityExtras]

var _ Algorithm[GravityState] = (*FruchtermanReingoldWithCenterGravity)(nil)

// NewFruchtermanReingoldWithCenterGravity builds the gravity variant from state.
func NewFruchtermanReingoldWithCenterGravity(state GravityState) *FruchtermanReingoldWithCenterGravity {
	return NewWithExtras(state)
}

// DefaultGravityState returns the default state of the gravity variant.
func DefaultGravityState() GravityState {
	return DefaultExtrasState[GravityExtras]()
}
