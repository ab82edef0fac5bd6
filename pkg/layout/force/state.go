package force

import (
	"encoding/json"
	"math"
)

// Animated is the host-facing control surface of a layout state.
type Animated interface {
	IsRunning() bool
	SetRunning(bool)
	// LastAvgDisplacement reports the mean node move of the most recent
	// step, or false before the first step.
	LastAvgDisplacement() (float64, bool)
	StepCount() uint64
	SetStepCount(uint64)
}

// State holds the tunables and telemetry of the base algorithm.
type State struct {
	DT       float64 `json:"dt" validate:"finite,gt=0"`
	Damping  float64 `json:"damping" validate:"finite,gt=0,lte=1"`
	CRepulse float64 `json:"c_repulse" validate:"finite,gte=0"`
	CAttract float64 `json:"c_attract" validate:"finite,gte=0"`
	Epsilon  float64 `json:"epsilon" validate:"finite,gt=0"`
	KScale   float64 `json:"k_scale" validate:"finite,gt=0"`
	Running  bool    `json:"is_running"`
	MaxStep  float64 `json:"max_step" validate:"finite,gt=0"`

	AvgDisplacement *float64 `json:"last_avg_displacement"`
	Steps           uint64   `json:"step_count"`
}

var _ Animated = (*State)(nil)

// DefaultState returns the default tunables: running, dt 0.05, epsilon 1e-3,
// damping 0.3, max step 10 and unit coefficients.
func DefaultState() State {
	return State{
		DT:       0.05,
		Damping:  0.3,
		CRepulse: 1,
		CAttract: 1,
		Epsilon:  1e-3,
		KScale:   1,
		Running:  true,
		MaxStep:  10,
	}
}

func (s *State) IsRunning() bool     { return s.Running }
func (s *State) SetRunning(run bool) { s.Running = run }
func (s *State) StepCount() uint64   { return s.Steps }
func (s *State) SetStepCount(n uint64) {
	s.Steps = n
}

func (s *State) LastAvgDisplacement() (float64, bool) {
	if s.AvgDisplacement == nil {
		return 0, false
	}
	return *s.AvgDisplacement, true
}

func (s *State) setAvgDisplacement(avg float64) {
	s.AvgDisplacement = &avg
}

// Sanitize replaces every out-of-range field with its default and returns
// the JSON names of the replaced fields.
func (s *State) Sanitize() []string {
	fields := invalidFields(s)
	d := DefaultState()
	for _, f := range fields {
		switch f {
		case "dt":
			s.DT = d.DT
		case "damping":
			s.Damping = d.Damping
		case "c_repulse":
			s.CRepulse = d.CRepulse
		case "c_attract":
			s.CAttract = d.CAttract
		case "epsilon":
			s.Epsilon = d.Epsilon
		case "k_scale":
			s.KScale = d.KScale
		case "max_step":
			s.MaxStep = d.MaxStep
		}
	}
	if avg := s.AvgDisplacement; avg != nil && (math.IsNaN(*avg) || math.IsInf(*avg, 0) || *avg < 0) {
		s.AvgDisplacement = nil
		fields = append(fields, "last_avg_displacement")
	}
	return fields
}

// ExtrasState is [State] plus the parameters of a composition of extra
// forces. The base fields are flattened into the same JSON object.
type ExtrasState[E Extras[E]] struct {
	State
	Extras E `json:"extras"`
}

// DefaultExtrasState returns the default base state plus every extra's
// default entry.
func DefaultExtrasState[E Extras[E]]() ExtrasState[E] {
	var e E
	return ExtrasState[E]{State: DefaultState(), Extras: e.Defaults()}
}

// Sanitize sanitizes the base fields and the extras. A change anywhere in
// the extras is reported as "extras".
func (s *ExtrasState[E]) Sanitize() []string {
	fields := s.State.Sanitize()
	if e, changed := s.Extras.Sanitize(); changed {
		s.Extras = e
		fields = append(fields, "extras")
	}
	return fields
}

// Stateful is satisfied by pointers to persisted layout states.
type Stateful[S any] interface {
	*S
	Animated
	Sanitize() []string
}

// Decode decodes a persisted state on top of defaults, so absent fields keep
// their default values, and then sanitizes it.
//
// On malformed input the defaults are returned together with the decode
// error. The returned slice lists the fields that were sanitized.
func Decode[S any, P Stateful[S]](data []byte, defaults S) (S, []string, error) {
	s := defaults
	if err := json.Unmarshal(data, &s); err != nil {
		return defaults, nil, err
	}
	fields := P(&s).Sanitize()
	return s, fields, nil
}
