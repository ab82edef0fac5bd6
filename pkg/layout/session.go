package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/layout/force"
	"github.com/matzehuels/forcelayout/pkg/observability"
	"github.com/matzehuels/forcelayout/pkg/store"
)

const keyTypeLayout = "layout"

// SessionOptions configures a [Session].
type SessionOptions struct {
	// Logger receives debug and warning messages. Nil discards them.
	Logger *log.Logger
	// TTL is the expiry of persisted states. Zero keeps them forever.
	TTL time.Duration
}

// Status is the strategy-independent summary of a layout state.
type Status struct {
	Strategy            string   `json:"strategy"`
	ID                  string   `json:"id"`
	Running             bool     `json:"is_running"`
	Steps               uint64   `json:"step_count"`
	LastAvgDisplacement *float64 `json:"last_avg_displacement"`
}

// Session is the persisted layout state of one view, keyed by strategy and ID.
type Session[S any, P force.Stateful[S]] struct {
	strategy Strategy[S]
	id       string
	store    store.Store
	logger   *log.Logger
	ttl      time.Duration
}

var _ Controller = (*Session[force.State, *force.State])(nil)

// NewSession creates a session. A nil store keeps nothing between frames.
func NewSession[S any, P force.Stateful[S]](strategy Strategy[S], id string, st store.Store, opts SessionOptions) *Session[S, P] {
	if st == nil {
		st = store.NewNull()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session[S, P]{
		strategy: strategy,
		id:       id,
		store:    st,
		logger:   logger,
		ttl:      opts.TTL,
	}
}

// Strategy returns the strategy name.
func (s *Session[S, P]) Strategy() string { return s.strategy.Name }

// ID returns the session ID.
func (s *Session[S, P]) ID() string { return s.id }

// Key returns the store key of the persisted state.
func (s *Session[S, P]) Key() string { return store.LayoutKey(s.strategy.Name, s.id) }

// Load returns the persisted state, or the defaults when nothing usable is
// stored. Only store failures are returned as errors.
func (s *Session[S, P]) Load(ctx context.Context) (S, error) {
	data, hit, err := s.store.Get(ctx, s.Key())
	if err != nil {
		return s.strategy.Defaults(), fmt.Errorf("load %s: %w", s.Key(), err)
	}
	if !hit {
		observability.Store().OnStoreMiss(ctx, keyTypeLayout)
		return s.strategy.Defaults(), nil
	}
	observability.Store().OnStoreHit(ctx, keyTypeLayout)

	state, fields, err := force.Decode[S, P](data, s.strategy.Defaults())
	if err != nil {
		s.logger.Warn("undecodable layout state, using defaults", "key", s.Key(), "err", err)
		return state, nil
	}
	if len(fields) > 0 {
		s.logger.Debug("sanitized layout state", "key", s.Key(), "fields", fields)
		observability.Layout().OnStateSanitized(ctx, s.strategy.Name, fields)
	}
	return state, nil
}

// Save persists state.
func (s *Session[S, P]) Save(ctx context.Context, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode layout state: %w", err)
	}
	if err := s.store.Set(ctx, s.Key(), data, s.ttl); err != nil {
		return fmt.Errorf("save %s: %w", s.Key(), err)
	}
	observability.Store().OnStoreSet(ctx, keyTypeLayout, len(data))
	return nil
}

// Frame loads the state, advances the layout by one step and saves the
// result.
func (s *Session[S, P]) Frame(ctx context.Context, g graph.Graph, view geom.Rect) (Status, error) {
	start := time.Now()
	state, err := s.Load(ctx)
	if err != nil {
		return Status{}, err
	}
	l := s.strategy.Layout(state)
	l.Next(g, view)
	state = l.State()
	if err := s.Save(ctx, state); err != nil {
		return Status{}, err
	}
	observability.Layout().OnFrame(ctx, s.strategy.Name, g.NodeCount(), time.Since(start))
	return s.status(P(&state)), nil
}

// Reset replaces the persisted state with the defaults.
func (s *Session[S, P]) Reset(ctx context.Context) error {
	if err := s.Save(ctx, s.strategy.Defaults()); err != nil {
		return err
	}
	s.logger.Debug("reset layout state", "key", s.Key())
	observability.Layout().OnStateReset(ctx, s.strategy.Name)
	return nil
}

// Delete removes the persisted state.
func (s *Session[S, P]) Delete(ctx context.Context) error {
	return s.store.Delete(ctx, s.Key())
}

// SetRunning pauses or resumes the layout.
func (s *Session[S, P]) SetRunning(ctx context.Context, running bool) (Status, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return Status{}, err
	}
	P(&state).SetRunning(running)
	if err := s.Save(ctx, state); err != nil {
		return Status{}, err
	}
	return s.status(P(&state)), nil
}

// Status summarizes the persisted state.
func (s *Session[S, P]) Status(ctx context.Context) (Status, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return Status{}, err
	}
	return s.status(P(&state)), nil
}

// StateJSON returns the persisted state, or the defaults, as JSON.
func (s *Session[S, P]) StateJSON(ctx context.Context) (json.RawMessage, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

// SetStateJSON decodes data on top of the defaults, sanitizes it and
// persists it. Unlike Load, malformed input is an error.
func (s *Session[S, P]) SetStateJSON(ctx context.Context, data []byte) (Status, error) {
	state, fields, err := force.Decode[S, P](data, s.strategy.Defaults())
	if err != nil {
		return Status{}, fmt.Errorf("decode layout state: %w", err)
	}
	if len(fields) > 0 {
		observability.Layout().OnStateSanitized(ctx, s.strategy.Name, fields)
	}
	if err := s.Save(ctx, state); err != nil {
		return Status{}, err
	}
	return s.status(P(&state)), nil
}

func (s *Session[S, P]) status(state P) Status {
	st := Status{
		Strategy: s.strategy.Name,
		ID:       s.id,
		Running:  state.IsRunning(),
		Steps:    state.StepCount(),
	}
	if avg, ok := state.LastAvgDisplacement(); ok {
		st.LastAvgDisplacement = &avg
	}
	return st
}
