package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/layout/force"
	"github.com/matzehuels/forcelayout/pkg/store"
)

// Controller drives a session whose strategy is chosen at runtime.
type Controller interface {
	Strategy() string
	ID() string
	Frame(ctx context.Context, g graph.Graph, view geom.Rect) (Status, error)
	FastForward(ctx context.Context, g graph.Graph, view geom.Rect, opts FastForwardOptions) (Result, error)
	Reset(ctx context.Context) error
	Delete(ctx context.Context) error
	SetRunning(ctx context.Context, running bool) (Status, error)
	Status(ctx context.Context) (Status, error)
	StateJSON(ctx context.Context) (json.RawMessage, error)
	SetStateJSON(ctx context.Context, data []byte) (Status, error)
}

// ErrUnknownStrategy is returned by NewController for unsupported names.
var ErrUnknownStrategy = errors.New("unknown layout strategy")

var controllers = map[string]func(id string, st store.Store, opts SessionOptions) Controller{
	NameFruchtermanReingold: func(id string, st store.Store, opts SessionOptions) Controller {
		return NewSession(FruchtermanReingold, id, st, opts)
	},
	NameFruchtermanReingoldGravity: func(id string, st store.Store, opts SessionOptions) Controller {
		return NewSession(FruchtermanReingoldGravity, id, st, opts)
	},
}

// Strategies returns the registered strategy names, sorted.
func Strategies() []string {
	names := make([]string, 0, len(controllers))
	for name := range controllers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewController creates a session for the named strategy.
func NewController(strategy, id string, st store.Store, opts SessionOptions) (Controller, error) {
	newFn, ok := controllers[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	return newFn(id, st, opts), nil
}

var _ Controller = (*Session[force.GravityState, *force.GravityState])(nil)
