package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/forcelayout/pkg/errors"
	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/layout"
	"github.com/matzehuels/forcelayout/pkg/store"
)

// record is the persisted part of a session besides its layout state.
type record struct {
	ID        string         `json:"id"`
	Strategy  string         `json:"strategy"`
	View      geom.Rect      `json:"view"`
	Seed      uint64         `json:"seed"`
	Graph     graph.Document `json:"graph"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (s *Server) loadRecord(ctx context.Context, id string) (*record, error) {
	if err := errors.ValidateID(id); err != nil {
		return nil, err
	}
	data, ok, err := s.store.Get(ctx, store.GraphKey(id))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load session %s", id)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode session %s", id)
	}
	return &rec, nil
}

func (s *Server) saveRecord(ctx context.Context, rec *record) error {
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode session %s", rec.ID)
	}
	if err := s.store.Set(ctx, store.GraphKey(rec.ID), data, s.cfg.TTL); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save session %s", rec.ID)
	}
	return nil
}

// commitPositions stores the positions of g after a step. The layout state
// was already saved by the step, so on failure it is put back to prev and
// the stored state never runs ahead of the stored graph.
func (s *Server) commitPositions(ctx context.Context, rec *record, ctrl layout.Controller, g *graph.Stable, prev json.RawMessage) error {
	rec.Graph = graph.FromStable(g)
	err := s.saveRecord(ctx, rec)
	if err == nil {
		return nil
	}
	if _, rerr := ctrl.SetStateJSON(ctx, prev); rerr != nil {
		s.logger.Error("restore layout state", "id", rec.ID, "error", rerr)
	}
	return err
}

func (s *Server) deleteRecord(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, store.GraphKey(id)); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete session %s", id)
	}
	return nil
}

func (s *Server) exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := s.store.Get(ctx, store.GraphKey(id))
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStore, err, "load session %s", id)
	}
	return ok, nil
}

// graph rebuilds the session graph. Every stored node carries a position,
// so the placement only matters for documents edited by hand.
func (rec *record) graph() (*graph.Stable, error) {
	g, err := graph.ToStable(rec.Graph, graph.Placement{Area: rec.View, Seed: rec.Seed})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rebuild graph of session %s", rec.ID)
	}
	return g, nil
}

func (s *Server) controller(rec *record) (layout.Controller, error) {
	ctrl, err := layout.NewController(rec.Strategy, rec.ID, s.store, layout.SessionOptions{Logger: s.logger, TTL: s.cfg.TTL})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStrategy, err, "session %s", rec.ID)
	}
	return ctrl, nil
}

// sessionResponse is the JSON view of a session.
type sessionResponse struct {
	ID        string         `json:"id"`
	Strategy  string         `json:"strategy"`
	View      geom.Rect      `json:"view"`
	Status    layout.Status  `json:"status"`
	Graph     graph.Document `json:"graph"`
	Result    *layout.Result `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newSessionResponse(rec *record, status layout.Status) sessionResponse {
	return sessionResponse{
		ID:        rec.ID,
		Strategy:  rec.Strategy,
		View:      rec.View,
		Status:    status,
		Graph:     rec.Graph,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
