package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/forcelayout/pkg/buildinfo"
	"github.com/matzehuels/forcelayout/pkg/errors"
	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/layout"
	"github.com/matzehuels/forcelayout/pkg/pipeline"
)

// =============================================================================
// Request Types
// =============================================================================

type createRequest struct {
	ID       string            `json:"id,omitempty"`
	Strategy string            `json:"strategy,omitempty"`
	Graph    graph.Document    `json:"graph"`
	Width    float64           `json:"width,omitempty"`
	Height   float64           `json:"height,omitempty"`
	Seed     uint64            `json:"seed,omitempty"`
	Tunables pipeline.Tunables `json:"tunables"`
	State    json.RawMessage   `json:"state,omitempty"`
}

type fastForwardRequest struct {
	Steps       int     `json:"steps,omitempty"`
	BudgetMS    int64   `json:"budget_ms,omitempty"`
	UntilStable bool    `json:"until_stable,omitempty"`
	Epsilon     float64 `json:"epsilon,omitempty"`
	ForceRun    bool    `json:"force_run,omitempty"`
	Until       string  `json:"until,omitempty"`
}

type runningRequest struct {
	Running *bool `json:"running"`
}

type viewRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatYAML: "application/yaml",
}

// =============================================================================
// Service Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"strategies": layout.Strategies(),
		"default":    s.cfg.Defaults.Strategy,
	})
}

// =============================================================================
// Session Handlers
// =============================================================================

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := s.cfg.Defaults
	opts.ID = req.ID
	if req.Strategy != "" {
		opts.Strategy = req.Strategy
	}
	if req.Width != 0 {
		opts.Width = req.Width
	}
	if req.Height != 0 {
		opts.Height = req.Height
	}
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}
	opts.Tunables = opts.Tunables.Overlay(req.Tunables)
	if err := opts.ValidateForLayout(); err != nil {
		s.respondError(w, r, err)
		return
	}

	g, err := graph.ToStable(req.Graph, opts.Placement())
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInvalidGraph, err, "invalid graph: %v", err))
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	ctx := r.Context()
	found, err := s.exists(ctx, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if found {
		s.respondError(w, r, errors.New(errors.ErrCodeConflict, "session %s already exists", id))
		return
	}

	now := time.Now().UTC()
	rec := &record{
		ID:        id,
		Strategy:  opts.Strategy,
		View:      opts.View(),
		Seed:      opts.Seed,
		Graph:     graph.FromStable(g),
		CreatedAt: now,
	}
	ctrl, err := s.controller(rec)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := ctrl.Reset(ctx); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "reset layout state"))
		return
	}
	if len(req.State) > 0 {
		if _, err := ctrl.SetStateJSON(ctx, req.State); err != nil {
			s.respondError(w, r, stateError(err))
			return
		}
	}
	status, err := pipeline.ApplyTunables(ctx, ctrl, opts.Tunables)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.saveRecord(ctx, rec); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Info("session created",
		"id", id,
		"strategy", rec.Strategy,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount())
	s.respondJSON(w, http.StatusCreated, newSessionResponse(rec, status))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, ctrl, err := s.session(r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	status, err := ctrl.Status(r.Context())
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "load layout state"))
		return
	}
	s.respondJSON(w, http.StatusOK, newSessionResponse(rec, status))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	_, ctrl, err := s.session(r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	ctx := r.Context()
	if err := ctrl.Delete(ctx); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "delete layout state"))
		return
	}
	if err := s.deleteRecord(ctx, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.Info("session deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleStep advances the session by n frames. A single frame honours the
// running flag exactly like an animation host would.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	n := 1
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > s.cfg.MaxSteps {
			s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "n must be between 1 and %d, got %q", s.cfg.MaxSteps, raw))
			return
		}
		n = v
	}

	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, ctrl, err := s.session(r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := rec.graph()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	prev, err := ctrl.StateJSON(ctx)
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "load layout state"))
		return
	}
	var resp sessionResponse
	if n == 1 {
		status, err := ctrl.Frame(ctx, g, rec.View)
		if err != nil {
			s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "step layout"))
			return
		}
		resp = newSessionResponse(rec, status)
	} else {
		res, err := ctrl.FastForward(ctx, g, rec.View, layout.FastForwardOptions{Steps: n})
		if err != nil {
			s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "step layout"))
			return
		}
		resp = newSessionResponse(rec, res.Status)
		resp.Result = &res
	}

	if err := s.commitPositions(ctx, rec, ctrl, g, prev); err != nil {
		s.respondError(w, r, err)
		return
	}
	resp.Graph = rec.Graph
	resp.UpdatedAt = rec.UpdatedAt
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFastForward(w http.ResponseWriter, r *http.Request) {
	var req fastForwardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := s.cfg.Defaults
	opts.Tunables = pipeline.Tunables{}
	if req.Steps != 0 {
		opts.Steps = req.Steps
	}
	if req.Epsilon != 0 {
		opts.Epsilon = req.Epsilon
	}
	opts.Budget = time.Duration(req.BudgetMS) * time.Millisecond
	opts.UntilStable = req.UntilStable
	opts.ForceRun = req.ForceRun
	opts.Until = req.Until
	if err := opts.ValidateForLayout(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if opts.Steps > s.cfg.MaxSteps {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "steps must not exceed %d, got %d", s.cfg.MaxSteps, opts.Steps))
		return
	}
	ffOpts, err := opts.FastForwardOptions()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, ctrl, err := s.session(r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := rec.graph()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	prev, err := ctrl.StateJSON(ctx)
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "load layout state"))
		return
	}
	start := time.Now()
	res, err := ctrl.FastForward(ctx, g, rec.View, ffOpts)
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "fast-forward layout"))
		return
	}
	if err := s.commitPositions(ctx, rec, ctrl, g, prev); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Debug("fast-forward",
		"id", id,
		"steps", res.Steps,
		"stable", res.Stable,
		"stopped", res.Stopped,
		"duration", time.Since(start))
	resp := newSessionResponse(rec, res.Status)
	resp.Result = &res
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetRunning(w http.ResponseWriter, r *http.Request) {
	var req runningRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Running == nil {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing field: running"))
		return
	}

	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, ctrl, err := s.session(r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	status, err := ctrl.SetRunning(r.Context(), *req.Running)
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "save layout state"))
		return
	}
	s.respondJSON(w, http.StatusOK, newSessionResponse(rec, status))
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	view := geom.FromSize(req.Width, req.Height)
	if !view.IsPositive() || !view.IsFinite() {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "viewport must be positive, got %vx%v", req.Width, req.Height))
		return
	}

	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, ctrl, err := s.session(r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	ctx := r.Context()
	rec.View = view
	if err := s.saveRecord(ctx, rec); err != nil {
		s.respondError(w, r, err)
		return
	}
	status, err := ctrl.Status(ctx)
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "load layout state"))
		return
	}
	s.respondJSON(w, http.StatusOK, newSessionResponse(rec, status))
}

// =============================================================================
// State Handlers
// =============================================================================

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	_, ctrl, err := s.session(r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	state, err := ctrl.StateJSON(r.Context())
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "load layout state"))
		return
	}
	s.respondJSON(w, http.StatusOK, state)
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "empty layout state"))
		return
	}

	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	_, ctrl, err := s.session(r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	status, err := ctrl.SetStateJSON(r.Context(), data)
	if err != nil {
		s.respondError(w, r, stateError(err))
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	_, ctrl, err := s.session(r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	ctx := r.Context()
	if err := ctrl.Reset(ctx); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "reset layout state"))
		return
	}
	status, err := ctrl.Status(ctx)
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeStore, err, "load layout state"))
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

// =============================================================================
// Render Handler
// =============================================================================

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.respondError(w, r, err)
		return
	}
	opts := pipeline.Options{
		Formats:  []string{format},
		Detailed: r.URL.Query().Get("detailed") == "true",
	}
	if raw := r.URL.Query().Get("scale"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid scale: %q", raw))
			return
		}
		opts.Scale = v
	}

	rec, err := s.loadRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := rec.graph()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	artifacts, err := pipeline.Render(r.Context(), g, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifacts[format]); err != nil {
		s.logger.Warn("write render", "format", format, "err", err)
	}
}

// =============================================================================
// Helpers
// =============================================================================

// session loads the record and controller of id. The caller holds the lock.
func (s *Server) session(r *http.Request, id string) (*record, layout.Controller, error) {
	rec, err := s.loadRecord(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := s.controller(rec)
	if err != nil {
		return nil, nil, err
	}
	return rec, ctrl, nil
}

// stateError classifies a failed state upload: malformed JSON is the
// client's fault, everything else is the store's.
func stateError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid layout state: %v", err)
	}
	return errors.Wrap(errors.ErrCodeStore, err, "save layout state")
}
