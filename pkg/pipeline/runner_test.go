package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/forcelayout/pkg/errors"
	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/layout"
	"github.com/matzehuels/forcelayout/pkg/store"
)

const triangle = `{
  "nodes": [
    {"id": "a", "x": 100, "y": 100},
    {"id": "b", "x": 200, "y": 100},
    {"id": "c"}
  ],
  "edges": [
    {"from": "a", "to": "b"},
    {"from": "b", "to": "c"},
    {"from": "c", "to": "a"}
  ]
}`

func writeGraph(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecute(t *testing.T) {
	r := NewRunner(store.NewMemory(), nil)
	path := writeGraph(t, "g.json", triangle)

	res, err := r.Execute(context.Background(), Options{
		Input:   path,
		Steps:   20,
		Formats: []string{FormatDOT, FormatJSON, FormatYAML},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.NodeCount != 3 || res.Stats.EdgeCount != 3 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Layout.Steps != 20 || res.Layout.Status.Steps != 20 {
		t.Errorf("layout = %+v", res.Layout)
	}
	if res.Stats.Resumed {
		t.Error("first run reported as resumed")
	}
	if len(res.GraphHash) != 64 {
		t.Errorf("GraphHash = %q", res.GraphHash)
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), `"a" -- "b"`) {
		t.Errorf("dot artifact = %s", res.Artifacts[FormatDOT])
	}

	doc, err := graph.Unmarshal(res.Artifacts[FormatJSON], graph.DefaultPlacement)
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if doc.NodeCount() != 3 {
		t.Errorf("json artifact has %d nodes", doc.NodeCount())
	}
	idx, _ := res.Graph.Index("a")
	if res.Graph.Position(idx) == geom.V(100, 100) {
		t.Error("node a did not move")
	}
	if !strings.Contains(string(res.Artifacts[FormatYAML]), "id: a") {
		t.Errorf("yaml artifact = %s", res.Artifacts[FormatYAML])
	}
}

func TestExecuteResumesSession(t *testing.T) {
	st := store.NewMemory()
	r := NewRunner(st, nil)
	path := writeGraph(t, "g.json", triangle)
	opts := Options{Input: path, Steps: 5, Formats: []string{FormatDOT}}

	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Stats.Resumed || res.Layout.Status.Steps != 10 {
		t.Errorf("second run: resumed=%v steps=%d", res.Stats.Resumed, res.Layout.Status.Steps)
	}

	opts.Fresh = true
	res, err = r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Resumed || res.Layout.Status.Steps != 5 {
		t.Errorf("fresh run: resumed=%v steps=%d", res.Stats.Resumed, res.Layout.Status.Steps)
	}
}

func TestExecuteAppliesTunables(t *testing.T) {
	st := store.NewMemory()
	r := NewRunner(st, nil)
	path := writeGraph(t, "g.json", triangle)

	_, err := r.Execute(context.Background(), Options{
		Input:    path,
		ID:       "tuned",
		Strategy: layout.NameFruchtermanReingoldGravity,
		Steps:    1,
		Formats:  []string{FormatDOT},
		Tunables: Tunables{DT: Float(0.02), Gravity: Float(0.9)},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctrl, err := r.Controller(layout.NameFruchtermanReingoldGravity, "tuned")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := ctrl.StateJSON(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var state struct {
		DT     float64 `json:"dt"`
		Steps  int     `json:"step_count"`
		Extras struct {
			Head struct {
				Params struct {
					C float64 `json:"c"`
				} `json:"params"`
			} `json:"head"`
		} `json:"extras"`
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatal(err)
	}
	if state.DT != 0.02 || state.Extras.Head.Params.C != 0.9 || state.Steps != 1 {
		t.Errorf("state = %s", raw)
	}
}

func TestExecuteUntil(t *testing.T) {
	r := NewRunner(nil, nil)
	path := writeGraph(t, "g.yaml", "nodes:\n  - id: a\n  - id: b\nedges:\n  - {from: a, to: b}\n")

	res, err := r.Execute(context.Background(), Options{
		Input:   path,
		Steps:   1000,
		Until:   "steps >= 4",
		Formats: []string{FormatDOT},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Layout.Steps != 4 || !res.Layout.Stopped {
		t.Errorf("layout = %+v", res.Layout)
	}
}

func TestExecuteErrors(t *testing.T) {
	r := NewRunner(nil, nil)
	good := writeGraph(t, "g.json", triangle)
	bad := writeGraph(t, "bad.json", `{"nodes": [{"id": "a"}, {"id": "a"}]}`)

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing file", Options{Input: filepath.Join(t.TempDir(), "none.json")}, errors.ErrCodeFileNotFound},
		{"empty path", Options{}, errors.ErrCodeInvalidPath},
		{"duplicate ids", Options{Input: bad}, errors.ErrCodeInvalidGraph},
		{"bad strategy", Options{Input: good, Strategy: "circular"}, errors.ErrCodeInvalidStrategy},
		{"bad format", Options{Input: good, Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"bad until", Options{Input: good, Until: "avg <"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestExecuteAll(t *testing.T) {
	r := NewRunner(store.NewMemory(), nil)
	var all []Options
	for i := range 4 {
		all = append(all, Options{
			Input:   writeGraph(t, fmt.Sprintf("g%d.json", i), triangle),
			ID:      fmt.Sprintf("batch-%d", i),
			Steps:   i + 1,
			Formats: []string{FormatJSON},
		})
	}

	results, err := r.ExecuteAll(context.Background(), all, 2)
	if err != nil {
		t.Fatalf("ExecuteAll: %v", err)
	}
	for i, res := range results {
		if res.Layout.Steps != i+1 {
			t.Errorf("result %d did %d steps", i, res.Layout.Steps)
		}
	}

	all[2].Formats = []string{"gif"}
	if _, err := r.ExecuteAll(context.Background(), all, 0); err == nil {
		t.Error("ExecuteAll() ignored a failing run")
	}
}

func TestSessionID(t *testing.T) {
	if got := SessionID("mine", "abc"); got != "mine" {
		t.Errorf("explicit id = %q", got)
	}
	hash := strings.Repeat("f", 64)
	got := SessionID("", hash)
	if got != "g-ffffffffffff" {
		t.Errorf("derived id = %q", got)
	}
	if err := errors.ValidateID(got); err != nil {
		t.Errorf("derived id invalid: %v", err)
	}
}

func TestExecuteReportsProgress(t *testing.T) {
	r := NewRunner(store.NewMemory(), nil)
	path := writeGraph(t, "g.json", triangle)

	var last layout.Progress
	calls := 0
	progress := func(p layout.Progress) {
		calls++
		last = p
	}
	_, err := r.Execute(context.Background(), Options{
		Input:    path,
		Steps:    12,
		Formats:  []string{FormatJSON},
		Progress: progress,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 12 || last.Steps != 12 || last.Nodes != 3 {
		t.Errorf("calls = %d, last = %+v", calls, last)
	}
}
