package graph

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/forcelayout/pkg/geom"
)

const sampleJSON = `{
  "nodes": [
    {"id": "a", "x": 10, "y": 20, "label": "Alpha", "meta": {"kind": "root"}},
    {"id": "b"},
    {"id": "c", "x": 5}
  ],
  "edges": [{"from": "a", "to": "b"}, {"from": "b", "to": "c"}]
}`

func TestReadPlacement(t *testing.T) {
	place := Placement{Area: geom.FromSize(100, 50), Seed: 7}
	g, err := Read(strings.NewReader(sampleJSON), FormatJSON, place)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Fatalf("got %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}

	a, _ := g.Index("a")
	if got := g.Position(a); got != geom.V(10, 20) {
		t.Errorf("explicit position = %v, want (10,20)", got)
	}
	for _, id := range []string{"b", "c"} {
		idx, _ := g.Index(id)
		if p := g.Position(idx); !place.Area.Contains(p) {
			t.Errorf("%s placed at %v outside %v", id, p, place.Area)
		}
	}

	again, _ := Read(strings.NewReader(sampleJSON), FormatJSON, place)
	b1, _ := g.Index("b")
	b2, _ := again.Index("b")
	if g.Position(b1) != again.Position(b2) {
		t.Error("placement not deterministic for equal seeds")
	}
}

func TestReadInvalidPlacementFallsBack(t *testing.T) {
	g, err := Read(strings.NewReader(`{"nodes":[{"id":"a"}],"edges":[]}`), FormatJSON, Placement{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	a, _ := g.Index("a")
	if p := g.Position(a); !DefaultPlacement.Area.Contains(p) {
		t.Errorf("position %v outside default area", p)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Malformed", input: `{"nodes": [`, want: "decode"},
		{name: "DuplicateNode", input: `{"nodes":[{"id":"a"},{"id":"a"}]}`, want: "duplicate"},
		{name: "DanglingEdge", input: `{"nodes":[{"id":"a"}],"edges":[{"from":"a","to":"x"}]}`, want: "unknown target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), FormatJSON, DefaultPlacement)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			g, err := Unmarshal([]byte(sampleJSON), DefaultPlacement)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			path := filepath.Join(t.TempDir(), "graph"+ext)
			if err := WriteFile(g, path); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			back, err := ReadFile(path, Placement{Area: geom.FromSize(1, 1), Seed: 1})
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			for _, id := range g.IDs() {
				i1, _ := g.Index(id)
				i2, ok := back.Index(id)
				if !ok {
					t.Fatalf("node %s lost", id)
				}
				if g.Position(i1) != back.Position(i2) {
					t.Errorf("%s: position %v != %v", id, g.Position(i1), back.Position(i2))
				}
			}
			a, _ := back.Index("a")
			info, _ := back.Node(a)
			if info.Label != "Alpha" || info.Meta["kind"] != "root" {
				t.Errorf("node a = %+v", info)
			}
		})
	}
}

func TestMarshalDeterministic(t *testing.T) {
	g := New(true)
	mustAdd(t, g, "z", geom.V(1, 1))
	mustAdd(t, g, "m", geom.V(2, 2))
	mustAdd(t, g, "a", geom.V(3, 3))

	first, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, _ := Marshal(g)
	if !bytes.Equal(first, second) {
		t.Error("Marshal output not deterministic")
	}
	if ia, iz := bytes.Index(first, []byte(`"a"`)), bytes.Index(first, []byte(`"z"`)); ia > iz {
		t.Error("nodes not sorted by ID")
	}
	if !bytes.Contains(first, []byte(`"directed": true`)) {
		t.Errorf("directed flag missing:\n%s", first)
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"g.json": FormatJSON,
		"g.YAML": FormatYAML,
		"g.yml":  FormatYAML,
		"g":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"), DefaultPlacement)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}
