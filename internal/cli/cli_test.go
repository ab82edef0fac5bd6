package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/layout"
	"github.com/matzehuels/forcelayout/pkg/pipeline"
)

const chainJSON = `{
  "nodes": [
    {"id": "a", "x": 100, "y": 100},
    {"id": "b", "x": 200, "y": 100},
    {"id": "c", "x": 300, "y": 100}
  ],
  "edges": [{"from": "a", "to": "b"}, {"from": "b", "to": "c"}]
}`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback string
		want     []string
	}{
		{"empty uses fallback", "", "svg", []string{"svg"}},
		{"empty json fallback", "", "json", []string{"json"}},
		{"single format", "png", "svg", []string{"png"}},
		{"multiple formats", "svg,pdf,png", "svg", []string{"svg", "pdf", "png"}},
		{"spaces trimmed", "svg, dot", "svg", []string{"svg", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input, tt.fallback)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"derived from input", "", "graphs/web.json", "graphs/web"},
		{"output with format extension", "out/web.svg", "web.json", "out/web"},
		{"output without extension", "out/web", "web.json", "out/web"},
		{"output with unknown extension", "out/web.txt", "web.json", "out/web.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestLayoutFlagsApplyOnlyChanged(t *testing.T) {
	var f layoutFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse([]string{"--steps", "7", "--damping", "0.5", "--no-gravity"}); err != nil {
		t.Fatal(err)
	}

	opts := pipeline.Options{
		Strategy: layout.NameFruchtermanReingold,
		Width:    1000,
		Tunables: pipeline.Tunables{DT: pipeline.Float(0.2)},
	}
	f.apply(fs, &opts)

	if opts.Steps != 7 {
		t.Errorf("Steps = %d, want 7", opts.Steps)
	}
	if opts.Strategy != layout.NameFruchtermanReingold {
		t.Errorf("Strategy overridden by default flag value: %q", opts.Strategy)
	}
	if opts.Width != 1000 {
		t.Errorf("Width overridden by default flag value: %v", opts.Width)
	}
	if opts.Tunables.DT == nil || *opts.Tunables.DT != 0.2 {
		t.Errorf("DT from config lost: %v", opts.Tunables.DT)
	}
	if opts.Tunables.Damping == nil || *opts.Tunables.Damping != 0.5 {
		t.Errorf("Damping = %v, want 0.5", opts.Tunables.Damping)
	}
	if opts.Tunables.GravityEnabled == nil || *opts.Tunables.GravityEnabled {
		t.Errorf("GravityEnabled = %v, want false", opts.Tunables.GravityEnabled)
	}
	if opts.Tunables.CRepulse != nil {
		t.Errorf("CRepulse set without flag: %v", *opts.Tunables.CRepulse)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "web.json")
	artifacts := map[string][]byte{"json": []byte("{}"), "dot": []byte("graph {}")}

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   []string{"json", "dot"},
		input:     input,
		suffix:    ".layout",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "web.layout.json"), filepath.Join(dir, "web.layout.dot")}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	data, err := os.ReadFile(want[1])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "graph {}" {
		t.Errorf("dot artifact = %q", data)
	}

	out := filepath.Join(dir, "custom.svg")
	paths, err = writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"svg": []byte("<svg/>")},
		formats:   []string{"svg"},
		input:     input,
		output:    out,
		suffix:    ".layout",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != out {
		t.Errorf("explicit output paths = %v, want [%s]", paths, out)
	}
}

func TestMustExist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte(chainJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := mustExist(path); err != nil {
		t.Errorf("mustExist(existing) = %v", err)
	}
	if err := mustExist(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("mustExist(missing) should fail")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard).RootCommand()
	for _, name := range []string{"layout", "render", "watch", "serve", "state", "config", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

// setupCommandTest writes a graph and a config with a file store into a
// temporary directory.
func setupCommandTest(t *testing.T) (graphPath, configPath, stateDir string) {
	t.Helper()
	dir := t.TempDir()
	graphPath = filepath.Join(dir, "chain.json")
	if err := os.WriteFile(graphPath, []byte(chainJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	stateDir = filepath.Join(dir, "states")
	configPath = filepath.Join(dir, "config.toml")
	cfg := "[store]\nbackend = \"file\"\ndir = \"" + stateDir + "\"\n"
	if err := os.WriteFile(configPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return graphPath, configPath, stateDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := New(io.Discard).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLayoutCommandResumesSession(t *testing.T) {
	graphPath, configPath, _ := setupCommandTest(t)

	for range 2 {
		if _, err := execute(t, "layout", graphPath, "--config", configPath, "--id", "chain", "-n", "5"); err != nil {
			t.Fatalf("layout: %v", err)
		}
	}

	outPath := strings.TrimSuffix(graphPath, ".json") + ".layout.json"
	g, err := graph.ReadFile(outPath, graph.DefaultPlacement)
	if err != nil {
		t.Fatalf("read layout output: %v", err)
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("layout output has %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}

	out, err := execute(t, "state", "show", pipeline.DefaultStrategy, "chain", "--config", configPath)
	if err != nil {
		t.Fatalf("state show: %v", err)
	}
	var status struct {
		Steps   uint64 `json:"step_count"`
		Running bool   `json:"is_running"`
	}
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode state %q: %v", out, err)
	}
	if status.Steps != 10 {
		t.Errorf("step_count = %d, want 10 after two runs of 5", status.Steps)
	}
	if !status.Running {
		t.Error("session should still be running")
	}

	if _, err := execute(t, "state", "reset", pipeline.DefaultStrategy, "chain", "--config", configPath); err != nil {
		t.Fatalf("state reset: %v", err)
	}
	out, err = execute(t, "state", "show", pipeline.DefaultStrategy, "chain", "--config", configPath)
	if err != nil {
		t.Fatalf("state show after reset: %v", err)
	}
	if !strings.Contains(out, `"step_count": 0`) {
		t.Errorf("state after reset = %s, want step_count 0", out)
	}
}

func TestLayoutCommandRejectsBadInput(t *testing.T) {
	graphPath, configPath, _ := setupCommandTest(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"layout", filepath.Join(t.TempDir(), "nope.json"), "--config", configPath}},
		{"unknown strategy", []string{"layout", graphPath, "--config", configPath, "--strategy", "spring"}},
		{"bad format", []string{"layout", graphPath, "--config", configPath, "-f", "gif"}},
		{"negative damping", []string{"layout", graphPath, "--config", configPath, "--damping", "-1"}},
		{"bad until", []string{"layout", graphPath, "--config", configPath, "--until", "steps >"}},
		{"missing config", []string{"layout", graphPath, "--config", filepath.Join(t.TempDir(), "none.toml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Errorf("%v should fail", tt.args)
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	graphPath, configPath, _ := setupCommandTest(t)
	out := filepath.Join(filepath.Dir(graphPath), "chain.dot")

	if _, err := execute(t, "render", graphPath, "--config", configPath, "-f", "dot", "-o", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "graph") {
		t.Errorf("dot output = %q", data)
	}
}

func TestStateClear(t *testing.T) {
	graphPath, configPath, stateDir := setupCommandTest(t)
	if _, err := execute(t, "layout", graphPath, "--config", configPath, "-n", "2"); err != nil {
		t.Fatalf("layout: %v", err)
	}

	out, err := execute(t, "state", "path", "--config", configPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != stateDir {
		t.Errorf("state path = %q, want %q", out, stateDir)
	}

	if _, err := execute(t, "state", "clear", "--config", configPath); err != nil {
		t.Fatalf("state clear: %v", err)
	}
	var files int
	_ = filepath.WalkDir(stateDir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files++
		}
		return nil
	})
	if files != 0 {
		t.Errorf("%d state files left after clear", files)
	}
}

func TestConfigInitAndPrint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if _, err := execute(t, "config", "init", "--config", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := execute(t, "config", "init", "--config", path); err == nil {
		t.Error("config init should refuse to overwrite without --force")
	}
	if _, err := execute(t, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("config init --force: %v", err)
	}

	out, err := execute(t, "config", "--config", path)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{"[layout]", "[force]", "[store]", "[server]"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %s", want)
		}
	}

	out, err = execute(t, "config", "path", "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}
}

func TestLayoutExampleGraphs(t *testing.T) {
	_, configPath, _ := setupCommandTest(t)
	dir := t.TempDir()

	for _, name := range []string{"triangle.json", "grid.yaml"} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(dir, name+".layout.json")
			src := filepath.Join("..", "..", "examples", "graphs", name)
			if _, err := execute(t, "layout", src, "--config", configPath, "-n", "50", "-o", out, "--fresh"); err != nil {
				t.Fatalf("layout %s: %v", name, err)
			}
			g, err := graph.ReadFile(out, graph.DefaultPlacement)
			if err != nil {
				t.Fatal(err)
			}
			if g.NodeCount() == 0 {
				t.Error("no nodes in layout output")
			}
		})
	}
}
