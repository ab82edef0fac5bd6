// Package pkg provides the core libraries for forcelayout force-directed
// graph layout.
//
// # Overview
//
// forcelayout places the nodes of an undirected graph with the
// Fruchterman-Reingold force simulation. A layout advances one step at a
// time; its tunables and telemetry live in a small JSON state that is
// persisted between steps, so a layout can be resumed, paused, tuned and
// rendered long after it started.
//
// # Architecture
//
// The typical data flow:
//
//	Graph document (JSON/YAML)
//	         ↓
//	    [graph] package (stable-index graph + serialization)
//	         ↓
//	    [layout] package (sessions over [layout/force] algorithms)
//	         ↓
//	    [store] package (persisted layout states)
//	         ↓
//	    [render] package (DOT, SVG, PNG, PDF)
//
// [pipeline] ties these together for the CLI and the HTTP [server].
//
// # Quick Start
//
// Step a layout directly:
//
//	g, _ := graph.ReadFile("graph.json", graph.DefaultPlacement)
//	alg := force.NewFruchtermanReingold(force.DefaultState())
//	view := geom.FromSize(800, 600)
//	for range 200 {
//	    alg.Step(g, view)
//	}
//
// Or fast-forward a persisted session:
//
//	ctrl, _ := layout.NewController(layout.NameFruchtermanReingold, "demo", store.NewMemory(), layout.SessionOptions{})
//	res, _ := ctrl.FastForward(ctx, g, view, layout.FastForwardOptions{Steps: 500, UntilStable: true})
//
// # Main Packages
//
// [geom] - 2D vectors and rectangles.
//
// [graph] - Graphs with stable node indices, plus the node-link document
// format used for files, API bodies and stored session graphs.
//
// [layout/force] - The Fruchterman-Reingold algorithm, its force
// primitives, and the extras mechanism that composes additional forces
// such as center gravity.
//
// [layout] - Strategies and sessions: load state, step, save state.
//
// [store] - Key-value persistence for layout states with memory, file,
// Redis and MongoDB backends.
//
// [render] and [render/nodelink] - DOT generation with pinned positions and
// Graphviz conversion to SVG, PNG and PDF.
//
// [pipeline] - Parse, layout and render with the same behavior for every
// entry point.
//
// [server] - HTTP API over layout sessions.
//
// [config] - TOML configuration file.
//
// [observability] - Hooks for metrics, with a Prometheus implementation.
//
// [errors] - Coded errors shared by the CLI and the API.
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/geom
// [graph]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/layout
// [layout/force]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/layout/force
// [store]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/store
// [render]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/forcelayout/pkg/errors
package pkg
