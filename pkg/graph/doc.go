// Package graph provides the graph model consumed by the layout engines and
// its file formats.
//
// # Architecture
//
// The engines in pkg/layout never see a concrete graph type. They depend on
// the narrow [Graph] contract:
//
//   - NodeCount, Nodes: iterate all live node indices
//   - Position, SetPosition: read and write a node's 2-D location
//   - Edges: iterate (source, target) index pairs
//
// [Stable] is the in-memory implementation used by the CLI and the server.
// Its indices stay valid when other nodes are removed, so a layout snapshot
// taken at the start of a step remains meaningful for the whole step.
//
// # Serialization
//
// Graphs use a simple node-link format, as JSON or YAML:
//
//	{
//	  "directed": false,
//	  "nodes": [{"id": "a", "x": 0, "y": 0}, {"id": "b"}],
//	  "edges": [{"from": "a", "to": "b"}]
//	}
//
// Coordinates are optional. Nodes without them are scattered inside the
// placement area using a seeded generator, so repeated imports of the same
// file start from the same positions.
//
//	g, _ := graph.ReadFile("deps.json", graph.DefaultPlacement)
//	graph.WriteFile(g, "deps.layout.json")
//	data, _ := graph.Marshal(g)
//
// # Concurrency
//
// [Stable] is not safe for concurrent use without external synchronization.
package graph
