package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/render/nodelink"
)

func ExampleToDOT() {
	g := graph.New(false)
	_, _ = g.AddNode(graph.NodeInfo{ID: "app"}, geom.V(0, 0))
	_, _ = g.AddNode(graph.NodeInfo{ID: "db"}, geom.V(144, 0))
	_ = g.AddEdgeByID("app", "db")

	dot := nodelink.ToDOT(g, nodelink.Options{})
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "pos=") || strings.Contains(line, "--") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "app" [label="app", pos="0.0000,0.0000!"];
	// "db" [label="db", pos="2.0000,0.0000!"];
	// "app" -- "db";
}
