package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcelayout/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple outputs)
	formats  []string // output formats: "svg", "pdf", "png", "dot", ...
	detailed bool     // show node metadata in drawn labels
	scale    float64  // PNG resolution multiplier
}

// renderCommand creates the render command for drawing positioned graphs.
// Nodes are drawn where the graph file puts them; no layout is run.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Draw a positioned graph as SVG, PNG, PDF or DOT",
		Long: `Draw a positioned graph as SVG, PNG, PDF or DOT.

The render command draws nodes at the coordinates stored in the graph file,
typically the output of the layout command. Nodes without coordinates are
scattered over the configured viewport.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr, pipeline.FormatSVG)
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json, yaml (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include node metadata in drawn labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG resolution multiplier")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, ro renderOpts) error {
	opts := c.cfg.Options()
	opts.Input = input
	opts.Formats = ro.formats
	opts.Detailed = ro.detailed
	opts.Scale = ro.scale
	opts.Logger = loggerFromContext(ctx)
	if err := opts.ValidateForRender(); err != nil {
		return err
	}

	prog := newProgress(opts.Logger)
	g, err := pipeline.Parse(opts)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, err := pipeline.Render(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    ro.output,
	})
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	printSuccess("Rendered %s", input)
	for _, p := range paths {
		printFile(p)
	}
	printStats(g.NodeCount(), g.EdgeCount(), false)
	prog.done("render complete", "formats", len(paths))
	return nil
}
