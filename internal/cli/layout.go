package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcelayout/pkg/pipeline"
)

// layoutCommand creates the layout command for fast-forwarding force layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags      layoutFlags
		formatsStr string
		output     string
		detailed   bool
		scale      float64
		noStore    bool
		jobs       int
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json...]",
		Short: "Compute force-directed layouts of graph files",
		Long: `Compute force-directed layouts of graph files.

The layout command reads JSON or YAML graph documents, fast-forwards a
persisted layout session for each and writes the positioned graph
(default <input>.layout.json). Other formats (svg, png, pdf, dot, yaml)
are rendered from the final positions.

Running the same file again resumes its session where the previous run
stopped. Use --fresh to start over, or --id to pick the session by name.
Several files are laid out concurrently (see --jobs).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 && output != "" {
				return fmt.Errorf("--output needs exactly one input, got %d", len(args))
			}
			if len(args) > 1 && flags.id != "" {
				return fmt.Errorf("--id needs exactly one input, got %d", len(args))
			}

			base := c.cfg.Options()
			flags.apply(cmd.Flags(), &base)
			base.Formats = parseFormats(formatsStr, pipeline.FormatJSON)
			base.Detailed = detailed
			base.Scale = scale
			base.Logger = loggerFromContext(cmd.Context())

			all := make([]pipeline.Options, len(args))
			for i, input := range args {
				all[i] = base
				all[i].Input = input
			}
			return c.runLayout(cmd.Context(), all, output, noStore, jobs)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), yaml, svg, png, pdf, dot (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include node metadata in drawn labels")
	cmd.Flags().Float64Var(&scale, "scale", pipeline.DefaultScale, "PNG resolution multiplier")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the layout state")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files laid out concurrently (default: number of CPUs)")

	return cmd
}

// runLayout lays out every input and writes its artifacts.
func (c *CLI) runLayout(ctx context.Context, all []pipeline.Options, output string, noStore bool, jobs int) error {
	runner, err := c.newRunner(ctx, noStore)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	var results []*pipeline.Result
	if len(all) == 1 {
		spinner := newSpinnerWithContext(ctx, "Computing layout...")
		all[0].Progress = spinner.Update
		spinner.Start()
		res, err := runner.Execute(ctx, all[0])
		if err != nil {
			spinner.StopWithError("Layout failed")
			return err
		}
		spinner.Stop()
		results = []*pipeline.Result{res}
	} else {
		results, err = runner.ExecuteAll(ctx, all, jobs)
		if err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	for i, res := range results {
		paths, err := writeArtifacts(artifactWriteParams{
			artifacts: res.Artifacts,
			formats:   all[i].Formats,
			input:     all[i].Input,
			output:    output,
			suffix:    ".layout",
		})
		if err != nil {
			return err
		}
		printSuccess("Laid out %s", all[i].Input)
		for _, p := range paths {
			printFile(p)
		}
		printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.Resumed)
		printLayoutResult(res.Layout)
		if res.Layout.Steps == 0 && !res.Layout.Status.Running {
			printWarning("Layout is paused; use --force-run to step it anyway")
		}
		if len(results) == 1 && len(paths) > 0 && all[i].Formats[0] == pipeline.FormatJSON {
			printNewline()
			printNextStep("Render", "forcelayout render "+paths[0])
		}
	}
	prog.done("layout complete", "files", len(results))
	return nil
}
