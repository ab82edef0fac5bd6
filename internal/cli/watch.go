package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/pipeline"
)

// watchCommand creates the watch command for animating a layout in the terminal.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags   layoutFlags
		fps     int
		ffSteps int
		output  string
		noStore bool
	)

	cmd := &cobra.Command{
		Use:   "watch [graph.json]",
		Short: "Animate a force layout in the terminal",
		Long: `Animate a force layout in the terminal.

The watch command steps the layout session of a graph once per frame and
draws the nodes on a character canvas. The session is the same one the
layout command uses, so watching resumes a previous run and the final
state is picked up by the next layout.

Keys: space pauses or resumes, f fast-forwards, r resets, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.cfg.Options()
			flags.apply(cmd.Flags(), &opts)
			opts.Input = args[0]
			opts.Logger = loggerFromContext(cmd.Context())
			return c.runWatch(cmd.Context(), opts, fps, ffSteps, output, noStore)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().IntVar(&fps, "fps", 30, "frames per second")
	cmd.Flags().IntVar(&ffSteps, "ff", 100, "steps run by the fast-forward key")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the positioned graph here on exit")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the layout state")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, opts pipeline.Options, fps, ffSteps int, output string, noStore bool) error {
	opts.SetLayoutDefaults()
	if err := opts.ValidateForLayout(); err != nil {
		return err
	}
	if fps <= 0 {
		return fmt.Errorf("--fps must be positive, got %d", fps)
	}

	g, err := pipeline.Parse(opts)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noStore)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	ctrl, err := runner.Controller(opts.Strategy, pipeline.SessionID(opts.ID, pipeline.GraphHash(g)))
	if err != nil {
		return err
	}
	if opts.Fresh {
		if err := ctrl.Reset(ctx); err != nil {
			return fmt.Errorf("reset layout: %w", err)
		}
	}
	if !opts.Tunables.IsZero() {
		if _, err := pipeline.ApplyTunables(ctx, ctrl, opts.Tunables); err != nil {
			return err
		}
	}

	m, err := NewWatchModel(ctx, ctrl, g, opts.View(), fps, ffSteps)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	wm, ok := final.(WatchModel)
	if !ok {
		return nil
	}
	if err := wm.Err(); err != nil {
		return err
	}

	status := wm.Status()
	printSuccess("Watched %s", opts.Input)
	printStats(g.NodeCount(), g.EdgeCount(), status.Steps > 0)
	if output != "" {
		if err := graph.WriteFile(g, output); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		printFile(output)
	}
	return nil
}
