// Package cli implements the forcelayout command-line interface.
//
// # Commands
//
//   - layout: Fast-forward force layouts of graph files and write the results
//   - render: Draw an already positioned graph as SVG, PNG, PDF or DOT
//   - watch: Animate a layout in the terminal
//   - serve: Run the HTTP API
//   - state: Inspect and reset persisted layout states
//   - config: Print or initialize the configuration
//   - completion: Generate shell completion scripts
//
// # Configuration
//
// Every command reads the TOML file given by --config, or the default
// file under $XDG_CONFIG_HOME/forcelayout. Flags that are set explicitly
// override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcelayout/pkg/buildinfo"
	"github.com/matzehuels/forcelayout/pkg/config"
	"github.com/matzehuels/forcelayout/pkg/pipeline"
	"github.com/matzehuels/forcelayout/pkg/store"
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        config.Config
}

// New creates a CLI whose logger writes to w at info level.
func New(w io.Writer) *CLI {
	return &CLI{
		Logger: newLogger(w, log.InfoLevel),
		cfg:    config.Default(),
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "forcelayout",
		Short:         "Force-directed graph layout",
		Long:          `forcelayout places graph nodes with the Fruchterman-Reingold force simulation. Layout state is persisted between runs, so a layout can be resumed, paused, tuned and rendered later.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.Logger.SetLevel(log.DebugLevel)
			}
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/forcelayout/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.stateCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file. An explicit path must exist; the
// default path may be missing.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			c.Logger.Debug("no config directory", "err", err)
			return nil
		}
		path = p
	} else if err := mustExist(path); err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "path", path)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// openStore opens the configured state store, or a null store with noStore.
func (c *CLI) openStore(ctx context.Context, noStore bool) (store.Store, error) {
	if noStore {
		return store.NewNull(), nil
	}
	opts, err := c.cfg.StoreOptions()
	if err != nil {
		return nil, fmt.Errorf("resolve store: %w", err)
	}
	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Backend, err)
	}
	c.Logger.Debug("opened store", "backend", opts.Backend, "dir", opts.Dir)
	return st, nil
}

// newRunner creates a pipeline runner on the configured store.
func (c *CLI) newRunner(ctx context.Context, noStore bool) (*pipeline.Runner, error) {
	st, err := c.openStore(ctx, noStore)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(st, c.Logger)
	r.TTL = c.cfg.Store.TTL.Duration
	return r, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s, fallback string) []string {
	if s == "" {
		return []string{fallback}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .json, ...), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
