package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcelayout/pkg/observability/prom"
	"github.com/matzehuels/forcelayout/pkg/server"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layout sessions over HTTP",
		Long: `Serve layout sessions over HTTP.

The server keeps session graphs and layout states in the configured store,
so several instances sharing a Redis or MongoDB store serve the same
sessions. Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := server.Config{
				Addr:         c.cfg.Server.Addr,
				ReadTimeout:  c.cfg.Server.ReadTimeout.Duration,
				WriteTimeout: c.cfg.Server.WriteTimeout.Duration,
				MaxSteps:     c.cfg.Server.MaxSteps,
				Defaults:     c.cfg.Options(),
				TTL:          c.cfg.Store.TTL.Duration,
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if !noMetrics {
				m := prom.New()
				m.Register()
				cfg.Metrics = m
			}

			st, err := c.openStore(ctx, false)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := server.New(st, c.Logger, cfg).ListenAndServe(ctx); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint and instrumentation")

	return cmd
}
