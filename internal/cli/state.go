package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcelayout/pkg/store"
)

// stateCommand creates the state management command.
func (c *CLI) stateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and manage persisted layout states",
	}

	cmd.AddCommand(c.statePathCommand())
	cmd.AddCommand(c.stateClearCommand())
	cmd.AddCommand(c.stateShowCommand())
	cmd.AddCommand(c.stateResetCommand())

	return cmd
}

// statePathCommand creates the "state path" subcommand.
func (c *CLI) statePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the layout state directory of the file store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.stateDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// stateClearCommand creates the "state clear" subcommand.
func (c *CLI) stateClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every layout state of the file store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.stateDir()
			if err != nil {
				return err
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("No layout states")
				return nil
			}

			count := 0
			err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
				if err != nil || path == dir {
					return nil
				}
				if !d.IsDir() {
					if err := os.Remove(path); err == nil {
						count++
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			printSuccess("Cleared %d layout states", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// stateShowCommand creates the "state show" subcommand.
func (c *CLI) stateShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show STRATEGY ID",
		Short: "Print the persisted state of a layout session as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer runner.Close()

			ctrl, err := runner.Controller(args[0], args[1])
			if err != nil {
				return err
			}
			data, err := ctrl.StateJSON(cmd.Context())
			if err != nil {
				return fmt.Errorf("load state: %w", err)
			}

			var buf bytes.Buffer
			if err := json.Indent(&buf, data, "", "  "); err != nil {
				return fmt.Errorf("format state: %w", err)
			}
			buf.WriteByte('\n')
			_, err = buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}

// stateResetCommand creates the "state reset" subcommand.
func (c *CLI) stateResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset STRATEGY ID",
		Short: "Discard the persisted state of a layout session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer runner.Close()

			ctrl, err := runner.Controller(args[0], args[1])
			if err != nil {
				return err
			}
			if err := ctrl.Delete(cmd.Context()); err != nil {
				return fmt.Errorf("delete state: %w", err)
			}
			printSuccess("Reset %s", store.LayoutKey(args[0], args[1]))
			return nil
		},
	}
}

// stateDir returns the directory of the file store. Other backends have
// no local directory.
func (c *CLI) stateDir() (string, error) {
	opts, err := c.cfg.StoreOptions()
	if err != nil {
		return "", fmt.Errorf("resolve store: %w", err)
	}
	if opts.Backend != store.BackendFile {
		return "", fmt.Errorf("store backend %q has no local directory", opts.Backend)
	}
	return opts.Dir, nil
}
