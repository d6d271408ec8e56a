package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khaleelElias/YA/internal/entrypoint"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the local store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the store applies pending migrations.
			return e.withApp(cmd, func(app *entrypoint.App) error {
				v, err := app.Store.Version(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Local store %s is at schema version %d\n", app.Store.Path(), v)
				return nil
			})
		},
	}
}

func newResetCmd(e *env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every local table",
		Long: `Drop and recreate every local table. Downloaded files stay on disk
until the next 'gc' run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all local data; repeat with --yes")
			}
			return e.withApp(cmd, func(app *entrypoint.App) error {
				if err := app.Store.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Local store reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func newGCCmd(e *env) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Remove downloaded files no local book references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(app *entrypoint.App) error {
				removed, err := app.Downloads.CollectOrphans(cmd.Context())
				w := cmd.OutOrStdout()
				if verbose {
					for _, p := range removed {
						fmt.Fprintln(w, p)
					}
				}
				fmt.Fprintf(w, "Removed %d orphan file(s)\n", len(removed))
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print each removed path")
	return cmd
}
