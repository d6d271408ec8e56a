package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/config"
	"github.com/khaleelElias/YA/internal/entrypoint"
	"github.com/khaleelElias/YA/internal/logging"
)

// env is the state shared by every command: configuration and logger are
// built once before the command runs, the app only on demand.
type env struct {
	version string
	cfg     *config.Config
	logger  *zap.Logger
}

// withApp builds the app, runs fn and closes the app again.
func (e *env) withApp(cmd *cobra.Command, fn func(app *entrypoint.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// One-shot commands never start workers, so skip the task queue.
	cfg := *e.cfg
	cfg.Tasks.Enabled = false
	app, err := entrypoint.NewApp(ctx, &cfg, e.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			e.logger.Warn("Failed to close app", zap.Error(err))
		}
	}()
	return fn(app)
}

// NewRootCmd creates the command tree. Running it without a subcommand
// serves the HTTP API.
func NewRootCmd(version string) *cobra.Command {
	e := &env{version: version}

	root := &cobra.Command{
		Use:   "yazidi-library",
		Short: "Offline library core: downloads, reading progress and bookmarks",
		Long: `Keep catalog books on this device and track reading across sessions.

yazidi-library provides tools to:
- Browse and search the hosted catalog
- Download books and covers for offline reading
- Record reading positions and bookmarks per reader
- Maintain the local store`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e.cfg = config.NewConfig()
			if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
				e.cfg.Database.DataDir = dir
				e.cfg.Database.Path = filepath.Join(dir, config.DatabaseName)
			}
			logger, err := logging.New(e.cfg.Log.Level, e.cfg.Log.Development)
			if err != nil {
				return err
			}
			e.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(e.cfg, e.logger, e.version)
		},
	}
	root.PersistentFlags().String("data-dir", "", "Documents directory (overrides DATA_DIR)")

	root.AddCommand(newServeCmd(e))
	root.AddCommand(newDownloadCmd(e))
	root.AddCommand(newDeleteCmd(e))
	root.AddCommand(newListCmd(e))
	root.AddCommand(newProgressCmd(e))
	root.AddCommand(newSearchCmd(e))
	root.AddCommand(newCategoriesCmd(e))
	root.AddCommand(newMigrateCmd(e))
	root.AddCommand(newResetCmd(e))
	root.AddCommand(newGCCmd(e))

	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(version string) int {
	root := NewRootCmd(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default if no command given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(e.cfg, e.logger, e.version)
		},
	}
}
