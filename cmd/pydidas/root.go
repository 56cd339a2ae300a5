package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hereon-GEMS/pydidas-sub009/config"
	"github.com/hereon-GEMS/pydidas-sub009/plugin"
	"github.com/hereon-GEMS/pydidas-sub009/treestore"

	// Installs the builtin plugin provider.
	_ "github.com/hereon-GEMS/pydidas-sub009/pluginregistry"
)

type appContext struct {
	logger   *slog.Logger
	settings config.Store
	registry *plugin.Registry
	store    *treestore.Store
}

func newRootCommand() *cobra.Command {
	var (
		logLevel  string
		logFormat string
		dataDir   string
	)
	app := &appContext{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Workflow processing for scientific frame data",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			app.logger = setupLogger(logLevel, logFormat)
			slog.SetDefault(app.logger)

			if dataDir == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					home = "."
				}
				dataDir = filepath.Join(home, ".pydidas")
			}
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return err
			}

			settings, err := config.NewFileStore(filepath.Join(dataDir, "settings.yaml"))
			if err != nil {
				return err
			}
			app.settings = settings
			app.registry = plugin.NewRegistry(settings, app.logger)

			store, err := treestore.New(filepath.Join(dataDir, "workflows"), app.logger)
			if err != nil {
				return err
			}
			app.store = store
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format: text, json")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"Application data directory (default ~/.pydidas)")

	root.AddCommand(
		newPluginsCommand(app),
		newWorkflowCommand(app),
		newResultsCommand(),
	)
	return root
}
