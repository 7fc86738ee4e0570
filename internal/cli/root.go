// Package cli wires the fingerd command tree: serve, query, and config
// management.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/planfiles/fingerd/internal/config"
)

// ctxKey namespaces the values the root command stashes in the command
// context for subcommands.
type ctxKey int

const configKey ctxKey = iota

// configFromContext returns the loaded configuration for a subcommand.
// Panics if the root PersistentPreRunE did not run, which only happens in
// mis-wired tests.
func configFromContext(ctx context.Context) *config.Config {
	return ctx.Value(configKey).(*config.Config)
}

// NewRootCmd creates the root cobra command for fingerd. It loads
// configuration, initializes logging, and registers the serve, query, and
// config subcommands.
func NewRootCmd(version string) *cobra.Command {
	var cleanup func() error

	cmd := &cobra.Command{
		Use:           "fingerd",
		Short:         "Finger daemon for plan and project files",
		Long:          "fingerd serves a directory of plan files over the finger protocol.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Serve ./planfiles on the default port
  fingerd serve --plan-dir ./planfiles

  # Serve on the standard finger port (needs privileges)
  fingerd serve --plan-dir ./planfiles --port 79

  # List all projects on a remote server
  fingerd query example.com

  # View one project with details
  fingerd query -l example.com 2025/roadmap.project

  # Write a default config file
  fingerd config init`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Logging.Level = "debug"
			}
			if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
				cfg.Logging.File = logFile
			}

			logger, cl, err := config.InitLogger(cfg.Logging)
			if err != nil {
				return err
			}
			cleanup = cl

			ctx := context.WithValue(cmd.Context(), configKey, cfg)
			ctx = logger.WithContext(ctx)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if cleanup != nil {
				return cleanup()
			}
			return nil
		},
	}

	cmd.PersistentFlags().String("config", "", "path to fingerd.yaml (default: built-in defaults)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("log-file", "", "append JSON logs to this file")

	cmd.AddCommand(NewServeCmd(), NewQueryCmd(), newConfigCmd())
	return cmd
}

// loggerFromContext returns the root logger for a subcommand.
func loggerFromContext(ctx context.Context) zerolog.Logger {
	return *zerolog.Ctx(ctx)
}
