package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/logging"
)

const serviceName = "movie-catalog"

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Movie catalog REST API",
		Long: `Movie catalog REST API with filtering, sorting and pagination,
guarded by role based JWT authentication.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewImportCmd())
	return cmd
}

// setup loads configuration and installs the process logger.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.Setup(serviceName, version, cfg.LogFormat, cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
