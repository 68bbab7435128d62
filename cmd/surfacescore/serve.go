package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/surfacescore/surfacescore/internal/config"
	"github.com/surfacescore/surfacescore/internal/database"
	"github.com/surfacescore/surfacescore/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer over HTTP",
		Long: `Serve starts the SurfaceScore HTTP API.

Every client gets its own session, identified by the X-Session-ID header,
with its own result cache. Progress events are streamed over a websocket
at /ws/progress and metrics are exposed at /metrics.

When a configuration file is found it is watched, and domain scores and
stage delays are reloaded when it changes.

Examples:
  # Listen on the default address
  surfacescore serve

  # Listen on all interfaces and store every analysis
  surfacescore serve --listen :8080 --save`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address the HTTP server listens on")
	cmd.Flags().Duration("session-ttl", config.DefaultSessionTTL,
		"Idle lifetime of a client session")
	cmd.Flags().Duration("shutdown-timeout", config.DefaultShutdownTimeout,
		"Time allowed for in-flight requests on shutdown")

	addSettingsFlags(cmd)

	return cmd
}

// buildServeConfig creates a Config from cobra command flags and the
// configuration file.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := readSettingsFlags(cmd, cfg); err != nil {
		return nil, err
	}

	var err error
	if cfg.ListenAddress, err = cmd.Flags().GetString("listen"); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = cmd.Flags().GetDuration("session-ttl"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = cmd.Flags().GetDuration("shutdown-timeout"); err != nil {
		return nil, err
	}

	if err := loadConfigFile(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(logger)
	defer cancel()

	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}

	opts := server.Options{
		Config:  cfg,
		Logger:  logger,
		Rules:   rules,
		Fetcher: newFetcher(cfg),
		Version: getVersion(),
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		opts.DB = db
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "SurfaceScore listening on http://%s\n", cfg.ListenAddress)
	return server.New(opts).Run(ctx)
}
