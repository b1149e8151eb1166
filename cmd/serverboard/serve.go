package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/serverboard"
	"github.com/jpalmerr/serverboard/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the status board.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Publish status cards and serve the status endpoint",
	Long: `Start serverboard.

The process will:
  - Load configuration from the specified YAML file
  - Serve /, /health, /ping and /metrics on the configured port
  - Connect to Discord and wait until the session is ready
  - Fetch every server and create or edit one status card per server

It runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  serverboard serve -c config.yaml
  serverboard serve -c config.yaml --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().Bool("dry-run", false, "log cards instead of publishing them to Discord")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		cfg.Discord.DryRun = true
	}

	logger.Info("config loaded",
		"servers", len(cfg.Servers),
		"mode", cfg.Mode,
		"dry_run", cfg.Discord.DryRun,
	)

	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}

	board, err := serverboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create serverboard: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start board - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- board.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
