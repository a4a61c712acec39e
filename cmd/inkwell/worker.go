package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phrazzld/inkwell-api/internal/config"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
)

// workerCmd returns the command that runs background task processing without
// the HTTP server. It shares the application wiring with serve so persisted
// tasks rehydrate with the same factories.
func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background task worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}

			db, err := setupAppDatabase(cfg, log)
			if err != nil {
				return fmt.Errorf("failed to set up database: %w", err)
			}

			app, err := newApplication(cfg, log, db)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			return app.runWorker(context.Background())
		},
	}
}

// runWorker starts task processing and blocks until a shutdown signal or
// context cancellation, then cleans up application resources.
func (app *application) runWorker(ctx context.Context) error {
	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	app.logger.Info("Worker started",
		"worker_count", app.config.Task.WorkerCount,
		"poll_interval_seconds", app.config.Task.PollIntervalSeconds)

	// Set up graceful shutdown with signal handling
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-shutdownCh:
		app.logger.Info("Shutting down worker...")
	case <-ctx.Done():
		app.logger.Info("Worker context canceled, shutting down...")
	}

	app.cleanup()

	app.logger.Info("Worker shutdown completed")
	return nil
}
