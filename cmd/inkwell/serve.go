package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phrazzld/inkwell-api/internal/config"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
)

// serveCmd returns the command that runs the HTTP API server. When embedded
// task workers are enabled the process also executes background tasks;
// otherwise tasks are persisted for dedicated worker processes.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
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

			if cfg.Task.Embedded {
				if err := app.taskRunner.Start(); err != nil {
					return fmt.Errorf("failed to start task runner: %w", err)
				}
				log.Info("embedded task workers started",
					"worker_count", cfg.Task.WorkerCount)
			} else {
				log.Info("embedded task workers disabled, tasks deferred to worker processes")
			}

			return app.Run(context.Background())
		},
	}
}
