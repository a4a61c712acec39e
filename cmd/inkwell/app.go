package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/inkwell-api/internal/config"
	"github.com/phrazzld/inkwell-api/internal/events"
	"github.com/phrazzld/inkwell-api/internal/mail"
	"github.com/phrazzld/inkwell-api/internal/platform/postgres"
	"github.com/phrazzld/inkwell-api/internal/platform/smtp"
	"github.com/phrazzld/inkwell-api/internal/service"
	"github.com/phrazzld/inkwell-api/internal/service/auth"
	"github.com/phrazzld/inkwell-api/internal/store"
	"github.com/phrazzld/inkwell-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore         store.UserStore
	taskStore         task.TaskStore
	postStore         store.PostStore
	categoryStore     store.CategoryStore
	refreshTokenStore store.RefreshTokenStore
	resetTokenStore   store.PasswordResetTokenStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	postService      service.PostService
	resetService     service.PasswordResetService
	mailer           mail.Mailer

	// Event system
	eventEmitter events.EventEmitter

	// Task handling. The runner is constructed here but not started;
	// the serve and worker commands decide whether workers run in-process.
	taskRunner *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes,
		"refresh_token_lifetime_minutes", cfg.Auth.RefreshTokenLifetimeMinutes)

	// Initialize password verifier
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Initialize stores
	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost)
	app.taskStore = postgres.NewPostgresTaskStore(db)
	app.postStore = postgres.NewPostgresPostStore(db)
	app.categoryStore = postgres.NewPostgresCategoryStore(db)
	app.refreshTokenStore = postgres.NewPostgresRefreshTokenStore(db)
	app.resetTokenStore = postgres.NewPostgresPasswordResetTokenStore(db)

	// Initialize outbound mail
	app.mailer, err = setupMailer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	// Initialize task runner
	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		WorkerCount:         cfg.Task.WorkerCount,
		QueueSize:           cfg.Task.QueueSize,
		StuckTaskAge:        time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
		PendingPollInterval: time.Duration(cfg.Task.PollIntervalSeconds) * time.Second,
	}, logger)

	// Initialize event emitter
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	// Create required adapters
	postRepoAdapter := service.NewPostRepositoryAdapter(app.postStore, app.db)
	userRepoAdapter := service.NewUserRepositoryAdapter(app.userStore, app.db)
	resetRepoAdapter := service.NewResetTokenRepositoryAdapter(app.resetTokenStore)
	sessionRevoker := service.NewSessionRevokerAdapter(app.refreshTokenStore)

	// Initialize post service
	app.postService, err = service.NewPostService(
		postRepoAdapter,
		app.categoryStore,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create post service: %w", err)
	}

	// Initialize password reset service
	app.resetService, err = service.NewPasswordResetService(
		userRepoAdapter,
		resetRepoAdapter,
		sessionRevoker,
		app.eventEmitter,
		cfg.Auth,
		cfg.Mail,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create password reset service: %w", err)
	}

	// Create task factories. The runner needs them to rehydrate persisted
	// tasks after a restart; the event handler needs them to build tasks
	// from emitted events.
	emailFactory := task.NewEmailDeliveryTaskFactory(app.mailer, logger)
	publishFactory := task.NewPostPublishTaskFactory(app.postService, logger)

	app.taskRunner.RegisterFactory(emailFactory)
	app.taskRunner.RegisterFactory(publishFactory)

	// Route task request events into the task system. With embedded workers
	// disabled the API process only persists task rows; a worker process
	// polls them out of the store.
	var submitter task.TaskSubmitter = app.taskRunner
	if !cfg.Task.Embedded {
		submitter = task.NewStoreSubmitter(app.taskStore, logger)
	}

	taskFactoryHandler := task.NewTaskFactoryEventHandler(submitter, logger)
	taskFactoryHandler.RegisterFactory(emailFactory)
	taskFactoryHandler.RegisterFactory(publishFactory)

	// Register the event handler with the event emitter
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(taskFactoryHandler)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register task handler")
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupMailer selects the outbound mail implementation from configuration.
func setupMailer(cfg *config.Config, logger *slog.Logger) (mail.Mailer, error) {
	switch cfg.Mail.Driver {
	case "smtp":
		logger.Info("using SMTP mail driver",
			"host", cfg.Mail.Host,
			"port", cfg.Mail.Port,
			"from", cfg.Mail.FromAddress)
		return smtp.NewMailer(cfg.Mail), nil
	case "log":
		logger.Info("using log mail driver, emails will not be delivered")
		return mail.NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail driver: %q", cfg.Mail.Driver)
	}
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	// Set up router using the application dependencies
	router := app.setupRouter()

	// Start the HTTP server
	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop task runner
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
