package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/wordqueue/internal/config"
	"github.com/phrazzld/wordqueue/internal/platform/database"
	"github.com/phrazzld/wordqueue/internal/store"
	"github.com/phrazzld/wordqueue/internal/task"
	"github.com/phrazzld/wordqueue/internal/upload"
	"github.com/spf13/afero"
)

// State backends selectable with task.state_backend.
const (
	stateBackendMemory   = "memory"
	stateBackendDatabase = "database"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *database.DB

	// Stores
	wordStore  store.WordStore
	stateStore task.StateStore
	uploads    *upload.Store

	// Task handling
	registry   *task.Registry
	taskRunner *task.Runner
}

// newApplication creates a new application instance with all dependencies initialized.
// The database must already be migrated. Uploads are written to and read
// back from fs.
func newApplication(cfg *config.Config, logger *slog.Logger, db *database.DB, fs afero.Fs) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.wordStore = database.NewWordStore(db)

	switch cfg.Task.StateBackend {
	case stateBackendMemory:
		app.stateStore = task.NewMemoryStateStore()
	case stateBackendDatabase:
		app.stateStore = database.NewJobStateStore(db)
	default:
		return nil, fmt.Errorf("unknown task state backend %q", cfg.Task.StateBackend)
	}

	app.uploads = upload.NewStore(fs, cfg.Upload.Dir, cfg.Upload.AllowedExtensions,
		logger.With("component", "upload_store"))
	if err := app.uploads.EnsureDir(); err != nil {
		return nil, err
	}

	var err error
	app.registry, err = setupRegistry(cfg.Task, fs, app.wordStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to register tasks: %w", err)
	}

	app.taskRunner = task.NewRunner(app.stateStore, app.registry, task.RunnerConfig{
		WorkerCount:         cfg.Task.WorkerCount,
		ResultTTL:           cfg.Task.ResultTTL,
		ResultSweepInterval: cfg.Task.ResultSweepInterval,
	}, logger)

	logger.Info("Application initialized successfully",
		"state_backend", cfg.Task.StateBackend,
		"upload_dir", cfg.Upload.Dir)
	return app, nil
}

// setupRegistry registers the task bodies the server can run.
func setupRegistry(cfg config.TaskConfig, fs afero.Fs, words store.WordStore, logger *slog.Logger) (*task.Registry, error) {
	registry := task.NewRegistry()

	ingest := task.NewIngestTask(fs, words, logger.With("component", "ingest_task"))
	if err := registry.Register(task.KindIngestFile, ingest,
		task.WithIgnoreResult(cfg.IngestIgnoreResult)); err != nil {
		return nil, err
	}

	progress := task.NewProgressTask(task.ProgressTaskConfig{
		MinSteps:     cfg.ProgressMinSteps,
		MaxSteps:     cfg.ProgressMaxSteps,
		MaxStepDelay: cfg.ProgressMaxStepDelay,
	})
	if err := registry.Register(task.KindSimulatedProgress, progress,
		task.WithIgnoreResult(cfg.ProgressIgnoreResult)); err != nil {
		return nil, err
	}

	return registry, nil
}

// start prepares storage and starts the job workers.
func (app *application) start(ctx context.Context) error {
	if app.config.Database.ResetWordsOnStart {
		if err := app.wordStore.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset words: %w", err)
		}
		app.logger.Info("stored words reset on startup")
	}

	if err := app.taskRunner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	listener, err := listen(app.config.Server.Port)
	if err != nil {
		app.cleanup()
		return err
	}

	if err := app.serve(ctx, listener); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles release of application resources after the runner has stopped.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
