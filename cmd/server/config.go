package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/wordqueue/internal/config"
)

// loadAppConfig loads the application configuration from the env file,
// environment variables and config file.
// Returns the loaded config and any loading error.
func loadAppConfig(envFile string) (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	slog.Debug("Task configuration",
		"worker_count", cfg.Task.WorkerCount,
		"state_backend", cfg.Task.StateBackend)

	return cfg, nil
}
