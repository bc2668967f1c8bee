package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/wordqueue/internal/config"
	"github.com/phrazzld/wordqueue/internal/platform/database"
)

// setupAppDatabase establishes a connection to the database and configures connection pools.
// Returns the database connection if successful, or an error if the connection fails.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.DB, error) {
	opts := database.DefaultOptions()
	opts.MaxOpenConns = cfg.Database.MaxOpenConns
	if opts.MaxIdleConns > opts.MaxOpenConns {
		opts.MaxIdleConns = opts.MaxOpenConns
	}

	db, err := database.Open(ctx, cfg.Database.URL, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	logger.Info("Database connection established", "dialect", db.Dialect())
	return db, nil
}
