package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/wordqueue/internal/config"
	"github.com/phrazzld/wordqueue/internal/platform/database"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

// newRootCommand builds the command tree. The --env flag is inherited by
// every subcommand.
func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "wordqueue",
		Usage: "upload text files, ingest their words in the background and list them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to an env file loaded before configuration",
				Value: ".env",
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server and job workers",
				Action: serveAction,
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Commands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "apply all pending migrations",
						Action: migrateAction(migrateUp),
					},
					{
						Name:   "down",
						Usage:  "roll back the most recent migration",
						Action: migrateAction(migrateDown),
					},
					{
						Name:   "status",
						Usage:  "show which migrations are applied",
						Action: migrateAction(migrateStatus),
					},
				},
			},
			{
				Name:  "words",
				Usage: "manage stored words",
				Commands: []*cli.Command{
					{
						Name:   "reset",
						Usage:  "delete every stored word",
						Action: wordsResetAction,
					},
				},
			},
		},
	}
}

// serveAction runs the server until ctx is cancelled by a signal.
func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, db, err := bootstrap(ctx, cmd.String("env"))
	if err != nil {
		return err
	}

	if err := runMigrations(ctx, db, log, migrateUp, io.Discard); err != nil {
		_ = db.Close()
		return err
	}

	app, err := newApplication(cfg, log, db, afero.NewOsFs())
	if err != nil {
		_ = db.Close()
		return err
	}

	return app.Run(ctx)
}

// migrateAction returns a command action running the given migration command.
func migrateAction(command string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		_, log, db, err := bootstrap(ctx, cmd.String("env"))
		if err != nil {
			return err
		}
		defer closeDatabase(db, log)

		return runMigrations(ctx, db, log, command, os.Stdout)
	}
}

// wordsResetAction deletes all stored words.
func wordsResetAction(ctx context.Context, cmd *cli.Command) error {
	_, log, db, err := bootstrap(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	if err := database.NewWordStore(db).Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset words: %w", err)
	}

	log.Info("all words deleted")
	return nil
}

// bootstrap loads configuration, sets up logging and connects to the database.
func bootstrap(ctx context.Context, envFile string) (*config.Config, *slog.Logger, *database.DB, error) {
	cfg, err := loadAppConfig(envFile)
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := setupAppLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, log, db, nil
}

func closeDatabase(db *database.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("Error closing database connection", "error", err)
	}
}
