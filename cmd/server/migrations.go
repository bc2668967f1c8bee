package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/phrazzld/wordqueue/internal/platform/database"
)

// Migration commands.
const (
	migrateUp     = "up"
	migrateDown   = "down"
	migrateStatus = "status"
)

// runMigrations executes a migration command against db. Status output is
// written to out.
func runMigrations(ctx context.Context, db *database.DB, logger *slog.Logger, command string, out io.Writer) error {
	migrator, err := database.NewMigrator(db, logger)
	if err != nil {
		return err
	}

	switch command {
	case migrateUp:
		if err := migrator.Up(ctx); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
	case migrateDown:
		if err := migrator.Down(ctx); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
	case migrateStatus:
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return fmt.Errorf("migration status failed: %w", err)
		}
		return writeMigrationStatus(out, statuses)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}

	version, err := migrator.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("migrations finished", "command", command, "version", version)
	return nil
}

func writeMigrationStatus(out io.Writer, statuses []database.MigrationStatus) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "VERSION\tAPPLIED\tSOURCE")
	for _, s := range statuses {
		_, _ = fmt.Fprintf(tw, "%d\t%t\t%s\n", s.Version, s.Applied, s.Source)
	}
	return tw.Flush()
}
