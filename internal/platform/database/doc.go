// Package database provides SQL implementations of the storage interfaces
// defined in internal/store and internal/task. It supports PostgreSQL (via
// pgx) and SQLite (via modernc.org/sqlite); the driver is chosen from the
// database URL scheme. Schema migrations are embedded per dialect and
// applied with goose.
package database
