package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	_ "modernc.org/sqlite"             // pure Go sqlite driver for database/sql
)

// Dialect identifies the SQL flavour behind a connection.
type Dialect string

// Supported dialects.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// driverName returns the database/sql driver registered for d.
func (d Dialect) driverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectSQLite:
		return "sqlite"
	}
	return ""
}

// MemoryDatabaseURL opens a private in-memory SQLite database.
const MemoryDatabaseURL = "sqlite://"

const sqliteBusyTimeout = 5 * time.Second

// DB is a connection pool together with the dialect it speaks.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Dialect returns the SQL dialect of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Options configures the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultOptions returns pool settings suitable for the server.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Open connects to the database named by rawURL and verifies the connection.
//
// postgres:// and postgresql:// URLs are handed to pgx unchanged. sqlite://
// URLs follow the SQLAlchemy layout: sqlite:///relative.db,
// sqlite:////absolute/path.db, and sqlite:// for an in-memory database.
// SQLite connections are limited to a single open connection, which
// serialises writers in this process.
func Open(ctx context.Context, rawURL string, opts Options) (*DB, error) {
	dialect, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	switch dialect {
	case DialectSQLite:
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	default:
		if opts.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	pingCtx := ctx
	if opts.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB, dialect: dialect}, nil
}

// ParseURL maps a database URL to its dialect and driver DSN.
func ParseURL(rawURL string) (Dialect, string, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return "", "", fmt.Errorf("invalid database URL: missing scheme")
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		if _, err := url.Parse(rawURL); err != nil {
			return "", "", fmt.Errorf("invalid database URL: %w", err)
		}
		return DialectPostgres, rawURL, nil

	case "sqlite", "sqlite3":
		path, _, _ := strings.Cut(rest, "?")
		return DialectSQLite, sqliteDSN(sqlitePath(path)), nil
	}

	return "", "", fmt.Errorf("unsupported database scheme %q", scheme)
}

// sqlitePath turns the part after sqlite:// into a filesystem path.
// An empty host is required, so the first slash is a separator.
func sqlitePath(rest string) string {
	path := strings.TrimPrefix(rest, "/")
	if path == "" || path == ":memory:" {
		return ":memory:"
	}
	return path
}

func sqliteDSN(path string) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", sqliteBusyTimeout.Milliseconds()))
	params.Add("_pragma", "foreign_keys(1)")
	params.Set("_time_format", "sqlite")

	if path == ":memory:" {
		return ":memory:?" + params.Encode()
	}
	params.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + params.Encode()
}
