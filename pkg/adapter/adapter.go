// Package adapter provides the database adapter contract used by LeapCheck
// to reach the data sources that checks run against.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Querier is the read-only slice of an adapter that validators see.
type Querier interface {
	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// QueryRow executes a SQL statement expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) *sql.Row

	// QuoteQualified quotes a possibly schema-qualified name ("dw.Customer")
	// so it can be embedded in generated SQL.
	QuoteQualified(name string) string
}

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting to databases, executing SQL, and
// listing the tables that wildcard entity patterns are matched against.
type Adapter interface {
	Querier

	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g., INSERT, UPDATE, CREATE).
	Exec(ctx context.Context, sql string) error

	// AllTables lists every user table and view as "schema.name",
	// ordered by schema then name.
	AllTables(ctx context.Context) ([]string, error)

	// DialectName returns the SQL dialect name ("duckdb", "postgres", "sqlite").
	DialectName() string
}
