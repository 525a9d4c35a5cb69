package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// ErrNotConnected is returned by adapter methods called before Connect.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query and QueryRow implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, args ...any) (*core.Rows, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// QueryRow executes a query that is expected to return at most one row.
// The returned row reports ErrNotConnected from Scan when no connection exists.
func (b *BaseSQLAdapter) QueryRow(ctx context.Context, sqlStr string, args ...any) *sql.Row {
	if b.DB == nil {
		return notConnectedRow()
	}
	return b.DB.QueryRowContext(ctx, sqlStr, args...)
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// QuoteQualified quotes every dot-separated part of name with double quotes.
// DuckDB, PostgreSQL and SQLite all accept ANSI identifier quoting.
func (b *BaseSQLAdapter) QuoteQualified(name string) string {
	return QuoteQualified(name)
}

// QuoteQualified quotes every dot-separated part of name with double quotes.
func QuoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// QuoteIdentifier wraps an identifier in double quotes, escaping embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses defaultSchema if not specified.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// ListTablesCommon runs a query returning (schema, name) pairs and joins
// them into fully qualified names, preserving the query's order.
func (b *BaseSQLAdapter) ListTablesCommon(ctx context.Context, query string, args ...any) ([]string, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, schema+"."+name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	if b.Logger != nil {
		b.Logger.Debug("listed tables", slog.Int("count", len(tables)))
	}
	return tables, nil
}

// InformationSchemaTablesQuery lists user tables and views from
// information_schema.tables, skipping system schemas.
const InformationSchemaTablesQuery = `
	SELECT table_schema, table_name
	FROM information_schema.tables
	WHERE table_type IN ('BASE TABLE', 'VIEW')
	  AND table_schema NOT IN ('information_schema', 'pg_catalog')
	ORDER BY table_schema, table_name
`

var notConnectedDB = sql.OpenDB(notConnectedConnector{})

// notConnectedRow returns a *sql.Row whose Scan fails with ErrNotConnected.
// database/sql offers no public constructor for a failed Row, so the row
// comes from a connector that always refuses to connect.
func notConnectedRow() *sql.Row {
	return notConnectedDB.QueryRowContext(context.Background(), "SELECT 1")
}
