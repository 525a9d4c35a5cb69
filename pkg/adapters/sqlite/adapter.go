// Package sqlite provides a SQLite database adapter for LeapCheck.
//
// The adapter uses the pure-Go modernc.org/sqlite driver. Tables are
// reported under the "main" schema so wildcard patterns see the same
// "schema.name" shape as on the server databases.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"

	_ "modernc.org/sqlite" // sqlite driver
)

const listTablesQuery = `
	SELECT 'main', name
	FROM sqlite_master
	WHERE type IN ('table', 'view')
	  AND name NOT LIKE 'sqlite_%'
	  AND name NOT LIKE 'goose_%'
	ORDER BY name
`

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "sqlite"
}

// Connect opens the SQLite database at cfg.Path (":memory:" when empty).
// Options become connection pragmas, e.g. busy_timeout: "5000".
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	dsn := buildDSN(path, cfg.Options)

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// AllTables lists tables and views as "main.name".
func (a *Adapter) AllTables(ctx context.Context) ([]string, error) {
	return a.ListTablesCommon(ctx, listTablesQuery)
}

func buildDSN(path string, pragmas map[string]string) string {
	if len(pragmas) == 0 {
		return path
	}
	keys := make([]string, 0, len(pragmas))
	for k := range pragmas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		q.Add("_pragma", fmt.Sprintf("%s(%s)", k, pragmas[k]))
	}
	return path + "?" + q.Encode()
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
