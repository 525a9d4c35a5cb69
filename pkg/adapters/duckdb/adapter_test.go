package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: dbPath}))
			defer func() { _ = adp.Close() }()

			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_ConnectWithSettings(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{
		Path:   ":memory:",
		Params: map[string]any{"settings": map[string]any{"threads": 2}},
	}))
	defer func() { _ = adp.Close() }()

	var threads int64
	require.NoError(t, adp.QueryRow(ctx, "SELECT current_setting('threads')").Scan(&threads))
	assert.Equal(t, int64(2), threads)
}

func TestAdapter_ConnectBadParams(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), core.AdapterConfig{
		Params: map[string]any{"bogus": true},
	})
	require.Error(t, err)
	assert.False(t, adp.IsConnected())
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "exec without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "query without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Query(ctx, "SELECT 1")
				return err
			},
		},
		{
			name: "all tables without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.AllTables(ctx)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), New(nil))
			assert.ErrorIs(t, err, adapter.ErrNotConnected)
		})
	}
}

func TestAdapter_AllTables(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.Exec(ctx, `CREATE SCHEMA dw`))
	require.NoError(t, adp.Exec(ctx, `CREATE SCHEMA dbo`))
	require.NoError(t, adp.Exec(ctx, `CREATE TABLE dw.A (id INTEGER)`))
	require.NoError(t, adp.Exec(ctx, `CREATE TABLE dw.B (id INTEGER)`))
	require.NoError(t, adp.Exec(ctx, `CREATE TABLE dbo.C (id INTEGER)`))
	require.NoError(t, adp.Exec(ctx, `CREATE VIEW dw.v_a AS SELECT * FROM dw.A`))

	tables, err := adp.AllTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dbo.C", "dw.A", "dw.B", "dw.v_a"}, tables)
}

func TestAdapter_QueryQualified(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE orders (id INTEGER, customer VARCHAR)`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO orders VALUES (1, 'alice'), (2, NULL), (3, 'bob')`))

	var total, nulls int64
	query := "SELECT COUNT(*), COUNT(*) - COUNT(" + adp.QuoteQualified("customer") + ") FROM " + adp.QuoteQualified("main.orders")
	require.NoError(t, adp.QueryRow(ctx, query).Scan(&total, &nulls))
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(1), nulls)
}

func TestAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		connect bool
	}{
		{"close without connect", false},
		{"close after connect", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			if tt.connect {
				require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
			}

			assert.NoError(t, adp.Close())
		})
	}
}
