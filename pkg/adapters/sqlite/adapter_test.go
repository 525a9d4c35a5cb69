package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, cfg core.AdapterConfig) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_AllTables(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{Path: ":memory:"})

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE orders (id INTEGER PRIMARY KEY, customer TEXT)`))
	require.NoError(t, adp.Exec(ctx, `CREATE TABLE customers (id INTEGER PRIMARY KEY)`))
	require.NoError(t, adp.Exec(ctx, `CREATE VIEW big_orders AS SELECT * FROM orders WHERE id > 10`))

	tables, err := adp.AllTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.big_orders", "main.customers", "main.orders"}, tables)
}

func TestAdapter_FileWithPragmas(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.db")
	adp := connect(t, core.AdapterConfig{
		Path:    path,
		Options: map[string]string{"busy_timeout": "5000"},
	})

	var timeout int
	require.NoError(t, adp.QueryRow(ctx, "PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestAdapter_QueryQualified(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{})

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE t (c TEXT)`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO t VALUES ('a'), (NULL), ('a')`))

	var total, nulls int64
	q := "SELECT COUNT(*), COUNT(*) - COUNT(" + adp.QuoteQualified("c") + ") FROM " + adp.QuoteQualified("main.t")
	require.NoError(t, adp.QueryRow(ctx, q).Scan(&total, &nulls))
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(1), nulls)
}

func TestAdapter_NotConnected(t *testing.T) {
	_, err := New(nil).AllTables(context.Background())
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, "x.db", buildDSN("x.db", nil))
	assert.Equal(t,
		"x.db?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29",
		buildDSN("x.db", map[string]string{"foreign_keys": "1", "busy_timeout": "5000"}))
}
