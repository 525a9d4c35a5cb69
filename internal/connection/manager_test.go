package connection

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/leapcheck/internal/testutil"
	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leapcheck/pkg/adapters/sqlite"
)

func TestManager_ResolveCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.db")
	m := NewManager(map[string]core.AdapterConfig{
		"local": {Type: "sqlite", Path: path},
	}, testutil.NewTestLogger(t))
	defer func() { _ = m.Close() }()

	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := m.Resolve(ctx, "local")
			assert.NoError(t, err)
			results[i] = a
		}()
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Same(t, results[0], r, "every caller shares one adapter")
	}
}

func TestManager_UnknownConnection(t *testing.T) {
	m := NewManager(map[string]core.AdapterConfig{"b": {Type: "sqlite"}, "a": {Type: "sqlite"}}, nil)

	_, err := m.Resolve(context.Background(), "missing")
	var unknown *UnknownConnectionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"a", "b"}, unknown.Available)
	assert.Contains(t, err.Error(), "connections.missing")
}

func TestManager_UnknownAdapterType(t *testing.T) {
	m := NewManager(map[string]core.AdapterConfig{"x": {Type: "oracle"}}, nil)

	_, err := m.Resolve(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter type")
}

func TestManager_AllTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.db")
	m := NewManager(map[string]core.AdapterConfig{"local": {Type: "sqlite", Path: path}}, nil)
	defer func() { _ = m.Close() }()

	ctx := context.Background()
	a, err := m.Resolve(ctx, "local")
	require.NoError(t, err)
	require.NoError(t, a.Exec(ctx, "CREATE TABLE orders (id INTEGER)"))
	require.NoError(t, a.Exec(ctx, "CREATE TABLE customers (id INTEGER)"))

	tables, err := m.AllTables(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, []string{"main.customers", "main.orders"}, tables)

	// Later DDL is not visible; the snapshot is taken once.
	require.NoError(t, a.Exec(ctx, "CREATE TABLE zebra (id INTEGER)"))
	again, err := m.AllTables(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, tables, again)
}

func TestManager_Close(t *testing.T) {
	m := NewManager(map[string]core.AdapterConfig{"local": {Type: "sqlite"}}, nil)
	ctx := context.Background()

	first, err := m.Resolve(ctx, "local")
	require.NoError(t, err)
	require.NoError(t, m.Close())

	second, err := m.Resolve(ctx, "local")
	require.NoError(t, err)
	assert.NotSame(t, first, second, "close drops cached adapters")
	require.NoError(t, m.Close())
}

// gatedAdapter blocks in Connect until release is closed.
type gatedAdapter struct {
	adapter.Adapter
	entered chan struct{}
	release chan struct{}
}

func (g *gatedAdapter) Connect(ctx context.Context, _ adapter.Config) error {
	close(g.entered)
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedAdapter) Close() error        { return nil }
func (g *gatedAdapter) DialectName() string { return "gated" }

func TestManager_CanceledCallerDoesNotFailWaiters(t *testing.T) {
	gated := &gatedAdapter{entered: make(chan struct{}), release: make(chan struct{})}
	adapter.Register("gated-test", func(*slog.Logger) adapter.Adapter { return gated })

	m := NewManager(map[string]core.AdapterConfig{"slow": {Type: "gated-test"}}, testutil.NewTestLogger(t))
	defer func() { _ = m.Close() }()

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := m.Resolve(firstCtx, "slow")
		firstErr <- err
	}()
	<-gated.entered

	type result struct {
		a   adapter.Adapter
		err error
	}
	second := make(chan result, 1)
	go func() {
		a, err := m.Resolve(context.Background(), "slow")
		second <- result{a, err}
	}()

	cancelFirst()
	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(gated.release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Same(t, gated, r.a)
	case <-time.After(5 * time.Second):
		t.Fatal("waiting caller did not return")
	}
}

func TestManager_ResolveCanceledContext(t *testing.T) {
	m := NewManager(map[string]core.AdapterConfig{"local": {Type: "sqlite"}}, nil)
	defer func() { _ = m.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Resolve(ctx, "local")
	require.ErrorIs(t, err, context.Canceled)

	_, err = m.Resolve(context.Background(), "local")
	require.NoError(t, err)
}
