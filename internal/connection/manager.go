// Package connection resolves connection references from check scripts to
// connected database adapters and answers table-listing queries for
// wildcard expansion.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"golang.org/x/sync/singleflight"
)

// Resolver returns a connected adapter for a connection reference.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (adapter.Adapter, error)
}

// UnknownConnectionError is returned for a reference with no configuration.
type UnknownConnectionError struct {
	Ref       string
	Available []string
}

func (e *UnknownConnectionError) Error() string {
	return fmt.Sprintf("unknown connection %q\nAvailable connections: %s\nHint: Define connections.%s in leapcheck.yaml",
		e.Ref, strings.Join(e.Available, ", "), e.Ref)
}

// ConnectTimeout bounds one shared Connect or table listing.
const ConnectTimeout = 30 * time.Second

// Manager opens each configured connection at most once and caches it.
// Concurrent first uses of one reference share a single Connect call, and
// the cache lock is never held while connecting. The shared call is
// detached from the caller that started it, so one caller giving up does
// not fail the others waiting on the same reference.
type Manager struct {
	configs map[string]core.AdapterConfig
	logger  *slog.Logger

	mu     sync.Mutex
	open   map[string]adapter.Adapter
	group  singleflight.Group
	tables map[string][]string
}

// NewManager creates a manager over the named adapter configs.
func NewManager(configs map[string]core.AdapterConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		configs: configs,
		logger:  logger,
		open:    make(map[string]adapter.Adapter),
		tables:  make(map[string][]string),
	}
}

// Names returns the configured connection names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.configs))
	for n := range m.configs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Config returns the adapter config for ref.
func (m *Manager) Config(ref string) (core.AdapterConfig, bool) {
	cfg, ok := m.configs[ref]
	return cfg, ok
}

// Resolve returns the connected adapter for ref, connecting on first use.
func (m *Manager) Resolve(ctx context.Context, ref string) (adapter.Adapter, error) {
	m.mu.Lock()
	if a, ok := m.open[ref]; ok {
		m.mu.Unlock()
		return a, nil
	}
	m.mu.Unlock()

	cfg, ok := m.configs[ref]
	if !ok {
		return nil, &UnknownConnectionError{Ref: ref, Available: m.Names()}
	}

	v, err := m.shared(ctx, ref, func(ctx context.Context) (any, error) {
		m.mu.Lock()
		if a, ok := m.open[ref]; ok {
			m.mu.Unlock()
			return a, nil
		}
		m.mu.Unlock()

		a, err := adapter.NewAdapter(cfg, m.logger.With(slog.String("connection", ref)))
		if err != nil {
			return nil, err
		}
		m.logger.Debug("opening connection", slog.String("connection", ref), slog.String("type", cfg.Type))
		if err := a.Connect(ctx, cfg); err != nil {
			return nil, fmt.Errorf("connection %s: %w", ref, err)
		}

		m.mu.Lock()
		m.open[ref] = a
		m.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(adapter.Adapter), nil
}

// AllTables lists the tables of ref as "schema.name". The list is read once
// per manager so every pattern in a run sees the same snapshot.
func (m *Manager) AllTables(ctx context.Context, ref string) ([]string, error) {
	m.mu.Lock()
	if t, ok := m.tables[ref]; ok {
		m.mu.Unlock()
		return t, nil
	}
	m.mu.Unlock()

	v, err := m.shared(ctx, "tables:"+ref, func(ctx context.Context) (any, error) {
		a, err := m.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		tables, err := a.AllTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", ref, err)
		}
		m.mu.Lock()
		m.tables[ref] = tables
		m.mu.Unlock()
		return tables, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// shared runs fn once per key across concurrent callers. fn gets a context
// that keeps ctx's values but not its cancellation; each caller still
// returns as soon as its own ctx is done.
func (m *Manager) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := m.group.DoChan(key, func() (any, error) {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ConnectTimeout)
		defer cancel()
		return fn(dctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

// Close closes every open connection.
func (m *Manager) Close() error {
	m.mu.Lock()
	open := m.open
	m.open = make(map[string]adapter.Adapter)
	clear(m.tables)
	m.mu.Unlock()

	var errs []error
	for ref, a := range open {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", ref, err))
		}
	}
	return errors.Join(errs...)
}

var _ Resolver = (*Manager)(nil)
