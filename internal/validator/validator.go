// Package validator defines the validator contract, the registry that maps
// check types to validator factories, and the built-in validators.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Validator runs one check against one entity.
type Validator interface {
	// Name returns the display name of the check.
	Name() string

	// Validate runs the check. It must honour ctx cancellation and return
	// data access failures as errors.
	Validate(ctx context.Context, vc *Context) (*core.Outcome, error)
}

// Context is passed to every Validate call. Cancellation travels on the
// context.Context argument.
type Context struct {
	Environment string
	Logger      *slog.Logger
}

// Factory builds a validator for spec that queries through db.
type Factory func(spec core.CheckSpec, db adapter.Querier) (Validator, error)

// Registry maps check types to validator factories.
// Lookups are exact and case-sensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a registry holding the built-in validators.
func Default() *Registry {
	r := NewRegistry()
	r.Register(KindNullColumn, newNullColumn)
	r.Register(KindRowCount, newRowCount)
	r.Register(KindUniqueColumn, newUniqueColumn)
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Resolve returns the factory for kind. A miss is reported through ok.
func (r *Registry) Resolve(kind string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// MustResolve is Resolve with the miss turned into a ValidatorNotFoundError.
func (r *Registry) MustResolve(kind string) (Factory, error) {
	if f, ok := r.Resolve(kind); ok {
		return f, nil
	}
	return nil, &ValidatorNotFoundError{CheckType: kind, Available: r.Kinds()}
}

// Kinds returns the registered check types, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// checkCanceled returns ErrCanceled wrapping ctx.Err() once ctx is done.
func checkCanceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return nil
}

// queryFailed wraps a query error, preferring cancellation when ctx is done.
func queryFailed(ctx context.Context, what string, err error) error {
	if cerr := checkCanceled(ctx); cerr != nil {
		return cerr
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}
