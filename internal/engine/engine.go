// Package engine runs resolved check specs through their validators and
// raises lifecycle events for every check.
package engine

import (
	"errors"
	"log/slog"

	"github.com/leapstack-labs/leapcheck/internal/connection"
	"github.com/leapstack-labs/leapcheck/internal/events"
	"github.com/leapstack-labs/leapcheck/internal/expand"
	"github.com/leapstack-labs/leapcheck/internal/validator"
)

// Engine executes check specs.
type Engine struct {
	registry    *validator.Registry
	resolver    connection.Resolver
	metadata    expand.MetadataProvider
	publisher   *events.Publisher
	workers     int
	environment string
	strict      bool
	logger      *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Registry maps check types to validators (defaults to validator.Default()).
	Registry *validator.Registry
	// Resolver opens the connection a check names. Required.
	Resolver connection.Resolver
	// Metadata lists tables for wildcard expansion. Required by RunScript
	// and Plan when a script uses match patterns.
	Metadata expand.MetadataProvider
	// Publisher receives every event (defaults to a new publisher).
	Publisher *events.Publisher
	// Workers is the number of checks run at once; 0 or 1 runs sequentially.
	Workers int
	// Environment is passed to validators through their context.
	Environment string
	// StrictExpansion makes a pattern that matches nothing an error.
	StrictExpansion bool
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("engine: a connection resolver is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := cfg.Registry
	if registry == nil {
		registry = validator.Default()
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = events.NewPublisher(logger)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Engine{
		registry:    registry,
		resolver:    cfg.Resolver,
		metadata:    cfg.Metadata,
		publisher:   pub,
		workers:     workers,
		environment: cfg.Environment,
		strict:      cfg.StrictExpansion,
		logger:      logger,
	}, nil
}

// Publisher returns the engine's event publisher.
func (e *Engine) Publisher() *events.Publisher {
	return e.publisher
}

// Registry returns the engine's validator registry.
func (e *Engine) Registry() *validator.Registry {
	return e.registry
}
