// Package expand turns wildcard entity patterns into one check spec per
// matching table.
package expand

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/leapcheck/internal/events"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// MetadataProvider lists the tables reachable through a connection.
type MetadataProvider interface {
	// AllTables returns fully qualified table names in a stable order.
	AllTables(ctx context.Context, connectionRef string) ([]string, error)
}

// NoMatchError reports a pattern that matched no table while Strict is set.
type NoMatchError struct {
	Check   string
	Pattern string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("check %q: pattern %q matched no tables", e.Check, e.Pattern)
}

// Expander replaces pattern specs with concrete ones.
type Expander struct {
	Metadata MetadataProvider
	Events   events.Raiser
	// Strict turns a pattern with no matches into a NoMatchError.
	Strict bool
	Logger *slog.Logger
}

// New creates an expander. events may be nil.
func New(md MetadataProvider, ev events.Raiser, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Expander{Metadata: md, Events: ev, Logger: logger}
}

// Expand returns the specs spec stands for and how many there are.
// A spec without a pattern yields itself. A pattern spec yields one copy
// per matching table, in metadata order.
func (x *Expander) Expand(ctx context.Context, spec core.CheckSpec) (iter.Seq[core.CheckSpec], int, error) {
	if !spec.IsPattern() {
		return func(yield func(core.CheckSpec) bool) { yield(spec) }, 1, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	tables, err := x.Metadata.AllTables(ctx, spec.ConnectionRef)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tables for %s: %w", spec.ConnectionRef, err)
	}

	var matches []string
	for _, t := range tables {
		if spec.Pattern.MatchString(t) {
			matches = append(matches, t)
		}
	}

	x.logger().Debug("expanded entity pattern",
		slog.String("check", spec.DisplayName()),
		slog.String("connection", spec.ConnectionRef),
		slog.Int("tables", len(tables)),
		slog.Int("matches", len(matches)))

	if len(matches) == 0 {
		if x.Strict {
			return nil, 0, &NoMatchError{Check: spec.DisplayName(), Pattern: spec.Target()}
		}
		return func(func(core.CheckSpec) bool) {}, 0, nil
	}

	if x.Events != nil {
		x.Events.Raise(events.EntityExpandingEvent{
			EntityName: spec.Target(),
			ColumnName: spec.Parameters["column"],
			Match:      spec.Target(),
			Expansion:  slices.Clone(matches),
		})
	}

	return func(yield func(core.CheckSpec) bool) {
		for _, m := range matches {
			if !yield(spec.WithEntity(m)) {
				return
			}
		}
	}, len(matches), nil
}

// Result is the outcome of expanding a batch of specs.
type Result struct {
	Specs []core.CheckSpec
	// EmptyExpansions counts pattern specs that matched no table.
	EmptyExpansions int
}

// ExpandAll expands every spec in order and collects the results.
func (x *Expander) ExpandAll(ctx context.Context, specs []core.CheckSpec) (*Result, error) {
	res := &Result{}
	for _, spec := range specs {
		seq, n, err := x.Expand(ctx, spec)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			res.EmptyExpansions++
			continue
		}
		res.Specs = slices.AppendSeq(res.Specs, seq)
	}
	return res, nil
}

func (x *Expander) logger() *slog.Logger {
	if x.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return x.Logger
}
