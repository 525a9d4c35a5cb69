package engine

import (
	"context"
	"errors"

	"github.com/leapstack-labs/leapcheck/internal/events"
	"github.com/leapstack-labs/leapcheck/internal/expand"
	"github.com/leapstack-labs/leapcheck/internal/script"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Plan is a parsed and expanded check script, ready to run.
type Plan struct {
	Document *script.Document
	// Specs are concrete: no spec carries a pattern.
	Specs []core.CheckSpec
	// EmptyExpansions counts patterns that matched no table.
	EmptyExpansions int
}

// Plan parses the script at path and expands its patterns, raising
// EntityExpandingEvents through ev (which may be nil).
func (e *Engine) Plan(ctx context.Context, path string, ev events.Raiser) (*Plan, error) {
	doc, specs, err := script.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return e.expand(ctx, doc, specs, ev)
}

// PlanBytes is Plan for an in-memory document.
func (e *Engine) PlanBytes(ctx context.Context, data []byte, ev events.Raiser) (*Plan, error) {
	doc, err := script.Load(data)
	if err != nil {
		return nil, err
	}
	specs, err := doc.Resolve()
	if err != nil {
		return nil, err
	}
	return e.expand(ctx, doc, specs, ev)
}

func (e *Engine) expand(ctx context.Context, doc *script.Document, specs []core.CheckSpec, ev events.Raiser) (*Plan, error) {
	needsMetadata := false
	for _, s := range specs {
		if s.IsPattern() {
			needsMetadata = true
			break
		}
	}
	if needsMetadata && e.metadata == nil {
		return nil, errors.New("script uses match patterns but no metadata provider is configured")
	}

	x := expand.New(e.metadata, ev, e.logger)
	x.Strict = e.strict
	res, err := x.ExpandAll(ctx, specs)
	if err != nil {
		return nil, err
	}
	return &Plan{Document: doc, Specs: res.Specs, EmptyExpansions: res.EmptyExpansions}, nil
}

// RunScript parses, expands and runs the script at path. Parse and
// expansion errors abort before any check runs.
func (e *Engine) RunScript(ctx context.Context, path string, scope *events.Scope) (*Summary, error) {
	if scope == nil {
		scope = e.publisher.NewScope()
	}
	plan, err := e.Plan(ctx, path, scope)
	if err != nil {
		return nil, err
	}
	sum, err := e.Run(ctx, plan.Specs, scope)
	sum.Script = path
	sum.EmptyExpansions = plan.EmptyExpansions
	return sum, err
}
