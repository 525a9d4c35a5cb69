package engine

// run.go - Per-check state machine and batch dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapcheck/internal/events"
	"github.com/leapstack-labs/leapcheck/internal/validator"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Run executes every spec exactly once and raises its events through scope.
// A nil scope gets a fresh one from the engine's publisher.
//
// Per-check failures become events and never stop the batch. The returned
// error is non-nil only when ctx was cancelled; the summary still counts
// every spec, with the cancelled ones as errored.
func (e *Engine) Run(ctx context.Context, specs []core.CheckSpec, scope *events.Scope) (*Summary, error) {
	if scope == nil {
		scope = e.publisher.NewScope()
	}

	sum := &Summary{
		RunID:       uuid.NewString(),
		Environment: e.environment,
		StartedAt:   time.Now(),
	}
	t := &tally{s: sum}
	vc := &validator.Context{Environment: e.environment, Logger: e.logger}

	e.logger.Info("starting run",
		slog.String("run_id", sum.RunID),
		slog.Int("checks", len(specs)),
		slog.Int("workers", e.workers))

	if e.workers <= 1 {
		for _, spec := range specs {
			t.add(e.runOne(ctx, spec, scope, vc))
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.workers)
		for _, spec := range specs {
			g.Go(func() error {
				t.add(e.runOne(ctx, spec, scope, vc))
				return nil
			})
		}
		_ = g.Wait()
	}

	sum.Duration = time.Since(sum.StartedAt)

	e.logger.Info("run finished",
		slog.String("run_id", sum.RunID),
		slog.Int("passed", sum.Passed),
		slog.Int("failed", sum.Failed),
		slog.Int("errored", sum.Errored),
		slog.Int("skipped", sum.Skipped),
		slog.Duration("duration", sum.Duration))

	if err := ctx.Err(); err != nil {
		sum.Canceled = true
		return sum, err
	}
	return sum, nil
}

// ErrUnboundCheck is reported for a spec that does not name one concrete
// entity on a known connection and owner.
var ErrUnboundCheck = errors.New("check is not bound to a concrete entity")

func bound(spec core.CheckSpec) error {
	switch {
	case spec.IsPattern():
		return fmt.Errorf("%w: pattern %q was not expanded", ErrUnboundCheck, spec.Target())
	case spec.EntityName == "":
		return fmt.Errorf("%w: missing entity name", ErrUnboundCheck)
	case spec.ConnectionRef == "":
		return fmt.Errorf("%w: missing connection", ErrUnboundCheck)
	case spec.Owner == "":
		return fmt.Errorf("%w: missing owner", ErrUnboundCheck)
	}
	return nil
}

// runOne drives one spec from Pending to its terminal state and raises
// exactly one terminal event for it. Events carry their own copy of the
// spec; subscribers never see the map the validator is built from.
func (e *Engine) runOne(ctx context.Context, spec core.CheckSpec, ev events.Raiser, vc *validator.Context) core.CheckState {
	factory, ok := e.registry.Resolve(spec.CheckType)
	if !ok {
		e.logger.Warn("unknown check type",
			slog.String("check", spec.DisplayName()),
			slog.String("type", spec.CheckType))
		ev.Raise(events.UnknownCheckEvent{CheckName: spec.CheckType, Check: spec.Clone()})
		return core.CheckStateSkipped
	}

	name := spec.DisplayName()
	ev.Raise(events.CheckStartedEvent{Name: name, Check: spec.Clone()})
	start := time.Now()
	props := map[string]any{
		"connection":  spec.ConnectionRef,
		"owner":       spec.Owner,
		"check_type":  spec.CheckType,
		"environment": e.environment,
	}
	if spec.FeatureName != "" {
		props["feature"] = spec.FeatureName
	}

	fail := func(err error) core.CheckState {
		e.logger.Debug("check errored", slog.String("check", name), slog.String("error", err.Error()))
		ev.Raise(events.CheckErrorEvent{
			Check:      spec.Clone(),
			Err:        &validator.ValidationExecutionError{Check: name, Err: err},
			Properties: props,
			Duration:   time.Since(start),
		})
		return core.CheckStateErrored
	}

	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("%w: %w", validator.ErrCanceled, err))
	}
	if err := bound(spec); err != nil {
		return fail(err)
	}

	db, err := e.resolver.Resolve(ctx, spec.ConnectionRef)
	if err != nil {
		return fail(err)
	}
	props["dialect"] = db.DialectName()

	v, err := factory(spec, db)
	if err != nil {
		return fail(err)
	}
	name = v.Name()

	out, err := v.Validate(ctx, vc)
	if err == nil && out == nil {
		err = errors.New("validator returned no outcome")
	}
	if err != nil {
		return fail(err)
	}

	if out.Duration == 0 {
		out.Duration = time.Since(start)
	}
	status := core.ClampStatus(out.Status)

	if status >= 0 {
		ev.Raise(events.CheckPassedEvent{
			Name:     name,
			Check:    spec.Clone(),
			Status:   status,
			Goal:     out.Goal,
			Value:    out.Value,
			Duration: out.Duration,
		})
		return core.CheckStatePassed
	}

	ev.Raise(events.CheckFailedEvent{
		Name:      name,
		Check:     spec.Clone(),
		CheckType: spec.CheckType,
		Message:   out.Message,
		Details:   out.Details,
		Status:    status,
		Goal:      out.Goal,
		Value:     out.Value,
		Severity:  e.severity(spec),
		Duration:  out.Duration,
	})
	return core.CheckStateFailed
}

// severity reads the "severity" parameter, defaulting to error.
func (e *Engine) severity(spec core.CheckSpec) core.Severity {
	raw := spec.Param("severity", "error")
	sev, ok := core.ParseSeverity(raw)
	if !ok {
		e.logger.Warn("invalid severity, using error",
			slog.String("check", spec.DisplayName()),
			slog.String("severity", raw))
	}
	return sev
}
