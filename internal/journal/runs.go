package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// SaveRun writes a finished run and its results in one transaction.
// A run without an ID gets a new UUID, which is returned.
func (s *Store) SaveRun(ctx context.Context, run core.Run, results []core.CheckResult) (string, error) {
	if s.db == nil {
		return "", ErrNotOpen
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	s.logger.Debug("saving run",
		slog.String("id", run.ID),
		slog.String("environment", run.Environment),
		slog.Int("results", len(results)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var completed any
	if run.CompletedAt != nil {
		completed = run.CompletedAt.UTC()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, environment, script, status, started_at, completed_at, passed, failed, errored, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Environment, run.Script, string(run.Status), run.StartedAt.UTC(), completed,
		run.Passed, run.Failed, run.Errored, run.Skipped)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO check_results (run_id, connection, owner, feature, entity, check_type, outcome,
		 status, goal, value, severity, message, duration_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range results {
		recorded := r.RecordedAt
		if recorded.IsZero() {
			recorded = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			run.ID, r.Connection, r.Owner, r.Feature, r.Entity, r.CheckType, string(r.State),
			r.Status, r.Goal, r.Value, r.Severity, r.Message, r.DurationMS, recorded.UTC()); err != nil {
			return "", fmt.Errorf("failed to insert result for %s: %w", r.Entity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. An empty env lists
// runs of every environment.
func (s *Store) ListRuns(ctx context.Context, env string, limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		selectRuns+` WHERE (? = '' OR environment = ?) ORDER BY started_at DESC LIMIT ?`,
		env, env, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Results returns the check results of a run in recording order.
func (s *Store) Results(ctx context.Context, runID string) ([]core.CheckResult, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, connection, owner, feature, entity, check_type, outcome,
		        status, goal, value, severity, message, duration_ms, recorded_at
		 FROM check_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.CheckResult
	for rows.Next() {
		var r core.CheckResult
		var state string
		if err := rows.Scan(&r.RunID, &r.Connection, &r.Owner, &r.Feature, &r.Entity, &r.CheckType, &state,
			&r.Status, &r.Goal, &r.Value, &r.Severity, &r.Message, &r.DurationMS, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.State = core.CheckState(state)
		out = append(out, r)
	}
	return out, rows.Err()
}

const selectRuns = `SELECT id, environment, script, status, started_at, completed_at, passed, failed, errored, skipped FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*core.Run, error) {
	run := &core.Run{}
	var status string
	var completed sql.NullTime
	if err := row.Scan(&run.ID, &run.Environment, &run.Script, &status, &run.StartedAt, &completed,
		&run.Passed, &run.Failed, &run.Errored, &run.Skipped); err != nil {
		return nil, err
	}
	run.Status = core.RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return run, nil
}
