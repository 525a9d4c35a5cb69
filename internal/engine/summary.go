package engine

import (
	"sync"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Summary tallies the terminal states of one run.
type Summary struct {
	RunID           string
	Environment     string
	Script          string
	StartedAt       time.Time
	Duration        time.Duration
	Total           int
	Passed          int
	Failed          int
	Errored         int
	Skipped         int
	EmptyExpansions int
	Canceled        bool
}

// OK reports whether no check failed or errored.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Errored == 0
}

// Status returns the run status the summary stands for.
func (s *Summary) Status() core.RunStatus {
	switch {
	case s.Canceled:
		return core.RunStatusCanceled
	case s.OK():
		return core.RunStatusCompleted
	default:
		return core.RunStatusFailed
	}
}

// Run converts the summary into a journal run record.
func (s *Summary) Run() core.Run {
	completed := s.StartedAt.Add(s.Duration)
	return core.Run{
		ID:          s.RunID,
		Environment: s.Environment,
		Script:      s.Script,
		Status:      s.Status(),
		StartedAt:   s.StartedAt,
		CompletedAt: &completed,
		Passed:      s.Passed,
		Failed:      s.Failed,
		Errored:     s.Errored,
		Skipped:     s.Skipped,
	}
}

// tally is the concurrency-safe counter behind a Summary.
type tally struct {
	mu sync.Mutex
	s  *Summary
}

func (t *tally) add(state core.CheckState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.Total++
	switch state {
	case core.CheckStatePassed:
		t.s.Passed++
	case core.CheckStateFailed:
		t.s.Failed++
	case core.CheckStateErrored:
		t.s.Errored++
	case core.CheckStateSkipped:
		t.s.Skipped++
	}
}
