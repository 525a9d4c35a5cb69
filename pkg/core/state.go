package core

import "time"

// RunStatus represents the lifecycle state of a check run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// CheckState is the terminal state of one check within a run.
type CheckState string

// Terminal check states.
const (
	CheckStatePassed  CheckState = "passed"
	CheckStateFailed  CheckState = "failed"
	CheckStateErrored CheckState = "errored"
	CheckStateSkipped CheckState = "skipped"
)

// Run is one execution of a check script.
type Run struct {
	ID          string
	Environment string
	Script      string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Passed      int
	Failed      int
	Errored     int
	Skipped     int
}

// CheckResult is the journaled terminal state of one check.
type CheckResult struct {
	RunID      string
	Connection string
	Owner      string
	Feature    string
	Entity     string
	CheckType  string
	State      CheckState
	Status     float64
	Goal       float64
	Value      float64
	Severity   string
	Message    string
	DurationMS int64
	RecordedAt time.Time
}
