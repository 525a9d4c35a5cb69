package journal

import (
	"sync"
	"time"

	"github.com/leapstack-labs/leapcheck/internal/events"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Recorder collects the terminal result of every check in one run through
// the run's scope callbacks.
type Recorder struct {
	mu      sync.Mutex
	results []core.CheckResult
}

// NewRecorder returns a recorder with callbacks registered on scope.
func NewRecorder(scope *events.Scope) *Recorder {
	r := &Recorder{}
	for _, kind := range events.TerminalKinds {
		scope.Register(kind, r.record)
	}
	return r
}

// Results returns a copy of the collected results.
func (r *Recorder) Results() []core.CheckResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.CheckResult, len(r.results))
	copy(out, r.results)
	return out
}

func (r *Recorder) record(ev events.Event) error {
	spec, ok := events.CheckOf(ev)
	if !ok {
		return nil
	}
	res := core.CheckResult{
		Connection: spec.ConnectionRef,
		Owner:      spec.Owner,
		Feature:    spec.FeatureName,
		Entity:     spec.EntityName,
		CheckType:  spec.CheckType,
		RecordedAt: time.Now(),
	}

	switch e := ev.(type) {
	case events.CheckPassedEvent:
		res.State = core.CheckStatePassed
		res.Status, res.Goal, res.Value = e.Status, e.Goal, e.Value
		res.DurationMS = e.Duration.Milliseconds()
	case events.CheckFailedEvent:
		res.State = core.CheckStateFailed
		res.Status, res.Goal, res.Value = e.Status, e.Goal, e.Value
		res.Severity = e.Severity.String()
		res.Message = e.Message
		res.DurationMS = e.Duration.Milliseconds()
	case events.CheckErrorEvent:
		res.State = core.CheckStateErrored
		res.Status = core.StatusFail
		res.DurationMS = e.Duration.Milliseconds()
		if e.Err != nil {
			res.Message = e.Err.Error()
		}
	case events.UnknownCheckEvent:
		res.State = core.CheckStateSkipped
		res.Message = "no validator registered for " + e.CheckName
	default:
		return nil
	}

	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	return nil
}
