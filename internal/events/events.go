// Package events defines the domain events raised while a check script runs
// and the publisher that fans them out to subscribers.
//
// Events are plain values. Each one carries copies of the data it describes,
// so a subscriber can keep an event after the run that produced it is gone.
package events

import (
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Kind identifies the type of an event.
type Kind string

// Event kinds.
const (
	KindCheckStarted    Kind = "check_started"
	KindCheckPassed     Kind = "check_passed"
	KindCheckFailed     Kind = "check_failed"
	KindCheckError      Kind = "check_error"
	KindUnknownCheck    Kind = "unknown_check"
	KindEntityExpanding Kind = "entity_expanding"
)

// AllKinds lists every event kind in lifecycle order.
var AllKinds = []Kind{
	KindCheckStarted,
	KindCheckPassed,
	KindCheckFailed,
	KindCheckError,
	KindUnknownCheck,
	KindEntityExpanding,
}

// TerminalKinds are the kinds of which exactly one is raised per check.
var TerminalKinds = []Kind{
	KindCheckPassed,
	KindCheckFailed,
	KindCheckError,
	KindUnknownCheck,
}

// Event is implemented by every domain event.
type Event interface {
	Kind() Kind
}

// CheckStartedEvent is raised once a validator has been resolved for a check
// and it is about to run.
type CheckStartedEvent struct {
	Name  string
	Check core.CheckSpec
}

// CheckPassedEvent is raised when a validator reports Status >= 0.
type CheckPassedEvent struct {
	Name     string
	Check    core.CheckSpec
	Status   float64
	Goal     float64
	Value    float64
	Duration time.Duration
}

// CheckFailedEvent is raised when a validator reports Status < 0.
type CheckFailedEvent struct {
	Name      string
	Check     core.CheckSpec
	CheckType string
	Message   string
	Details   string
	Status    float64
	Goal      float64
	Value     float64
	Severity  core.Severity
	Duration  time.Duration
}

// CheckErrorEvent is raised when a check could not produce an outcome.
// Properties holds diagnostic context such as the connection and dialect.
type CheckErrorEvent struct {
	Check      core.CheckSpec
	Err        error
	Properties map[string]any
	Duration   time.Duration
}

// UnknownCheckEvent is raised when no validator is registered for a check type.
type UnknownCheckEvent struct {
	CheckName string
	Check     core.CheckSpec
}

// EntityExpandingEvent is raised once per wildcard entity that matched at
// least one table.
type EntityExpandingEvent struct {
	EntityName string
	ColumnName string
	Match      string
	Expansion  []string
}

// Kind implements Event.
func (CheckStartedEvent) Kind() Kind { return KindCheckStarted }

// Kind implements Event.
func (CheckPassedEvent) Kind() Kind { return KindCheckPassed }

// Kind implements Event.
func (CheckFailedEvent) Kind() Kind { return KindCheckFailed }

// Kind implements Event.
func (CheckErrorEvent) Kind() Kind { return KindCheckError }

// Kind implements Event.
func (UnknownCheckEvent) Kind() Kind { return KindUnknownCheck }

// Kind implements Event.
func (EntityExpandingEvent) Kind() Kind { return KindEntityExpanding }

// CheckOf returns the check an event refers to, if any.
func CheckOf(ev Event) (core.CheckSpec, bool) {
	switch e := ev.(type) {
	case CheckStartedEvent:
		return e.Check, true
	case CheckPassedEvent:
		return e.Check, true
	case CheckFailedEvent:
		return e.Check, true
	case CheckErrorEvent:
		return e.Check, true
	case UnknownCheckEvent:
		return e.Check, true
	default:
		return core.CheckSpec{}, false
	}
}
