package testutil

import (
	"sync"

	"github.com/leapstack-labs/leapcheck/internal/events"
)

// Recorder is a durable subscriber that keeps every event it receives.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

// NewRecorder returns a recorder subscribed to every kind on pub.
func NewRecorder(pub *events.Publisher) *Recorder {
	r := &Recorder{}
	pub.Subscribe(r)
	return r
}

// Kinds implements events.Subscriber.
func (r *Recorder) Kinds() []events.Kind { return events.AllKinds }

// Handle implements events.Subscriber.
func (r *Recorder) Handle(ev events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the recorded events of one kind.
func (r *Recorder) OfKind(kind events.Kind) []events.Event {
	var out []events.Event
	for _, ev := range r.Events() {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

// KindsFor returns the kinds of all check events for entity, in order.
func (r *Recorder) KindsFor(entity string) []events.Kind {
	var out []events.Kind
	for _, ev := range r.Events() {
		if spec, ok := events.CheckOf(ev); ok && spec.EntityName == entity {
			out = append(out, ev.Kind())
		}
	}
	return out
}
