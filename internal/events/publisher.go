package events

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Raiser is anything events can be raised through: a Publisher or a Scope.
type Raiser interface {
	Raise(ev Event)
}

// Subscriber is a durable event handler registered on a Publisher.
type Subscriber interface {
	// Kinds lists the event kinds the subscriber handles.
	Kinds() []Kind
	// Handle processes one event.
	Handle(ev Event) error
}

// Callback is an ad hoc handler registered on a Scope.
type Callback func(ev Event) error

// Publisher delivers events to durably registered subscribers.
// Subscribers are registered rarely and events raised continuously, so the
// subscriber list is guarded by an RWMutex and delivery works on a snapshot
// taken outside the lock.
type Publisher struct {
	mu      sync.RWMutex
	subs    []Subscriber
	onError func(*SubscriberError)
	logger  *slog.Logger
}

// NewPublisher creates a publisher. If logger is nil, a discard logger is used.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{logger: logger}
}

// Subscribe registers a durable subscriber.
func (p *Publisher) Subscribe(s Subscriber) {
	p.mu.Lock()
	p.subs = append(p.subs, s)
	p.mu.Unlock()
}

// OnError installs a hook that receives every isolated subscriber failure.
func (p *Publisher) OnError(fn func(*SubscriberError)) {
	p.mu.Lock()
	p.onError = fn
	p.mu.Unlock()
}

// Raise delivers ev to every durable subscriber of its kind, in
// registration order. Subscriber failures are isolated and never returned.
func (p *Publisher) Raise(ev Event) {
	kind := ev.Kind()

	p.mu.RLock()
	targets := make([]Subscriber, 0, len(p.subs))
	for _, s := range p.subs {
		if slices.Contains(s.Kinds(), kind) {
			targets = append(targets, s)
		}
	}
	p.mu.RUnlock()

	for _, s := range targets {
		p.deliver(fmt.Sprintf("%T", s), ev, s.Handle)
	}
}

// NewScope creates a run-scoped callback channel bound to this publisher.
func (p *Publisher) NewScope() *Scope {
	return &Scope{
		pub:       p,
		callbacks: make(map[Kind][]Callback),
	}
}

// deliver calls handle, turning a returned error or a panic into a
// SubscriberError that is logged and passed to the error hook.
func (p *Publisher) deliver(name string, ev Event, handle func(Event) error) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		err = handle(ev)
	}()
	if err == nil {
		return
	}

	serr := &SubscriberError{Subscriber: name, Kind: ev.Kind(), Err: err}
	p.logger.Warn("event subscriber failed",
		slog.String("subscriber", name),
		slog.String("kind", string(ev.Kind())),
		slog.String("error", err.Error()))

	p.mu.RLock()
	hook := p.onError
	p.mu.RUnlock()
	if hook != nil {
		hook(serr)
	}
}

// Scope is the callback channel of one logical run. Callbacks registered on
// a scope are never seen by other scopes. A scope may be shared by the
// workers of its run.
type Scope struct {
	pub       *Publisher
	mu        sync.Mutex
	callbacks map[Kind][]Callback
}

// Register adds a callback for kind. Callbacks run in registration order.
func (s *Scope) Register(kind Kind, cb Callback) {
	s.mu.Lock()
	s.callbacks[kind] = append(s.callbacks[kind], cb)
	s.mu.Unlock()
}

// Clear removes every callback registered on the scope.
func (s *Scope) Clear() {
	s.mu.Lock()
	clear(s.callbacks)
	s.mu.Unlock()
}

// Raise delivers ev to the publisher's durable subscribers and then to the
// scope's callbacks for its kind.
func (s *Scope) Raise(ev Event) {
	s.pub.Raise(ev)

	s.mu.Lock()
	cbs := slices.Clone(s.callbacks[ev.Kind()])
	s.mu.Unlock()

	for i, cb := range cbs {
		s.pub.deliver(fmt.Sprintf("scope callback %d", i), ev, cb)
	}
}

var (
	_ Raiser = (*Publisher)(nil)
	_ Raiser = (*Scope)(nil)
)
