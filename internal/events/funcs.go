package events

// funcSubscriber adapts a function to the Subscriber interface.
type funcSubscriber struct {
	kinds []Kind
	fn    func(Event) error
}

// SubscriberFunc returns a durable subscriber that calls fn for the given kinds.
// With no kinds it handles every kind.
func SubscriberFunc(fn func(Event) error, kinds ...Kind) Subscriber {
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	return &funcSubscriber{kinds: kinds, fn: fn}
}

func (f *funcSubscriber) Kinds() []Kind { return f.kinds }

func (f *funcSubscriber) Handle(ev Event) error { return f.fn(ev) }
