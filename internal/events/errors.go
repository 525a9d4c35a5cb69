package events

import "fmt"

// SubscriberError reports a subscriber or callback that failed while
// handling an event. It is logged and handed to Publisher.OnError, never
// returned to the code that raised the event.
type SubscriberError struct {
	Subscriber string
	Kind       Kind
	Err        error
}

func (e *SubscriberError) Error() string {
	return fmt.Sprintf("subscriber %s failed handling %s: %v", e.Subscriber, e.Kind, e.Err)
}

func (e *SubscriberError) Unwrap() error {
	return e.Err
}
