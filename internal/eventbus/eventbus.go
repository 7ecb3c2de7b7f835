// Package eventbus fans clearing events out to in-process subscribers such
// as metrics collectors and result publishers.
package eventbus

// Event represents an arbitrary event passed on the bus.
type Event any

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus implementation using fan-out channels.
type Bus = TypedBus[Event]

// New creates a new Bus.
func New() *Bus { return NewTyped[Event]() }

var _ EventBus = (*Bus)(nil)
