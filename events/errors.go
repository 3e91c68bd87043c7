package events

import "errors"

var (
	// ErrBusClosed indicates the bus no longer accepts subscribers.
	ErrBusClosed = errors.New("event bus closed")

	// ErrSubscriberNotFound indicates an unknown subscriber id.
	ErrSubscriberNotFound = errors.New("subscriber not found")

	// ErrNilHandler indicates a subscription without a handler.
	ErrNilHandler = errors.New("handler cannot be nil")
)
