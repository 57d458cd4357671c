package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event bus.
var (
	// ErrInvalidListener is returned when a listener declaration is malformed.
	ErrInvalidListener = errors.New("invalid listener")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrInvalidKey is returned when a listener key is empty.
	ErrInvalidKey = errors.New("invalid event key")

	// ErrNilEvent is returned by a Future when a nil event was fired.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrListenerPanic matches ListenerError values produced by a panic.
	ErrListenerPanic = errors.New("listener panicked")

	// ErrBusClosed is returned when async work is submitted after Close.
	ErrBusClosed = errors.New("event bus is closed")
)

// ListenerError describes one isolated listener failure.
type ListenerError struct {
	// ListenerID is the id of the failing listener.
	ListenerID string

	// ListenerName is the declared handler name, if any.
	ListenerName string

	// Key is the key the listener was registered against.
	Key Key

	// EventName is the name of the event being dispatched.
	EventName string

	// Err is the returned error, nil when the listener panicked.
	Err error

	// Panicked reports whether the listener panicked.
	Panicked bool

	// PanicValue is the value passed to panic().
	PanicValue any

	// Stack is the stack trace captured at the panic.
	Stack []byte
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	who := e.ListenerID
	if e.ListenerName != "" {
		who = e.ListenerName + " (" + e.ListenerID + ")"
	}
	if e.Panicked {
		return fmt.Sprintf("listener %s panicked handling %s: %v", who, e.EventName, e.PanicValue)
	}
	return fmt.Sprintf("listener %s failed handling %s: %v", who, e.EventName, e.Err)
}

// Unwrap returns the underlying error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match panics with ErrListenerPanic.
func (e *ListenerError) Is(target error) bool {
	return e.Panicked && target == ErrListenerPanic
}
