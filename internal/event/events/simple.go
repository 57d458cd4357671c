package events

import (
	"fmt"

	"github.com/dshills/piston/internal/event"
)

// TagSimple is carried by every Simple and CancellableSimple event.
const TagSimple event.Key = "simple"

// Simple is an ad-hoc named event. Its key is its name, so listeners
// subscribe with event.Key(name).
type Simple struct {
	event.Base

	// Data is an arbitrary payload listeners may replace.
	Data any
}

// NewSimple creates a named event carrying data.
func NewSimple(name string, data any) *Simple {
	return &Simple{Base: event.NewNamedBase(event.Key(name), name), Data: data}
}

// EventTags implements event.Tagged.
func (e *Simple) EventTags() []event.Key { return []event.Key{TagSimple} }

// Cancellable returns a cancellable copy sharing the name and data.
func (e *Simple) Cancellable() *CancellableSimple {
	return NewCancellableSimple(e.EventName(), e.Data)
}

// String implements fmt.Stringer.
func (e *Simple) String() string {
	return fmt.Sprintf("%s{data=%v}", e.EventName(), e.Data)
}

// CancellableSimple is a Simple event listeners may cancel.
type CancellableSimple struct {
	event.CancellableBase

	// Data is an arbitrary payload listeners may replace.
	Data any
}

// NewCancellableSimple creates a cancellable named event carrying data.
func NewCancellableSimple(name string, data any) *CancellableSimple {
	return &CancellableSimple{
		CancellableBase: event.NewNamedCancellableBase(event.Key(name), name),
		Data:            data,
	}
}

// EventTags implements event.Tagged.
func (e *CancellableSimple) EventTags() []event.Key { return []event.Key{TagSimple} }

// String implements fmt.Stringer.
func (e *CancellableSimple) String() string {
	return fmt.Sprintf("%s{data=%v, cancelled=%t}", e.EventName(), e.Data, e.IsCancelled())
}

// DataAs returns the payload of a simple event as T.
func DataAs[T any](e event.Event) (T, bool) {
	var data any
	switch se := e.(type) {
	case *Simple:
		data = se.Data
	case *CancellableSimple:
		data = se.Data
	}
	v, ok := data.(T)
	return v, ok
}
