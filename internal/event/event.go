package event

import (
	"reflect"
	"sync/atomic"
	"time"
)

// Key identifies an event type or an event capability.
type Key string

// KeyAll is observed by every fire regardless of the event's key.
const KeyAll Key = "*"

// Event is the capability every fired value must satisfy.
type Event interface {
	// EventName is a human-readable name. An empty name falls back to the
	// concrete Go type name (see Name).
	EventName() string

	// EventKey is the exact type key listeners register against.
	EventKey() Key

	// Timestamp is the creation time. Timestamps are strictly increasing
	// across all events created in the process.
	Timestamp() time.Time
}

// Cancellable is implemented by events that listeners may suppress.
type Cancellable interface {
	Event
	IsCancelled() bool
	SetCancelled(cancelled bool)
}

// Tagged is implemented by events that carry capability keys beyond their
// exact key. A listener registered on a tag observes every tagged event.
type Tagged interface {
	EventTags() []Key
}

// Fielded exposes named event fields to listeners that cannot see the
// concrete type, such as script plugins.
type Fielded interface {
	Field(name string) (any, bool)
	SetField(name string, value any) error
}

// Name returns the event's name, falling back to its concrete type name.
func Name(e Event) string {
	if e == nil {
		return ""
	}
	if n := e.EventName(); n != "" {
		return n
	}
	t := reflect.TypeOf(e)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// lastStamp holds the most recently issued timestamp in Unix nanoseconds.
var lastStamp atomic.Int64

// now returns a timestamp strictly greater than any previously returned.
func now() time.Time {
	for {
		n := time.Now().UnixNano()
		last := lastStamp.Load()
		if n <= last {
			n = last + 1
		}
		if lastStamp.CompareAndSwap(last, n) {
			return time.Unix(0, n)
		}
	}
}

// Base implements Event and is meant to be embedded by concrete events.
type Base struct {
	key  Key
	name string
	ts   time.Time
}

// NewBase creates a base whose name defaults to the embedding type's name.
func NewBase(key Key) Base {
	return Base{key: key, ts: now()}
}

// NewNamedBase creates a base with an explicit event name.
func NewNamedBase(key Key, name string) Base {
	return Base{key: key, name: name, ts: now()}
}

// EventName implements Event.
func (b *Base) EventName() string { return b.name }

// EventKey implements Event.
func (b *Base) EventKey() Key { return b.key }

// Timestamp implements Event.
func (b *Base) Timestamp() time.Time { return b.ts }

// CancellableBase is Base plus the Cancellable capability.
type CancellableBase struct {
	Base
	cancelled bool
}

// NewCancellableBase creates a cancellable base for key.
func NewCancellableBase(key Key) CancellableBase {
	return CancellableBase{Base: NewBase(key)}
}

// NewNamedCancellableBase creates a cancellable base with an explicit name.
func NewNamedCancellableBase(key Key, name string) CancellableBase {
	return CancellableBase{Base: NewNamedBase(key, name)}
}

// IsCancelled implements Cancellable.
func (b *CancellableBase) IsCancelled() bool { return b.cancelled }

// SetCancelled implements Cancellable.
func (b *CancellableBase) SetCancelled(cancelled bool) { b.cancelled = cancelled }

// IsCancelled reports whether e is cancellable and currently cancelled.
func IsCancelled(e Event) bool {
	c, ok := e.(Cancellable)
	return ok && c.IsCancelled()
}

// dispatchKeys returns the exact key, each capability tag and KeyAll,
// without duplicates, in that order.
func dispatchKeys(e Event) []Key {
	keys := make([]Key, 0, 4)
	seen := make(map[Key]bool, 4)
	add := func(k Key) {
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
	}
	add(e.EventKey())
	if t, ok := e.(Tagged); ok {
		for _, k := range t.EventTags() {
			add(k)
		}
	}
	add(KeyAll)
	return keys
}
