package event

import (
	"context"
	"fmt"
	"strings"
)

// Priority determines listener execution order.
// The zero value is PriorityNormal.
type Priority int

const (
	// PriorityLowest runs after every other non-monitor listener.
	PriorityLowest Priority = iota - 2
	// PriorityLow runs after normal listeners.
	PriorityLow
	// PriorityNormal is the default priority.
	PriorityNormal
	// PriorityHigh runs before normal listeners.
	PriorityHigh
	// PriorityHighest runs first.
	PriorityHighest
	// PriorityMonitor is for observers that must see the final state of an
	// event. Monitor listeners run last and should not modify the event.
	PriorityMonitor
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLowest:
		return "lowest"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityHighest:
		return "highest"
	case PriorityMonitor:
		return "monitor"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Valid reports whether p is one of the declared priorities.
func (p Priority) Valid() bool {
	return p >= PriorityLowest && p <= PriorityMonitor
}

// ParsePriority parses a priority name, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lowest":
		return PriorityLowest, nil
	case "low":
		return PriorityLow, nil
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	case "highest":
		return PriorityHighest, nil
	case "monitor":
		return PriorityMonitor, nil
	default:
		return PriorityNormal, fmt.Errorf("%w: unknown priority %q", ErrInvalidListener, s)
	}
}

// rank orders listeners: higher ranks run first, monitor sorts below all.
func (p Priority) rank() int {
	if p == PriorityMonitor {
		return int(PriorityLowest) - 1
	}
	return int(p)
}

// Handler processes an event. Returning an error reports a failure to the
// bus ErrorHandler; it does not stop delivery to other listeners.
type Handler func(ctx context.Context, e Event) error

// Typed adapts a handler for a concrete event type. Events of other types
// are skipped silently.
func Typed[T Event](fn func(ctx context.Context, e T) error) Handler {
	return func(ctx context.Context, e Event) error {
		if te, ok := e.(T); ok {
			return fn(ctx, te)
		}
		return nil
	}
}

// FilterFunc is a predicate applied before dispatch.
// Return true to allow the event, false to suppress the fire entirely.
type FilterFunc func(e Event) bool

// Stats contains event bus statistics.
type Stats struct {
	// Fired is the number of Fire and FireAsync dispatches performed.
	Fired uint64

	// Filtered is the number of fires vetoed by a filter.
	Filtered uint64

	// Delivered is the number of successful listener invocations.
	Delivered uint64

	// Skipped is the number of listeners skipped because the event was cancelled.
	Skipped uint64

	// Failed is the number of listeners that returned an error.
	Failed uint64

	// Panicked is the number of listeners that panicked.
	Panicked uint64

	// Overflowed is the number of async fires dispatched outside the
	// worker pool because its queue was full.
	Overflowed uint64

	// Listeners is the current number of registered listeners.
	Listeners int
}

// ErrorHandler receives isolated listener failures.
type ErrorHandler func(err *ListenerError)
