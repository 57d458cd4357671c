package event

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Invoker is the uniform invocation abstraction behind every listener.
type Invoker interface {
	Invoke(ctx context.Context, e Event) error
}

// funcInvoker adapts a plain callback.
type funcInvoker struct {
	fn Handler
}

func (f funcInvoker) Invoke(ctx context.Context, e Event) error {
	return f.fn(ctx, e)
}

// boundInvoker adapts a handler declared by a ListenerSet.
type boundInvoker struct {
	owner ListenerSet
	fn    Handler
}

func (b boundInvoker) Invoke(ctx context.Context, e Event) error {
	return b.fn(ctx, e)
}

// HandlerSpec declares one event handler of a ListenerSet.
type HandlerSpec struct {
	// Name identifies the handler in failure reports.
	Name string

	// Key is the event key or capability tag to listen on.
	Key Key

	// Priority controls ordering. The zero value is PriorityNormal.
	Priority Priority

	// ReceiveCancelled delivers the event even after an earlier listener
	// cancelled it. The zero value skips cancelled events.
	ReceiveCancelled bool

	// Handle processes the event.
	Handle Handler
}

// ListenerSet is implemented by objects that declare a table of event
// handlers. The set value is the identity used by Unregister, so it must
// be comparable; use a pointer.
type ListenerSet interface {
	EventHandlers() []HandlerSpec
}

// RegisteredListener is an immutable registration record.
type RegisteredListener struct {
	id              string
	name            string
	key             Key
	priority        Priority
	ignoreCancelled bool
	invoker         Invoker
	owner           ListenerSet
	seq             uint64
}

// ID returns the unique listener id.
func (l *RegisteredListener) ID() string { return l.id }

// Name returns the declared handler name, empty for anonymous callbacks.
func (l *RegisteredListener) Name() string { return l.name }

// Key returns the key the listener is registered against.
func (l *RegisteredListener) Key() Key { return l.key }

// Priority returns the listener priority.
func (l *RegisteredListener) Priority() Priority { return l.priority }

// IgnoreCancelled reports whether cancelled events skip this listener.
func (l *RegisteredListener) IgnoreCancelled() bool { return l.ignoreCancelled }

// Owner returns the declaring ListenerSet, nil for callbacks.
func (l *RegisteredListener) Owner() ListenerSet { return l.owner }

// Invoker returns the invocation adapter.
func (l *RegisteredListener) Invoker() Invoker { return l.invoker }

// String implements fmt.Stringer.
func (l *RegisteredListener) String() string {
	if l.name != "" {
		return fmt.Sprintf("%s[%s@%s]", l.name, l.key, l.priority)
	}
	return fmt.Sprintf("%s[%s@%s]", l.id, l.key, l.priority)
}

// ListenerOption configures a functional registration.
type ListenerOption func(*listenerConfig)

type listenerConfig struct {
	name            string
	priority        Priority
	ignoreCancelled bool
}

func defaultListenerConfig() listenerConfig {
	return listenerConfig{priority: PriorityNormal, ignoreCancelled: true}
}

// WithPriority sets the listener priority.
func WithPriority(p Priority) ListenerOption {
	return func(c *listenerConfig) {
		c.priority = p
	}
}

// WithReceiveCancelled makes the listener run even for cancelled events.
func WithReceiveCancelled() ListenerOption {
	return func(c *listenerConfig) {
		c.ignoreCancelled = false
	}
}

// WithName names the listener for failure reports.
func WithName(name string) ListenerOption {
	return func(c *listenerConfig) {
		c.name = name
	}
}

// newFuncListener validates and builds a callback listener.
func newFuncListener(key Key, fn Handler, opts []ListenerOption) (*RegisteredListener, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if fn == nil {
		return nil, ErrNilHandler
	}
	cfg := defaultListenerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.priority.Valid() {
		return nil, fmt.Errorf("%w: priority %d out of range", ErrInvalidListener, int(cfg.priority))
	}
	return &RegisteredListener{
		id:              uuid.NewString(),
		name:            cfg.name,
		key:             key,
		priority:        cfg.priority,
		ignoreCancelled: cfg.ignoreCancelled,
		invoker:         funcInvoker{fn: fn},
	}, nil
}

// newSetListeners validates every declared handler of set. Nothing is
// returned unless all declarations are valid.
func newSetListeners(set ListenerSet) ([]*RegisteredListener, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: nil listener set", ErrInvalidListener)
	}
	t := reflect.TypeOf(set)
	if !t.Comparable() {
		return nil, fmt.Errorf("%w: %s is not comparable, register a pointer", ErrInvalidListener, t)
	}

	specs := set.EventHandlers()
	out := make([]*RegisteredListener, 0, len(specs))
	for i, spec := range specs {
		label := spec.Name
		if label == "" {
			label = fmt.Sprintf("%s#%d", t, i)
		}
		if spec.Key == "" {
			return nil, fmt.Errorf("%w: handler %s: %w", ErrInvalidListener, label, ErrInvalidKey)
		}
		if spec.Handle == nil {
			return nil, fmt.Errorf("%w: handler %s: %w", ErrInvalidListener, label, ErrNilHandler)
		}
		if !spec.Priority.Valid() {
			return nil, fmt.Errorf("%w: handler %s: priority %d out of range", ErrInvalidListener, label, int(spec.Priority))
		}
		out = append(out, &RegisteredListener{
			id:              uuid.NewString(),
			name:            label,
			key:             spec.Key,
			priority:        spec.Priority,
			ignoreCancelled: !spec.ReceiveCancelled,
			invoker:         boundInvoker{owner: set, fn: spec.Handle},
			owner:           set,
		})
	}
	return out, nil
}
