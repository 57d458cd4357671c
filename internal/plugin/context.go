package plugin

import (
	"context"
	"sync"

	"github.com/dshills/piston/internal/command"
	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/logging"
	"github.com/dshills/piston/internal/platform"
)

// Context is a plugin's view of the shared services. Registrations made
// through it are owned by the plugin and removed when it is disabled.
type Context struct {
	name string
	svc  Services
	log  *logging.Logger

	mu        sync.Mutex
	handlers  []command.Handler
	sets      []event.ListenerSet
	listeners []*event.RegisteredListener
}

func newContext(name string, svc Services) *Context {
	log := svc.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Context{
		name: name,
		svc:  svc,
		log:  log.WithComponent("plugin").WithField("plugin", name),
	}
}

// Name returns the owning plugin's name.
func (c *Context) Name() string { return c.name }

// Logger returns a logger tagged with the plugin name.
func (c *Context) Logger() *logging.Logger { return c.log }

// Server returns the host server, which may be nil.
func (c *Context) Server() *platform.Server { return c.svc.Server }

// Commands returns the shared registry for lookups and execution.
// Register through the Context so the plugin owns the registration.
func (c *Context) Commands() *command.Registry { return c.svc.Commands }

// RegisterCommands registers h's commands on behalf of the plugin.
func (c *Context) RegisterCommands(h command.Handler) error {
	if err := c.svc.Commands.Register(h); err != nil {
		return err
	}
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
	return nil
}

// RegisterExecutor registers a raw command on behalf of the plugin.
func (c *Context) RegisterExecutor(name string, fn command.ExecutorFunc, opts ...command.ExecutorOption) error {
	h, err := c.svc.Commands.RegisterExecutor(name, fn, opts...)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
	return nil
}

// RegisterListeners registers a declared listener set on behalf of the plugin.
func (c *Context) RegisterListeners(set event.ListenerSet) error {
	if _, err := c.svc.Events.Register(set); err != nil {
		return err
	}
	c.mu.Lock()
	c.sets = append(c.sets, set)
	c.mu.Unlock()
	return nil
}

// Subscribe registers a callback listener on behalf of the plugin.
func (c *Context) Subscribe(key event.Key, fn event.Handler, opts ...event.ListenerOption) (*event.RegisteredListener, error) {
	l, err := c.svc.Events.Subscribe(key, fn, opts...)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
	return l, nil
}

// Fire dispatches e synchronously on the shared bus.
func (c *Context) Fire(ctx context.Context, e event.Event) event.Event {
	return c.svc.Events.Fire(ctx, e)
}

// FireAsync dispatches e on the shared bus's workers.
func (c *Context) FireAsync(ctx context.Context, e event.Event) *event.Future {
	return c.svc.Events.FireAsync(ctx, e)
}

// counts returns the number of owned command handlers and listener
// registrations.
func (c *Context) counts() (commands, handlers int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers), len(c.sets) + len(c.listeners)
}

// release removes every owned registration.
func (c *Context) release() {
	c.mu.Lock()
	handlers, sets, listeners := c.handlers, c.sets, c.listeners
	c.handlers, c.sets, c.listeners = nil, nil, nil
	c.mu.Unlock()

	for _, h := range handlers {
		c.svc.Commands.Unregister(h)
	}
	for _, s := range sets {
		c.svc.Events.Unregister(s)
	}
	for _, l := range listeners {
		c.svc.Events.Remove(l)
	}
	if n := len(handlers) + len(sets) + len(listeners); n > 0 {
		c.log.Debug("released %d registrations", n)
	}
}
