package plugin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dshills/piston/internal/event/events"
	"github.com/dshills/piston/internal/logging"
)

// Manager owns the set of plugins and drives their lifecycle.
//
// Lifecycle operations are serialized. A plugin's Enable and Disable run
// while the manager holds its lifecycle lock, so they must not call back
// into Enable, Disable, Replace or Remove. Read methods stay available.
type Manager struct {
	lifecycle sync.Mutex

	mu      sync.RWMutex
	plugins map[string]*entry
	order   []string

	svc      Services
	log      *logging.Logger
	disabled func(name string) bool
}

type entry struct {
	plugin Plugin
	pc     *Context
	state  State
	err    error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDisabled sets a predicate naming plugins that must not be enabled.
func WithDisabled(fn func(name string) bool) ManagerOption {
	return func(m *Manager) {
		m.disabled = fn
	}
}

// NewManager creates a plugin manager over svc.
func NewManager(svc Services, opts ...ManagerOption) *Manager {
	log := svc.Logger
	if log == nil {
		log = logging.Nop()
	}
	m := &Manager{
		plugins:  make(map[string]*entry),
		svc:      svc,
		log:      log.WithComponent("plugins"),
		disabled: func(string) bool { return false },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add makes p known to the manager without enabling it.
func (m *Manager) Add(p Plugin) error {
	if p == nil {
		return ErrNilPlugin
	}
	name := p.Name()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.plugins[name]; exists {
		return fmt.Errorf("plugin %q: %w", name, ErrAlreadyAdded)
	}
	m.plugins[name] = &entry{plugin: p}
	m.order = append(m.order, name)
	return nil
}

// Enable enables the named plugin. If its Enable fails, everything it
// registered is removed and the plugin is left in StateError.
func (m *Manager) Enable(ctx context.Context, name string) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	return m.enable(ctx, name)
}

func (m *Manager) enable(ctx context.Context, name string) error {
	e, err := m.lookup(name)
	if err != nil {
		return err
	}
	if m.state(e).Running() {
		return fmt.Errorf("plugin %q: %w", name, ErrAlreadyEnabled)
	}
	if m.disabled(name) {
		return fmt.Errorf("plugin %q: %w", name, ErrPluginDisabled)
	}

	pc := newContext(name, m.svc)
	m.setState(e, StateEnabling, nil, pc)

	if err := guard("enable", func() error { return e.plugin.Enable(ctx, pc) }); err != nil {
		pc.release()
		m.setState(e, StateError, err, nil)
		m.log.Err(err, "plugin %s failed to enable", name)
		return fmt.Errorf("enable plugin %q: %w", name, err)
	}

	m.setState(e, StateEnabled, nil, pc)
	if m.svc.Events != nil {
		m.svc.Events.Fire(ctx, events.NewPluginEnable(name, e.plugin.Version()))
	}
	m.log.Info("enabled %s %s", name, e.plugin.Version())
	return nil
}

// Disable disables the named plugin and removes its registrations. The
// registrations are removed even when the plugin's Disable fails.
func (m *Manager) Disable(ctx context.Context, name string) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	return m.disable(ctx, name)
}

func (m *Manager) disable(ctx context.Context, name string) error {
	e, err := m.lookup(name)
	if err != nil {
		return err
	}
	if !m.state(e).Running() {
		return fmt.Errorf("plugin %q: %w", name, ErrNotEnabled)
	}

	if m.svc.Events != nil {
		m.svc.Events.Fire(ctx, events.NewPluginDisable(name, e.plugin.Version()))
	}

	m.mu.RLock()
	pc := e.pc
	m.mu.RUnlock()

	m.setState(e, StateDisabling, nil, pc)
	err = guard("disable", func() error { return e.plugin.Disable(ctx, pc) })
	pc.release()
	m.setState(e, StateDisabled, nil, nil)

	if err != nil {
		m.log.Err(err, "plugin %s failed to disable cleanly", name)
		return fmt.Errorf("disable plugin %q: %w", name, err)
	}
	m.log.Info("disabled %s", name)
	return nil
}

// EnableAll enables every added plugin in add order, skipping enabled and
// configuration-disabled ones. Failures are joined.
func (m *Manager) EnableAll(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	var errs []error
	for _, name := range m.names() {
		e, err := m.lookup(name)
		if err != nil || m.state(e).Running() {
			continue
		}
		if m.disabled(name) {
			m.log.Info("skipping disabled plugin %s", name)
			continue
		}
		if err := m.enable(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to enable %d plugins: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// DisableAll disables every enabled plugin in reverse add order.
func (m *Manager) DisableAll(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	var errs []error
	names := m.names()
	slices.Reverse(names)
	for _, name := range names {
		e, err := m.lookup(name)
		if err != nil || !m.state(e).Running() {
			continue
		}
		if err := m.disable(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to disable %d plugins: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// Remove disables the named plugin if needed and forgets it.
func (m *Manager) Remove(ctx context.Context, name string) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	e, err := m.lookup(name)
	if err != nil {
		return err
	}
	var derr error
	if m.state(e).Running() {
		derr = m.disable(ctx, name)
	}

	m.mu.Lock()
	delete(m.plugins, name)
	m.order = slices.DeleteFunc(m.order, func(n string) bool { return n == name })
	m.mu.Unlock()
	return derr
}

// Replace swaps in a new instance of a plugin, typically a reloaded
// script. An enabled predecessor is disabled first and the replacement is
// enabled. A plugin not yet known is added and enabled.
func (m *Manager) Replace(ctx context.Context, p Plugin) error {
	if p == nil {
		return ErrNilPlugin
	}
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	name := p.Name()
	if e, err := m.lookup(name); err == nil {
		if m.state(e).Running() {
			if err := m.disable(ctx, name); err != nil {
				m.log.Warn("replacing %s after unclean disable: %v", name, err)
			}
		}
		m.mu.Lock()
		e.plugin = p
		e.err = nil
		m.mu.Unlock()
	} else if err := m.Add(p); err != nil {
		return err
	}

	if m.disabled(name) {
		return nil
	}
	return m.enable(ctx, name)
}

// Get returns the named plugin.
func (m *Manager) Get(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.plugins[name]
	if !ok {
		return nil, false
	}
	return e.plugin, true
}

// Info describes the named plugin.
func (m *Manager) Info(name string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.plugins[name]
	if !ok {
		return Info{}, false
	}
	return e.info(name), true
}

// List describes every plugin in add order.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Info, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.plugins[name].info(name))
	}
	return out
}

// Count returns the number of known plugins.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// CountEnabled returns the number of enabled plugins.
func (m *Manager) CountEnabled() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.plugins {
		if e.state.Running() {
			n++
		}
	}
	return n
}

// Must be called with mu held.
func (e *entry) info(name string) Info {
	info := Info{
		Name:    name,
		Version: e.plugin.Version(),
		State:   e.state,
		Err:     e.err,
	}
	if e.pc != nil {
		info.Commands, info.Handlers = e.pc.counts()
	}
	return info
}

func (m *Manager) lookup(name string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.plugins[name]
	if !ok {
		return nil, fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}
	return e, nil
}

func (m *Manager) names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

func (m *Manager) state(e *entry) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return e.state
}

func (m *Manager) setState(e *entry, s State, err error, pc *Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.state, e.err, e.pc = s, err, pc
}

// guard runs a plugin callback, converting a panic into an error.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", op, r)
		}
	}()
	return fn()
}
