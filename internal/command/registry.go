package command

import (
	"maps"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dshills/piston/internal/logging"
)

// DefaultPrefix is the command prefix stripped from the first token.
const DefaultPrefix = "/"

// PlatformCompleter answers the platform-bound completion kinds. Without
// one, player and world completions are empty.
type PlatformCompleter interface {
	PlayerNames(onlineOnly bool) []string
	WorldNames() []string
}

// state is an immutable view of the registry. Writers copy it, modify the
// copy and publish it atomically.
type state struct {
	commands   map[string]*Descriptor    // folded name or alias -> descriptor
	owned      map[Handler][]string      // handler -> folded names it owns
	completers map[string]CompletionFunc // folded completion kind -> completer
}

func (s *state) clone() *state {
	next := &state{
		commands:   maps.Clone(s.commands),
		owned:      make(map[Handler][]string, len(s.owned)),
		completers: maps.Clone(s.completers),
	}
	for h, names := range s.owned {
		next.owned[h] = slices.Clone(names)
	}
	return next
}

// Registry maps command names to descriptors and executes command lines.
// All methods are safe for concurrent use; Execute and Complete never
// block on registration.
type Registry struct {
	mu       sync.Mutex // serializes writers
	st       atomic.Pointer[state]
	prefix   string
	log      *logging.Logger
	platform PlatformCompleter
}

// Option configures a Registry.
type Option func(*Registry)

// WithPrefix sets the prefix stripped from the first token. An empty
// prefix disables stripping.
func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		r.prefix = prefix
	}
}

// WithLogger sets the registry logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithPlatform sets the source of player and world completions.
func WithPlatform(p PlatformCompleter) Option {
	return func(r *Registry) {
		r.platform = p
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		prefix: DefaultPrefix,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.st.Store(&state{
		commands:   make(map[string]*Descriptor),
		owned:      make(map[Handler][]string),
		completers: make(map[string]CompletionFunc),
	})
	return r
}

// Prefix returns the configured command prefix.
func (r *Registry) Prefix() string { return r.prefix }

// Register validates and installs every command h declares. On a
// validation failure nothing is installed and a *RegistrationError is
// returned. Registering the same handler again replaces its commands.
// A name already owned by another handler is taken over with a warning.
func (r *Registry) Register(h Handler) error {
	descs, err := buildDescriptors(h, r.prefix)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.st.Load().clone()
	next.drop(h)

	var owned []string
	for _, d := range descs {
		for _, key := range d.names() {
			if prev, ok := next.commands[key]; ok && prev.owner != h {
				r.log.Warn("command %q from %T overrides the one from %T", key, h, prev.owner)
				next.disown(prev.owner, key)
			}
			next.commands[key] = d
			if !slices.Contains(owned, key) {
				owned = append(owned, key)
			}
		}
	}
	next.owned[h] = owned
	r.st.Store(next)

	r.log.Debug("registered %d commands from %T", len(descs), h)
	return nil
}

// drop removes every name h owns.
func (s *state) drop(h Handler) int {
	names, ok := s.owned[h]
	if !ok {
		return 0
	}
	for _, key := range names {
		if d, ok := s.commands[key]; ok && d.owner == h {
			delete(s.commands, key)
		}
	}
	delete(s.owned, h)
	return len(names)
}

// disown removes key from h's owned names.
func (s *state) disown(h Handler, key string) {
	names := slices.DeleteFunc(s.owned[h], func(n string) bool { return n == key })
	if len(names) == 0 {
		delete(s.owned, h)
		return
	}
	s.owned[h] = names
}

// Unregister removes every command h owns. It reports whether anything
// was removed; unregistering twice is a no-op.
func (r *Registry) Unregister(h Handler) bool {
	if h == nil || !reflect.TypeOf(h).Comparable() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.st.Load()
	if _, ok := cur.owned[h]; !ok {
		return false
	}
	next := cur.clone()
	next.drop(h)
	r.st.Store(next)
	return true
}

// UnregisterType removes the commands of every registered handler whose
// dynamic type equals sample's. It returns the number of handlers removed.
func (r *Registry) UnregisterType(sample Handler) int {
	if sample == nil {
		return 0
	}
	t := reflect.TypeOf(sample)

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.st.Load().clone()
	n := 0
	for h := range r.st.Load().owned {
		if reflect.TypeOf(h) == t {
			next.drop(h)
			n++
		}
	}
	if n > 0 {
		r.st.Store(next)
	}
	return n
}

// UnregisterCommand removes the command bound to name, including all of
// its other names. It reports whether the name was registered.
func (r *Registry) UnregisterCommand(name string) bool {
	key := fold(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.st.Load()
	d, ok := cur.commands[key]
	if !ok {
		return false
	}
	next := cur.clone()
	for k, other := range cur.commands {
		if other == d {
			delete(next.commands, k)
			next.disown(d.owner, k)
		}
	}
	r.st.Store(next)
	return true
}

// RegisterCompleter installs a global completer for a completion kind.
// It is consulted after handler methods and argument literals.
func (r *Registry) RegisterCompleter(kind CompletionKind, fn CompletionFunc) {
	r.RegisterNamedCompleter(kind.String(), fn)
}

// RegisterNamedCompleter installs a global completer under a kind name,
// case-insensitively. A nil fn removes it.
func (r *Registry) RegisterNamedCompleter(name string, fn CompletionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.st.Load().clone()
	key := fold(name)
	if fn == nil {
		delete(next.completers, key)
	} else {
		next.completers[key] = fn
	}
	r.st.Store(next)
}

// Lookup resolves a name or alias, case-insensitively. A leading prefix
// is ignored.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.st.Load().commands[r.key(name)]
	return d, ok
}

func (r *Registry) key(label string) string {
	if r.prefix != "" && len(label) > len(r.prefix) && label[:len(r.prefix)] == r.prefix {
		label = label[len(r.prefix):]
	}
	return fold(label)
}

// Names returns every registered name and alias, folded and sorted.
func (r *Registry) Names() []string {
	cmds := r.st.Load().commands
	names := make([]string, 0, len(cmds))
	for k := range cmds {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Descriptors returns each registered command once, sorted by name.
func (r *Registry) Descriptors() []*Descriptor {
	cur := r.st.Load()
	seen := make(map[*Descriptor]bool, len(cur.commands))
	out := make([]*Descriptor, 0, len(cur.commands))
	for _, d := range cur.commands {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b *Descriptor) int {
		if c := compareFolded(a.name, b.name); c != 0 {
			return c
		}
		return compareFolded(a.usage, b.usage)
	})
	return out
}

func compareFolded(a, b string) int {
	fa, fb := fold(a), fold(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}

// Usage returns the usage line of the named command, empty if unknown.
func (r *Registry) Usage(name string) string {
	if d, ok := r.Lookup(name); ok {
		return d.Usage()
	}
	return ""
}

// Handlers returns the number of registered handlers.
func (r *Registry) Handlers() int {
	return len(r.st.Load().owned)
}
