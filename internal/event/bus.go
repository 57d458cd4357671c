package event

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dshills/piston/internal/event/dispatch"
)

// Bus owns the key to listener mapping and dispatches events.
//
// Registration and dispatch may run concurrently from any goroutine.
// Writers publish a new immutable snapshot; a fire in progress keeps
// iterating the snapshot it started with.
type Bus struct {
	mu      sync.Mutex // serializes writers
	snap    atomic.Pointer[snapshot]
	nextSeq uint64
	filters atomic.Pointer[[]FilterFunc]

	config busConfig

	poolOnce sync.Once
	pool     *dispatch.Pool
	poolErr  error
	closed   atomic.Bool

	// overflow tracks dispatches that found the async queue full.
	overflowMu     sync.Mutex
	overflowClosed bool
	overflow       sync.WaitGroup

	// Stats
	fired     atomic.Uint64
	filtered  atomic.Uint64
	delivered atomic.Uint64
	skipped   atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
	overflows atomic.Uint64
}

// NewBus creates an event bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	b := &Bus{config: config}
	b.snap.Store(emptySnapshot())
	return b
}

// Register validates every handler declared by set and registers them
// atomically. A malformed declaration registers nothing and returns an
// error wrapping ErrInvalidListener.
func (b *Bus) Register(set ListenerSet) ([]*RegisteredListener, error) {
	ls, err := newSetListeners(set)
	if err != nil {
		return nil, err
	}
	b.publish(ls)
	return ls, nil
}

// Subscribe registers a callback for key.
func (b *Bus) Subscribe(key Key, fn Handler, opts ...ListenerOption) (*RegisteredListener, error) {
	l, err := newFuncListener(key, fn, opts)
	if err != nil {
		return nil, err
	}
	b.publish([]*RegisteredListener{l})
	return l, nil
}

// On registers a callback that only receives events of type T.
func On[T Event](b *Bus, key Key, fn func(ctx context.Context, e T) error, opts ...ListenerOption) (*RegisteredListener, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(key, Typed(fn), opts...)
}

func (b *Bus) publish(ls []*RegisteredListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range ls {
		b.nextSeq++
		l.seq = b.nextSeq
	}
	b.snap.Store(b.snap.Load().with(ls))
}

// Remove unregisters a single listener. It reports whether l was registered.
func (b *Bus) Remove(l *RegisteredListener) bool {
	if l == nil {
		return false
	}
	return b.remove(func(x *RegisteredListener) bool { return x == l }) > 0
}

// Unregister removes every listener declared by set and returns how many
// were removed.
func (b *Bus) Unregister(set ListenerSet) int {
	if set == nil {
		return 0
	}
	return b.remove(func(x *RegisteredListener) bool { return x.owner == set })
}

// UnregisterAll clears every registration.
func (b *Bus) UnregisterAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Store(emptySnapshot())
}

func (b *Bus) remove(drop func(*RegisteredListener) bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, n := b.snap.Load().without(drop)
	if n > 0 {
		b.snap.Store(next)
	}
	return n
}

// ListenerCount returns the number of listeners registered directly on key.
func (b *Bus) ListenerCount(key Key) int {
	return len(b.snap.Load().byKey[key])
}

// HasListeners reports whether any listener is registered directly on key.
func (b *Bus) HasListeners(key Key) bool {
	return b.ListenerCount(key) > 0
}

// Listeners returns, in invocation order, the listeners that would
// receive e if it were fired now.
func (b *Bus) Listeners(e Event) []*RegisteredListener {
	if e == nil {
		return nil
	}
	ls := b.snap.Load().resolve(dispatchKeys(e))
	out := make([]*RegisteredListener, len(ls))
	copy(out, ls)
	return out
}

// Owners returns every registered ListenerSet in registration order.
func (b *Bus) Owners() []ListenerSet {
	snap := b.snap.Load()
	owners := make([]ListenerSet, 0, len(snap.byOwner))
	for o := range snap.byOwner {
		owners = append(owners, o)
	}
	slices.SortFunc(owners, func(x, y ListenerSet) int {
		return cmp.Compare(snap.byOwner[x][0].seq, snap.byOwner[y][0].seq)
	})
	return owners
}

// AddFilter adds a predicate consulted before every fire. If any filter
// returns false the fire is suppressed and no listener runs.
func (b *Bus) AddFilter(f FilterFunc) {
	if f == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var next []FilterFunc
	if cur := b.filters.Load(); cur != nil {
		next = append(next, *cur...)
	}
	next = append(next, f)
	b.filters.Store(&next)
}

// ClearFilters removes every filter.
func (b *Bus) ClearFilters() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters.Store(nil)
}

// Fire dispatches e synchronously on the calling goroutine and returns it,
// possibly mutated by listeners. Listener failures never escape; they are
// reported to the ErrorHandler and delivery continues.
func (b *Bus) Fire(ctx context.Context, e Event) Event {
	if e == nil {
		return nil
	}
	b.fired.Add(1)

	if !b.allowed(e) {
		b.filtered.Add(1)
		return e
	}

	for _, l := range b.snap.Load().resolve(dispatchKeys(e)) {
		if l.ignoreCancelled && IsCancelled(e) {
			b.skipped.Add(1)
			continue
		}
		b.invoke(ctx, l, e)
	}
	return e
}

func (b *Bus) allowed(e Event) bool {
	fs := b.filters.Load()
	if fs == nil {
		return true
	}
	for _, f := range *fs {
		if !b.applyFilter(f, e) {
			return false
		}
	}
	return true
}

// applyFilter runs one filter. A panicking filter vetoes the fire.
func (b *Bus) applyFilter(f FilterFunc, e Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.config.logger.Error("event filter panicked on %s: %v", Name(e), r)
			ok = false
		}
	}()
	return f(e)
}

func (b *Bus) invoke(ctx context.Context, l *RegisteredListener, e Event) {
	out := dispatch.Guard(ctx, func(ctx context.Context) error {
		return l.invoker.Invoke(ctx, e)
	})
	if b.config.slow > 0 && out.Elapsed > b.config.slow {
		b.config.logger.Warn("listener %s took %s handling %s", l.name, out.Elapsed, Name(e))
	}

	switch {
	case out.Panicked:
		b.panicked.Add(1)
		b.report(&ListenerError{
			ListenerID:   l.id,
			ListenerName: l.name,
			Key:          l.key,
			EventName:    Name(e),
			Panicked:     true,
			PanicValue:   out.PanicValue,
			Stack:        out.Stack,
		})
	case out.Err != nil:
		b.failed.Add(1)
		b.report(&ListenerError{
			ListenerID:   l.id,
			ListenerName: l.name,
			Key:          l.key,
			EventName:    Name(e),
			Err:          out.Err,
		})
	default:
		b.delivered.Add(1)
	}
}

// report hands a failure to the ErrorHandler. A panicking handler is
// swallowed so dispatch always continues.
func (b *Bus) report(err *ListenerError) {
	defer func() {
		if r := recover(); r != nil {
			b.config.logger.Error("event error handler panicked: %v", r)
		}
	}()
	if b.config.onError != nil {
		b.config.onError(err)
		return
	}
	b.config.logger.Err(err, "event listener failed")
}

// FireAsync dispatches e on a background worker and returns immediately.
// The Future resolves with the same event once every listener has run.
// Listeners for one fire run sequentially on one worker. When the worker
// queue is full the fire runs on its own goroutine instead of failing. The
// context's values reach listeners but its cancellation does not interrupt
// dispatch.
func (b *Bus) FireAsync(ctx context.Context, e Event) *Future {
	f := newFuture()
	if e == nil {
		f.complete(nil, ErrNilEvent)
		return f
	}
	if b.closed.Load() {
		f.complete(e, ErrBusClosed)
		return f
	}

	exec, err := b.asyncExecutor()
	if err != nil {
		f.complete(e, err)
		return f
	}

	detached := context.WithoutCancel(ctx)
	err = exec.Submit(func() {
		f.complete(b.Fire(detached, e), nil)
	})
	switch {
	case err == nil:
	case errors.Is(err, dispatch.ErrQueueFull):
		b.dispatchOverflow(detached, e, f)
	case errors.Is(err, dispatch.ErrPoolStopped):
		f.complete(e, ErrBusClosed)
	default:
		f.complete(e, err)
	}
	return f
}

// dispatchOverflow runs a fire that found the queue full on its own
// goroutine. Close waits for these as it does for queued fires.
func (b *Bus) dispatchOverflow(ctx context.Context, e Event, f *Future) {
	b.overflowMu.Lock()
	if b.overflowClosed {
		b.overflowMu.Unlock()
		f.complete(e, ErrBusClosed)
		return
	}
	b.overflow.Add(1)
	b.overflowMu.Unlock()

	b.overflows.Add(1)
	go func() {
		defer b.overflow.Done()
		f.complete(b.Fire(ctx, e), nil)
	}()
}

// asyncExecutor returns the caller-supplied executor or lazily starts the
// built-in pool.
func (b *Bus) asyncExecutor() (Executor, error) {
	if b.config.executor != nil {
		return b.config.executor, nil
	}
	b.poolOnce.Do(func() {
		p := dispatch.NewPool(
			dispatch.WithQueueSize(b.config.asyncQueueSize),
			dispatch.WithWorkerCount(b.config.asyncWorkerCount),
		)
		if err := p.Start(); err != nil {
			b.poolErr = err
			return
		}
		b.pool = p
	})
	if b.poolErr != nil {
		return nil, b.poolErr
	}
	return b.pool, nil
}

// Close stops accepting asynchronous fires and waits for pending ones to
// finish or for ctx to be done. Synchronous Fire keeps working.
func (b *Bus) Close(ctx context.Context) error {
	if b.closed.Swap(true) {
		return nil
	}
	b.poolOnce.Do(func() {
		b.poolErr = ErrBusClosed
	})

	var err error
	if b.pool != nil {
		err = b.pool.Stop(ctx)
	}

	b.overflowMu.Lock()
	b.overflowClosed = true
	b.overflowMu.Unlock()

	done := make(chan struct{})
	go func() {
		b.overflow.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	return Stats{
		Fired:      b.fired.Load(),
		Filtered:   b.filtered.Load(),
		Delivered:  b.delivered.Load(),
		Skipped:    b.skipped.Load(),
		Failed:     b.failed.Load(),
		Panicked:   b.panicked.Load(),
		Overflowed: b.overflows.Load(),
		Listeners:  b.snap.Load().count,
	}
}
