package event

import (
	"context"
	"fmt"
	"sync"
)

// Future is the pending result of FireAsync.
type Future struct {
	once  sync.Once
	done  chan struct{}
	event Event
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(e Event, err error) {
	f.once.Do(func() {
		f.event = e
		f.err = err
		close(f.done)
	})
}

// Done is closed once the dispatch has finished or failed to start.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the dispatch finishes or ctx is done. On success the
// returned event carries every listener's mutation.
func (f *Future) Wait(ctx context.Context) (Event, error) {
	select {
	case <-f.done:
		return f.event, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get blocks until the dispatch finishes.
func (f *Future) Get() (Event, error) {
	<-f.done
	return f.event, f.err
}

// Await waits on f and asserts the event type.
func Await[T Event](ctx context.Context, f *Future) (T, error) {
	var zero T
	e, err := f.Wait(ctx)
	if err != nil {
		return zero, err
	}
	te, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("future resolved with %T, want %T", e, zero)
	}
	return te, nil
}
