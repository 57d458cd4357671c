package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// Outcome reports how one guarded listener call ended.
type Outcome struct {
	Err        error
	Panicked   bool
	PanicValue any
	Stack      []byte
	Elapsed    time.Duration
}

// OK reports whether the call returned normally without an error.
func (o Outcome) OK() bool {
	return !o.Panicked && o.Err == nil
}

// Guard calls fn and converts a panic into the returned Outcome. ctx is
// passed through as is; a done context does not prevent the call.
func Guard(ctx context.Context, fn func(context.Context) error) (out Outcome) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		if r := recover(); r != nil {
			out = Outcome{Panicked: true, PanicValue: r, Stack: debug.Stack()}
		}
		out.Elapsed = elapsed
	}()
	out.Err = fn(ctx)
	return out
}

// PanicFunc receives a panic that escaped a pool task.
type PanicFunc func(value any, stack []byte)
