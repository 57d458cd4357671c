package lua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds every call into a script.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps a gopher-lua LState with a lock and a per-call deadline.
//
// An LState is not goroutine-safe; every entry into Lua holds mu. Go
// functions exposed to Lua that can re-enter the same state (firing an
// event the script itself listens to) release mu around the re-entrant
// work with unlocked.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	timeout time.Duration
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the deadline for each call into Lua. Zero
// disables it.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	s := &State{timeout: DefaultExecutionTimeout}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	s.L = L
	return s
}

// openSafeLibraries opens only libraries without host access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// DoString runs a chunk. name labels the chunk in error messages.
func (s *State) DoString(name, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStateClosed
	}

	return scriptError(s.withDeadline(func() error {
		fn, err := s.L.Load(strings.NewReader(code), name)
		if err != nil {
			return err
		}
		s.L.Push(fn)
		return s.L.PCall(0, lua.MultRet, nil)
	}))
}

// Call invokes fn with args and returns its results.
func (s *State) Call(fn lua.LValue, args ...lua.LValue) ([]lua.LValue, error) {
	return s.Invoke(fn, func(*lua.LState) []lua.LValue { return args })
}

// Invoke locks the state, builds the arguments with build and calls fn.
// Arguments that allocate Lua values must be built inside the lock.
func (s *State) Invoke(fn lua.LValue, build func(L *lua.LState) []lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStateClosed
	}
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%s is not a function", fn.Type())
	}

	var results []lua.LValue
	err := s.withDeadline(func() error {
		var args []lua.LValue
		if build != nil {
			args = build(s.L)
		}
		top := s.L.GetTop()
		s.L.Push(fn)
		for _, a := range args {
			s.L.Push(a)
		}
		if err := s.L.PCall(len(args), lua.MultRet, nil); err != nil {
			return err
		}
		n := s.L.GetTop() - top
		results = make([]lua.LValue, n)
		for i := 0; i < n; i++ {
			results[i] = s.L.Get(top + i + 1)
		}
		s.L.Pop(n)
		return nil
	})
	return results, scriptError(err)
}

// CallGlobal invokes a global function if it exists. A missing global is
// not an error.
func (s *State) CallGlobal(name string, args ...lua.LValue) error {
	s.mu.Lock()
	fn := lua.LNil
	if !s.closed {
		fn = s.L.GetGlobal(name)
	}
	s.mu.Unlock()
	if fn.Type() != lua.LTFunction {
		return nil
	}
	_, err := s.Call(fn, args...)
	return err
}

// withDeadline runs fn with the call deadline installed, restoring any
// outer deadline afterwards. Must be called with mu held.
func (s *State) withDeadline(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	if s.timeout <= 0 {
		return fn()
	}

	outer := s.L.Context()
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer func() {
		if outer != nil {
			s.L.SetContext(outer)
		} else {
			s.L.RemoveContext()
		}
	}()

	err = fn()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrExecutionTimeout, scriptMessage(err))
	}
	return err
}

// scriptError strips the traceback from a Lua error, keeping the
// "chunk:line: message" text.
func scriptError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		return errors.New(scriptMessage(apiErr))
	}
	return err
}

func scriptMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}

// unlocked releases the state lock while fn runs. It must only be called
// from a Go function invoked by Lua, which already holds the lock.
func (s *State) unlocked(fn func()) {
	s.mu.Unlock()
	defer s.mu.Lock()
	fn()
}

// Close releases the interpreter. Later calls return ErrStateClosed.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}
