package lua

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/piston/internal/logging"
	"github.com/dshills/piston/internal/plugin"
)

// DefaultReloadDelay coalesces bursts of writes to one script.
const DefaultReloadDelay = 200 * time.Millisecond

// Reloader watches a plugin directory and keeps the Manager in step with
// it: a written or created script is loaded and swapped in, a removed or
// renamed one is removed.
type Reloader struct {
	dir   string
	mgr   *plugin.Manager
	log   *logging.Logger
	delay time.Duration
	opts  []ScriptOption

	mu      sync.Mutex
	pending map[string]*time.Timer
	due     chan string
	ready   chan struct{}
	done    chan struct{}
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithReloadDelay sets the debounce delay.
func WithReloadDelay(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		if d > 0 {
			r.delay = d
		}
	}
}

// WithReloadLogger sets the logger.
func WithReloadLogger(l *logging.Logger) ReloaderOption {
	return func(r *Reloader) {
		if l != nil {
			r.log = l
		}
	}
}

// WithScriptOptions sets the options applied to every reloaded script.
func WithScriptOptions(opts ...ScriptOption) ReloaderOption {
	return func(r *Reloader) {
		r.opts = opts
	}
}

// NewReloader creates a reloader for dir.
func NewReloader(dir string, mgr *plugin.Manager, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		dir:     dir,
		mgr:     mgr,
		log:     logging.Nop(),
		delay:   DefaultReloadDelay,
		pending: make(map[string]*time.Timer),
		due:     make(chan string, 64),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("reloader")
	return r
}

// Ready is closed once the directory is being watched.
func (r *Reloader) Ready() <-chan struct{} {
	return r.ready
}

// Run watches the directory until ctx is done.
func (r *Reloader) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	defer close(r.done)

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	if err := w.Add(r.dir); err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	close(r.ready)
	r.log.Info("watching %s", r.dir)

	defer r.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isScript(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
				ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				r.schedule(ev.Name)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watch error: %v", err)

		case path := <-r.due:
			if err := r.Reload(ctx, path); err != nil {
				r.log.Err(err, "reload %s", filepath.Base(path))
			}
		}
	}
}

// schedule coalesces changes to path within the delay window.
func (r *Reloader) schedule(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.pending[path]; ok {
		t.Reset(r.delay)
		return
	}
	r.pending[path] = time.AfterFunc(r.delay, func() {
		r.mu.Lock()
		delete(r.pending, path)
		r.mu.Unlock()
		select {
		case r.due <- path:
		case <-r.done:
		}
	})
}

func (r *Reloader) stopTimers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for path, t := range r.pending {
		t.Stop()
		delete(r.pending, path)
	}
}

// Reload brings the plugin for path in line with the file: loaded and
// replaced if it exists, removed if it does not.
func (r *Reloader) Reload(ctx context.Context, path string) error {
	name := scriptName(path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		err := r.mgr.Remove(ctx, name)
		if errors.Is(err, plugin.ErrPluginNotFound) {
			return nil
		}
		if err == nil {
			r.log.Info("removed %s", name)
		}
		return err
	}

	s, err := Load(path, r.opts...)
	if err != nil {
		return err
	}
	if err := r.mgr.Replace(ctx, s); err != nil {
		return err
	}
	r.log.Info("reloaded %s %s", s.Name(), s.Version())
	return nil
}
