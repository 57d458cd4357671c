package event

import (
	"time"

	"github.com/dshills/piston/internal/logging"
)

// BusOption configures a Bus.
type BusOption func(*busConfig)

// Executor runs asynchronous fires. Submit must not block indefinitely;
// returning an error makes the Future fail with that error.
type Executor interface {
	Submit(task func()) error
}

// busConfig contains configuration for the event bus.
type busConfig struct {
	// logger receives listener failures through the default ErrorHandler.
	logger *logging.Logger

	// onError is called for every isolated listener failure.
	onError ErrorHandler

	// executor overrides the built-in worker pool for FireAsync.
	executor Executor

	// asyncQueueSize is the size of the built-in async queue.
	asyncQueueSize int

	// asyncWorkerCount is the number of built-in async workers.
	asyncWorkerCount int

	// slow is the listener run time above which a warning is logged.
	slow time.Duration
}

// defaultBusConfig returns sensible default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		logger:           logging.Nop(),
		asyncQueueSize:   1024,
		asyncWorkerCount: 4,
	}
}

// WithLogger sets the logger used by the default ErrorHandler.
func WithLogger(l *logging.Logger) BusOption {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithErrorHandler replaces the default ErrorHandler, which logs.
func WithErrorHandler(h ErrorHandler) BusOption {
	return func(c *busConfig) {
		c.onError = h
	}
}

// WithExecutor supplies the background execution context for FireAsync.
// The bus does not start or stop a caller-supplied executor.
func WithExecutor(e Executor) BusOption {
	return func(c *busConfig) {
		c.executor = e
	}
}

// WithAsyncQueueSize sets the built-in async queue size.
func WithAsyncQueueSize(size int) BusOption {
	return func(c *busConfig) {
		if size > 0 {
			c.asyncQueueSize = size
		}
	}
}

// WithAsyncWorkerCount sets the number of built-in async workers.
func WithAsyncWorkerCount(count int) BusOption {
	return func(c *busConfig) {
		if count > 0 {
			c.asyncWorkerCount = count
		}
	}
}

// WithSlowListener logs a warning whenever one listener call runs longer
// than d. Zero disables the warning.
func WithSlowListener(d time.Duration) BusOption {
	return func(c *busConfig) {
		if d >= 0 {
			c.slow = d
		}
	}
}
