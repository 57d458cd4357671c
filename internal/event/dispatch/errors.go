package dispatch

import "errors"

var (
	// ErrPoolStarted is returned by Start on a pool that is already started.
	ErrPoolStarted = errors.New("dispatch pool already started")

	// ErrPoolStopped is returned when submitting to or stopping a pool
	// that is not started.
	ErrPoolStopped = errors.New("dispatch pool stopped")

	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("dispatch queue full")
)
