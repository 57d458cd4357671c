package platform

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// ticksPerDay is the length of a world day in ticks.
const ticksPerDay = 24000

// World is a named world with a day clock.
type World struct {
	id   string
	name string
	time atomic.Int64
}

// NewWorld creates a world with a fresh id.
func NewWorld(name string) *World {
	return &World{id: uuid.NewString(), name: name}
}

// UniqueID returns the world's id.
func (w *World) UniqueID() string { return w.id }

// Name returns the world's name.
func (w *World) Name() string { return w.name }

// Time returns the time of day in ticks.
func (w *World) Time() int64 { return w.time.Load() }

// SetTime sets the time of day, wrapped into one day.
func (w *World) SetTime(t int64) {
	t %= ticksPerDay
	if t < 0 {
		t += ticksPerDay
	}
	w.time.Store(t)
}

// Spawn returns the origin position of the world.
func (w *World) Spawn() Position {
	return Position{World: w.name, Y: 64}
}
