package platform

import (
	"errors"
	"fmt"
	"math"
)

// ErrDivideByZero is returned by Position.Div for a zero divisor.
var ErrDivideByZero = errors.New("division by zero")

// Position is a point in a named world.
type Position struct {
	World string
	X     float64
	Y     float64
	Z     float64
}

// Add returns p translated by the given offsets.
func (p Position) Add(dx, dy, dz float64) Position {
	return Position{World: p.World, X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Sub returns p translated by the negated offsets.
func (p Position) Sub(dx, dy, dz float64) Position {
	return p.Add(-dx, -dy, -dz)
}

// Scale multiplies every coordinate by f.
func (p Position) Scale(f float64) Position {
	return Position{World: p.World, X: p.X * f, Y: p.Y * f, Z: p.Z * f}
}

// Div divides every coordinate by d.
func (p Position) Div(d float64) (Position, error) {
	if d == 0 {
		return p, ErrDivideByZero
	}
	return Position{World: p.World, X: p.X / d, Y: p.Y / d, Z: p.Z / d}, nil
}

// DistanceTo returns the euclidean distance, ignoring worlds.
func (p Position) DistanceTo(o Position) float64 {
	return math.Sqrt(math.Pow(p.X-o.X, 2) + math.Pow(p.Y-o.Y, 2) + math.Pow(p.Z-o.Z, 2))
}

// String implements fmt.Stringer.
func (p Position) String() string {
	return fmt.Sprintf("%s(%.2f, %.2f, %.2f)", p.World, p.X, p.Y, p.Z)
}

// Orientation is a facing direction in degrees.
type Orientation struct {
	Yaw   float64
	Pitch float64
}

// String implements fmt.Stringer.
func (o Orientation) String() string {
	return fmt.Sprintf("yaw=%.1f pitch=%.1f", o.Yaw, o.Pitch)
}
