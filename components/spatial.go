package components

import "math"

// Position represents a bee's world position in pixels.
type Position struct {
	X, Y float64
}

// Dist returns the distance between two positions.
func (p Position) Dist(o Position) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// Rounded returns the position with both coordinates rounded to whole pixels.
func (p Position) Rounded() Position {
	return Position{X: math.Round(p.X), Y: math.Round(p.Y)}
}
