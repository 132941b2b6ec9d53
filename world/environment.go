// Package world holds the environment bees fly through and the hive they
// start from and return to.
package world

// Cell classifies a single map coordinate.
type Cell uint8

const (
	Empty Cell = iota
	Wall
	Tree
	Resource
)

// String returns the cell name.
func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Wall:
		return "wall"
	case Tree:
		return "tree"
	case Resource:
		return "resource"
	default:
		return "unknown"
	}
}

// Obstacle reports whether the cell ends a bee's run on contact.
func (c Cell) Obstacle() bool {
	return c == Wall || c == Tree
}

// Environment is the occupancy query bees sense and collide with.
// Out-of-bounds coordinates classify as Wall.
type Environment interface {
	Classify(x, y int) Cell
	// RemoveResourceNear removes the nearest resource marker around (x, y),
	// if any. Repeated calls for the same marker are no-ops.
	RemoveResourceNear(x, y float64)
	HasResourceRemaining() bool
}
