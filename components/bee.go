// Package components defines the per-bee state owned by the game arena.
package components

// Task is a bee's current job.
type Task uint8

const (
	CollectNectar Task = iota
	ReturnToHive
	ReturnToBed
	OrientToSleep
	Sleep
)

// EliminationCause records why a bee was removed from the current day.
type EliminationCause uint8

const (
	CauseNone EliminationCause = iota
	Collided
	Stalled
)

// Bee is one agent. It refers to its network only through Slot, the index
// shared with the population arena.
type Bee struct {
	Slot int

	Position     Position
	Start        Position
	LastPosition Position // before this tick's move
	Heading      float64  // degrees, [0, 360)
	LastHeading  float64
	Speed        float64

	Task       Task
	Nectar     int
	Eliminated bool
	Cause      EliminationCause

	Distance float64 // cumulative distance travelled
	LeftHome bool
	Pause    int // ticks left sipping nectar

	History History

	// Vision holds the last sensor output for this bee.
	Vision []float64
}

// NewBee creates a bee at its start slot facing heading.
func NewBee(slot int, x, y, heading float64, window int) *Bee {
	start := Position{X: x, Y: y}
	return &Bee{
		Slot:         slot,
		Position:     start,
		Start:        start,
		LastPosition: start,
		Heading:      heading,
		LastHeading:  heading,
		History:      NewHistory(window),
	}
}

// Eliminate removes the bee from the rest of the day. The first cause sticks.
func (b *Bee) Eliminate(cause EliminationCause) {
	if b.Eliminated {
		return
	}
	b.Eliminated = true
	b.Cause = cause
}

// Active reports whether the bee still takes part in the day.
func (b *Bee) Active() bool {
	return !b.Eliminated && b.Task != Sleep
}

// Revert restores the pre-move position and heading.
func (b *Bee) Revert() {
	b.Position = b.LastPosition
	b.Heading = b.LastHeading
}
