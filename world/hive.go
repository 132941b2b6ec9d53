package world

import "github.com/pthm-cable/hive/config"

// Hive holds the home-zone geometry, start slots and sleeping beds.
// Bed i sits at start slot i. Beds are handed out from the highest slot down.
type Hive struct {
	home    config.HomeConfig
	claimed []bool
	next    int // highest unclaimed bed, -1 when full
}

// NewHive creates a hive with one bed per population slot.
func NewHive(home config.HomeConfig, population int) *Hive {
	h := &Hive{
		home:    home,
		claimed: make([]bool, population),
	}
	h.Reset()
	return h
}

// Reset frees every bed.
func (h *Hive) Reset() {
	for i := range h.claimed {
		h.claimed[i] = false
	}
	h.next = len(h.claimed) - 1
}

// Size returns the number of slots.
func (h *Hive) Size() int { return len(h.claimed) }

// SlotPosition returns the start (and bed) position of slot i. Slots are
// laid out three per row with the middle column staggered down.
func (h *Hive) SlotPosition(i int) (x, y float64) {
	x = float64(i%3)*h.home.SlotSpacingX + h.home.SlotOriginX
	y = h.home.SlotOriginY + float64(i/3)*h.home.SlotSpacingY
	if (i-1)%3 == 0 {
		y += h.home.SlotStagger
	}
	return x, y
}

// NextFreeBed returns the bed the next returning bee should head for.
func (h *Hive) NextFreeBed() (int, bool) {
	if h.next < 0 {
		return 0, false
	}
	return h.next, true
}

// ClaimBed takes the next free bed. It is exclusive: a claimed bed is never
// returned again until Reset.
func (h *Hive) ClaimBed() (int, bool) {
	bed, ok := h.NextFreeBed()
	if !ok {
		return 0, false
	}
	h.claimed[bed] = true
	for h.next >= 0 && h.claimed[h.next] {
		h.next--
	}
	return bed, true
}

// Claimed reports whether bed i is taken.
func (h *Hive) Claimed(i int) bool {
	return h.claimed[i]
}

// entranceLineY is the y of the hive roof line at x.
func (h *Hive) entranceLineY(x float64) float64 {
	return h.home.EntranceLineSlope*x + h.home.EntranceLineY0
}

// InExitColumnAboveEntrance reports whether (x, y) lies in the exit column
// above the hive roof, where bees must first fly out and around.
func (h *Hive) InExitColumnAboveEntrance(x, y float64) bool {
	return x < h.home.ColumnX && y < h.entranceLineY(x)
}

// InsideEntrance reports whether (x, y) lies inside the hive, under the roof.
func (h *Hive) InsideEntrance(x, y float64) bool {
	return x < h.home.EntranceX && y > h.entranceLineY(x)
}

// HasLeftHome reports whether x is past the exit.
func (h *Hive) HasLeftHome(x float64) bool {
	return x > h.home.ExitX
}

// ReturnTarget returns the waypoint a bee flying home from (x, y) heads for.
func (h *Hive) ReturnTarget(x, y float64) (tx, ty float64) {
	if h.InExitColumnAboveEntrance(x, y) {
		return h.home.OuterTargetX, h.home.OuterTargetY
	}
	return h.home.EntranceTargetX, h.home.EntranceTargetY
}
