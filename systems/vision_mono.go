package systems

import (
	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/config"
)

// MonoVision casts one fan of rays from the bee's centre. Obstacles encode
// as -(1-d/depth)/3 and resources as d/depth. Only the nearest resource ray
// is kept.
type MonoVision struct {
	rayCaster
	start   float64 // degrees relative to heading
	angle   float64 // degrees between rays
	samples int
	clear   float64 // obstacle values below this do not block the way home
}

// NewMonoVision creates a mono vision sensor from config.
func NewMonoVision(cfg *config.Config) *MonoVision {
	return &MonoVision{
		rayCaster: newRayCaster(cfg),
		start:     cfg.Vision.FOVStart,
		angle:     cfg.Derived.VisionAngle,
		samples:   cfg.Vision.SamplePoints,
		clear:     cfg.Home.ClearThreshold,
	}
}

// RequiredInputs returns one input per ray.
func (v *MonoVision) RequiredInputs() int {
	return v.samples
}

// Sense casts every ray and returns the encoded proximities.
func (v *MonoVision) Sense(scene Scene, self int, heading float64, pos components.Position) []float64 {
	out := make([]float64, v.samples)
	near := v.beesInRange(scene, self, pos)

	foundResource := false
	for i := 0; i < v.samples; i++ {
		deg := heading + v.start + float64(i)*v.angle
		kind, d := v.cast(scene.Env, near, pos.X, pos.Y, deg)
		proximity := clamp01(d / v.depth)

		switch kind {
		case hitNone:
		case hitResource:
			out[i] = proximity
			foundResource = true
		default:
			out[i] = -(1 - proximity) / 3
		}
	}

	if foundResource {
		keepNearestResource(out)
	}
	return store(scene, self, out)
}

// ClearAhead reports whether the three central rays allow flying straight
// home: each must see nothing or an obstacle below the clear threshold.
func (v *MonoVision) ClearAhead(view []float64) bool {
	mid := len(view) / 2
	for i := mid - 1; i <= mid+1; i++ {
		if i < 0 || i >= len(view) {
			continue
		}
		if x := view[i]; x != 0 && x >= v.clear {
			return false
		}
	}
	return true
}

// keepNearestResource zeroes every positive entry except the first one
// holding the smallest positive value.
func keepNearestResource(out []float64) {
	best := -1
	for i, v := range out {
		if v > 0 && (best < 0 || v < out[best]) {
			best = i
		}
	}
	for i, v := range out {
		if v > 0 && i != best {
			out[i] = 0
		}
	}
}
