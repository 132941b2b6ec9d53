package systems

import (
	"math"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/config"
)

// Stereo hit categories, divided by stereoScale for the network.
const (
	stereoEmpty    = 0
	stereoResource = 1
	stereoTree     = 2
	stereoWall     = 3
	stereoBee      = 5
	stereoScale    = 5.0
)

// StereoVision casts two fans of 2*samples rays from eyes set forward of
// the bee's centre and to either side. Right eye ray i looks at heading+a_i
// and left eye ray i at heading-a_i, so the eyes mirror each other about
// the heading. The output is the left eye's rays followed by the right eye's.
type StereoVision struct {
	rayCaster
	start      float64
	angle      float64
	perEye     int
	eyeForward float64
	eyeSide    float64
	ahead      []int // rays of both eyes nearest the heading
}

// NewStereoVision creates a stereo vision sensor from config.
func NewStereoVision(cfg *config.Config) *StereoVision {
	perEye := 2 * cfg.Vision.SamplePoints
	angle := 0.0
	if perEye > 1 {
		angle = (cfg.Vision.FOVStop - cfg.Vision.FOVStart) / float64(perEye-1)
	}
	v := &StereoVision{
		rayCaster:  newRayCaster(cfg),
		start:      cfg.Vision.FOVStart,
		angle:      angle,
		perEye:     perEye,
		eyeForward: cfg.Vision.EyeForward,
		eyeSide:    cfg.Vision.EyeSeparation,
	}

	centre := 0
	if angle > 0 {
		centre = int(math.Round(-v.start / angle))
	}
	centre = min(max(centre, 0), perEye-1)
	for i := centre - 1; i <= centre+1; i++ {
		if i >= 0 && i < perEye {
			v.ahead = append(v.ahead, i, perEye+i)
		}
	}
	return v
}

// RequiredInputs returns the ray count of both eyes.
func (v *StereoVision) RequiredInputs() int {
	return 2 * v.perEye
}

// Sense casts both eyes and returns the encoded categories.
func (v *StereoVision) Sense(scene Scene, self int, heading float64, pos components.Position) []float64 {
	out := make([]float64, 2*v.perEye)
	near := v.beesInRange(scene, self, pos)

	lx, ly := rotateAbout(pos.X+v.eyeForward, pos.Y-v.eyeSide, pos.X, pos.Y, heading)
	rx, ry := rotateAbout(pos.X+v.eyeForward, pos.Y+v.eyeSide, pos.X, pos.Y, heading)

	for i := 0; i < v.perEye; i++ {
		offset := v.start + float64(i)*v.angle

		kind, _ := v.cast(scene.Env, near, lx, ly, heading-offset)
		out[i] = stereoValue(kind)

		kind, _ = v.cast(scene.Env, near, rx, ry, heading+offset)
		out[v.perEye+i] = stereoValue(kind)
	}
	return store(scene, self, out)
}

// ClearAhead reports whether neither eye sees an obstacle on the rays
// nearest the heading.
func (v *StereoVision) ClearAhead(view []float64) bool {
	for _, i := range v.ahead {
		if i < len(view) && view[i] < 0 {
			return false
		}
	}
	return true
}

// stereoValue maps a hit to its normalized category. Everything but a
// resource is negative.
func stereoValue(kind hitKind) float64 {
	var cat float64
	switch kind {
	case hitResource:
		return stereoResource / stereoScale
	case hitTree:
		cat = stereoTree
	case hitWall:
		cat = stereoWall
	case hitBee:
		cat = stereoBee
	default:
		return stereoEmpty
	}
	return -cat / stereoScale
}
