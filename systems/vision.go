// Package systems advances bees through the playground: vision, steering,
// collision, harvesting and scoring.
package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/world"
)

// Scene is what a bee can see and bump into during a tick.
type Scene struct {
	Env  world.Environment
	Bees []*components.Bee // indexed by slot
}

// Vision converts a bee's pose into network inputs. Implementations store
// the result in the sensing bee's Vision field and return it. ClearAhead
// judges a view produced by Sense: whether a bee flying home can go
// straight on.
type Vision interface {
	RequiredInputs() int
	Sense(scene Scene, self int, heading float64, pos components.Position) []float64
	ClearAhead(view []float64) bool
}

// NewVision builds the configured vision strategy.
func NewVision(cfg *config.Config) (Vision, error) {
	switch cfg.Vision.Strategy {
	case config.VisionMono:
		return NewMonoVision(cfg), nil
	case config.VisionStereo:
		return NewStereoVision(cfg), nil
	default:
		return nil, fmt.Errorf("unknown vision strategy %q", cfg.Vision.Strategy)
	}
}

// rayCaster holds what both strategies share: how far and how finely to
// step along a ray, and which bees are worth testing.
type rayCaster struct {
	depth        float64
	step         float64
	searchRadius float64
	bodySize     float64
}

func newRayCaster(cfg *config.Config) rayCaster {
	return rayCaster{
		depth:        cfg.Vision.Depth,
		step:         cfg.Vision.Step,
		searchRadius: cfg.Derived.SearchRadius,
		bodySize:     cfg.Body.Size,
	}
}

// hitKind is what a ray ran into.
type hitKind uint8

const (
	hitNone hitKind = iota
	hitResource
	hitTree
	hitWall
	hitBee
)

// cast walks a ray from (ox, oy) at angle deg and returns the first thing
// hit and the distance along the ray. Walls and trees beat bees, which beat
// resources, at the same step.
func (rc *rayCaster) cast(env world.Environment, near []*components.Bee, ox, oy, deg float64) (hitKind, float64) {
	sin, cos := math.Sincos(radians(deg))
	for r := 0.0; r < rc.searchRadius; r += rc.step {
		px := math.Round(cos*r + ox)
		py := math.Round(sin*r + oy)

		cell := env.Classify(int(px), int(py))
		switch cell {
		case world.Wall:
			return hitWall, r
		case world.Tree:
			return hitTree, r
		}

		for _, other := range near {
			if InEllipse(other, px, py, rc.bodySize) {
				return hitBee, r
			}
		}

		if cell == world.Resource {
			return hitResource, r
		}
	}
	return hitNone, 0
}

// beesInRange returns the other live bees close enough to show up on a ray
// from pos, checking the bounding box before the exact distance.
func (rc *rayCaster) beesInRange(scene Scene, self int, pos components.Position) []*components.Bee {
	// a bee's outline reaches half a body past its centre
	reach := rc.searchRadius + rc.bodySize/2
	var near []*components.Bee
	for i, other := range scene.Bees {
		if i == self || other == nil || other.Eliminated {
			continue
		}
		dx := other.Position.X - pos.X
		dy := other.Position.Y - pos.Y
		if math.Abs(dx) > reach || math.Abs(dy) > reach {
			continue
		}
		if dx*dx+dy*dy > reach*reach {
			continue
		}
		near = append(near, other)
	}
	return near
}

// store writes out into the sensing bee's cache, reusing its buffer.
func store(scene Scene, self int, out []float64) []float64 {
	if self < 0 || self >= len(scene.Bees) || scene.Bees[self] == nil {
		return out
	}
	b := scene.Bees[self]
	if len(b.Vision) != len(out) {
		b.Vision = make([]float64, len(out))
	}
	copy(b.Vision, out)
	return b.Vision
}
