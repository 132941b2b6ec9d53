package systems

import (
	"math"

	"github.com/pthm-cable/hive/components"
)

// Collision is the outcome of a bee's post-move check.
type Collision uint8

const (
	NoCollision Collision = iota
	ObstacleCollision
	BeeCollision
)

// bodyOutline returns the hit-test points of a bee of the given size facing
// heading 0, relative to its centre. The outline traces the body: the nose
// (+x) corners and midpoint, the flanks, the tail corners and the tail tip.
func bodyOutline(size float64) [10][2]float64 {
	width := size - 5
	height := size

	noseX := height/2 - height/24 - 2
	tailX := 2 - height/2 + height/24 + 2
	topY := width/2 - 5 - 1
	bottomY := -width/2 + 5 - 2 + 2

	p1 := [2]float64{noseX, width/2 - 5 - 2}
	p2 := [2]float64{noseX, bottomY}
	p3 := [2]float64{0, topY}
	p4 := [2]float64{0, bottomY}
	p13 := [2]float64{(p1[0] + p3[0]) / 2, topY}
	p24 := [2]float64{(p2[0] + p4[0]) / 2, bottomY - 1}
	p12 := [2]float64{p1[0] + 1, (p1[1] + p2[1]) / 2}
	p5 := [2]float64{tailX, topY}
	p6 := [2]float64{tailX, bottomY}
	p7 := [2]float64{-height/2 + 1, (bottomY + topY) / 2}

	return [10][2]float64{p1, p12, p2, p24, p4, p6, p7, p5, p3, p13}
}

// HitPoints returns the bee's outline rotated by its heading about its
// rounded position.
func HitPoints(b *components.Bee, size float64) [10]components.Position {
	origin := b.Position.Rounded()
	var out [10]components.Position
	for i, p := range bodyOutline(size) {
		x, y := rotateAbout(p[0]+origin.X, p[1]+origin.Y, origin.X, origin.Y, b.Heading)
		out[i] = components.Position{X: x, Y: y}
	}
	return out
}

// InEllipse reports whether (x, y) lies inside b's elliptical footprint:
// half a body along the heading and a fifth of a body across it.
func InEllipse(b *components.Bee, x, y, size float64) bool {
	major := size / 2
	minor := size / 5

	sin, cos := math.Sincos(radians(b.Heading))
	dx := x - b.Position.X
	dy := y - b.Position.Y

	along := cos*dx + sin*dy
	across := sin*dx - cos*dy
	return (along*along)/(major*major)+(across*across)/(minor*minor) <= 1
}

// DetectCollision checks every hit point of bee self against the
// environment and the footprints of the other live bees. Obstacles win over
// bee contact.
func DetectCollision(scene Scene, self int, size float64) Collision {
	b := scene.Bees[self]
	result := NoCollision

	for _, p := range HitPoints(b, size) {
		cell := scene.Env.Classify(int(0.5+p.X), int(0.5+p.Y))
		if cell.Obstacle() {
			return ObstacleCollision
		}
		if result == BeeCollision {
			continue
		}

		for i, other := range scene.Bees {
			if i == self || other == nil || other.Eliminated {
				continue
			}
			if other.Position.Dist(p) > size {
				continue
			}
			if InEllipse(other, p.X, p.Y, size) {
				result = BeeCollision
				break
			}
		}
	}
	return result
}
