package world

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/hive/config"
)

// flower is a resource marker painted onto the grid.
type flower struct {
	x, y    int
	radius  int
	removed bool
}

// Playground is a pixel-resolution occupancy grid.
type Playground struct {
	grid    [][]Cell
	width   int
	height  int
	flowers []flower
	live    int // flowers not yet removed

	harvestRadius float64
}

// NewPlayground creates an empty playground of the given size.
func NewPlayground(width, height int) *Playground {
	grid := make([][]Cell, height)
	for y := range grid {
		grid[y] = make([]Cell, width)
	}
	return &Playground{
		grid:          grid,
		width:         width,
		height:        height,
		harvestRadius: 2,
	}
}

// GeneratePlayground builds the default field: border walls, the hive
// walls, trees and flowers placed with rng.
func GeneratePlayground(cfg *config.Config, rng *rand.Rand) *Playground {
	pc := cfg.Playground
	p := NewPlayground(pc.Width, pc.Height)
	p.harvestRadius = pc.HarvestRadius

	p.buildWalls(cfg)
	p.plantTrees(pc, rng)
	p.plantFlowers(pc, rng)
	return p
}

// Width returns the playground width in pixels.
func (p *Playground) Width() int { return p.width }

// Height returns the playground height in pixels.
func (p *Playground) Height() int { return p.height }

// Classify returns the cell at (x, y). Out-of-bounds is Wall.
func (p *Playground) Classify(x, y int) Cell {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return Wall
	}
	return p.grid[y][x]
}

// Set writes a single cell. Out-of-bounds writes are ignored.
func (p *Playground) Set(x, y int, c Cell) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return
	}
	p.grid[y][x] = c
}

// FillRect fills the rectangle [x0,x1) x [y0,y1).
func (p *Playground) FillRect(x0, y0, x1, y1 int, c Cell) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			p.Set(x, y, c)
		}
	}
}

// FillCircle fills every cell within radius of (cx, cy).
func (p *Playground) FillCircle(cx, cy, radius int, c Cell) {
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				p.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

// FillSegment draws a line of the given thickness from (x0,y0) to (x1,y1).
func (p *Playground) FillSegment(x0, y0, x1, y1, thickness float64, c Cell) {
	length := math.Hypot(x1-x0, y1-y0)
	steps := int(math.Ceil(length * 2))
	r := int(math.Ceil(thickness / 2))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		x := x0 + (x1-x0)*t
		y := y0 + (y1-y0)*t
		p.FillCircle(int(math.Round(x)), int(math.Round(y)), r, c)
	}
}

// AddFlower paints a resource marker and registers it for removal.
func (p *Playground) AddFlower(x, y, radius int) {
	p.FillCircle(x, y, radius, Resource)
	p.flowers = append(p.flowers, flower{x: x, y: y, radius: radius})
	p.live++
}

// RemoveResourceNear clears the nearest live flower whose marker lies
// within harvest radius of (x, y).
func (p *Playground) RemoveResourceNear(x, y float64) {
	best := -1
	bestDist := math.Inf(1)
	for i := range p.flowers {
		f := &p.flowers[i]
		if f.removed {
			continue
		}
		d := math.Hypot(float64(f.x)-x, float64(f.y)-y)
		if d <= float64(f.radius)+p.harvestRadius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return
	}

	f := &p.flowers[best]
	r2 := f.radius * f.radius
	for dy := -f.radius; dy <= f.radius; dy++ {
		for dx := -f.radius; dx <= f.radius; dx++ {
			// trees or walls drawn over a flower edge stay
			if dx*dx+dy*dy <= r2 && p.Classify(f.x+dx, f.y+dy) == Resource {
				p.Set(f.x+dx, f.y+dy, Empty)
			}
		}
	}
	f.removed = true
	p.live--
}

// HasResourceRemaining reports whether any flower is left.
func (p *Playground) HasResourceRemaining() bool {
	return p.live > 0
}

// ResourceCount returns the number of flowers left.
func (p *Playground) ResourceCount() int {
	return p.live
}

// buildWalls draws the border and the two hive walls: the sloped roof
// ending at the exit column and the vertical wall below the exit.
func (p *Playground) buildWalls(cfg *config.Config) {
	t := cfg.Playground.WallThickness
	th := int(t)
	w, h := p.width, p.height
	home := cfg.Home

	p.FillRect(0, 0, w, th, Wall)
	p.FillRect(0, h-th, w, h, Wall)
	p.FillRect(0, 0, th, h, Wall)
	p.FillRect(w-th, 0, w, h, Wall)

	roofEndY := home.EntranceLineY0 + home.EntranceLineSlope*home.WallX
	p.FillSegment(0, home.EntranceLineY0, home.WallX, roofEndY, t, Wall)
	p.FillSegment(home.WallX, home.ExitBottomY, home.WallX, float64(h), t, Wall)
}

func (p *Playground) plantTrees(pc config.PlaygroundConfig, rng *rand.Rand) {
	span := p.width - pc.TreeMinX
	if span <= 0 {
		return
	}
	for i := 0; i < pc.Trees; i++ {
		x := pc.TreeMinX + rng.Intn(span)
		y := rng.Intn(p.height)
		p.FillCircle(x, y, pc.TreeRadius, Tree)
	}
}

func (p *Playground) plantFlowers(pc config.PlaygroundConfig, rng *rand.Rand) {
	spanX := p.width - 10 - pc.FlowerMinX
	spanY := p.height - 40 - 20
	if spanX <= 0 || spanY <= 0 {
		return
	}

	attempts := pc.Flowers * 100
	for placed := 0; placed < pc.Flowers && attempts > 0; attempts-- {
		x := pc.FlowerMinX + rng.Intn(spanX)
		y := 20 + rng.Intn(spanY)
		if !p.clearAround(x, y, pc.FlowerRadius+int(pc.FlowerSpacing)) {
			continue
		}
		p.AddFlower(x, y, pc.FlowerRadius)
		placed++
	}
}

// clearAround reports whether every cell within radius of (x, y) is Empty.
func (p *Playground) clearAround(x, y, radius int) bool {
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 && p.Classify(x+dx, y+dy) != Empty {
				return false
			}
		}
	}
	return true
}
