package systems

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/world"
)

// ErrIllegalTaskTransition is returned when a bee holds a task with no
// movement handler.
var ErrIllegalTaskTransition = errors.New("systems: illegal task transition")

// Brain maps sensor inputs to wing flap rates.
type Brain interface {
	Forward(inputs []float64) []float64
}

// BeeSystem advances bees one tick: steering, movement, collision, stall
// detection, harvesting and task changes.
type BeeSystem struct {
	cfg    *config.Config
	vision Vision
	hive   *world.Hive
}

// NewBeeSystem creates a bee system.
func NewBeeSystem(cfg *config.Config, vision Vision, hive *world.Hive) *BeeSystem {
	return &BeeSystem{cfg: cfg, vision: vision, hive: hive}
}

// Vision returns the sensor in use.
func (s *BeeSystem) Vision() Vision { return s.vision }

// StepBee advances scene.Bees[self] by one tick. tick counts moves made
// since the start of the day. Inactive and pausing bees do not move.
func (s *BeeSystem) StepBee(scene Scene, self int, brain Brain, tick int) error {
	b := scene.Bees[self]
	if !b.Active() {
		return nil
	}
	if b.Pause > 0 {
		b.Pause--
		return nil
	}

	b.LastPosition = b.Position
	b.LastHeading = b.Heading

	if err := s.act(scene, self, brain); err != nil {
		return err
	}
	// a bee turning in its bed has arrived
	if b.Task == components.OrientToSleep || b.Task == components.Sleep {
		return nil
	}

	switch DetectCollision(scene, self, s.cfg.Body.Size) {
	case ObstacleCollision:
		b.Eliminate(components.Collided)
	case BeeCollision:
		b.Revert()
	}

	if s.stalled(b, tick) {
		b.Eliminate(components.Stalled)
	}
	if b.Eliminated {
		return nil
	}

	s.harvest(scene, b)
	s.updateTask(b)
	return nil
}

// act moves the bee according to its task.
func (s *BeeSystem) act(scene Scene, self int, brain Brain) error {
	b := scene.Bees[self]
	home := s.cfg.Home

	switch b.Task {
	case components.CollectNectar:
		s.steerByNetwork(scene, self, brain)
		return nil

	case components.ReturnToHive:
		tx, ty := s.hive.ReturnTarget(b.Position.X, b.Position.Y)
		b.Heading = turnToward(b.Heading, bearing(b.Position.X, b.Position.Y, tx, ty), home.NavigateTurn)

		view := s.vision.Sense(scene, self, b.Heading, b.Position)
		if !s.vision.ClearAhead(view) {
			s.steerByNetworkWith(b, view, brain)
			return nil
		}
		dist := math.Hypot(tx-b.Position.X, ty-b.Position.Y)
		s.advance(b, clampFloat(dist/10, 0, home.MaxReturnSpeed))
		return nil

	case components.ReturnToBed:
		bed, ok := s.hive.NextFreeBed()
		tx, ty := b.Start.X, b.Start.Y
		if ok {
			tx, ty = s.hive.SlotPosition(bed)
		}
		b.Heading = turnToward(b.Heading, bearing(b.Position.X, b.Position.Y, tx, ty), home.NavigateTurn)
		s.advance(b, 1)
		return nil

	case components.OrientToSleep:
		b.Heading = turnToward(b.Heading, home.FacingAngle, home.OrientTurn)
		if math.Abs(shortestTurn(b.Heading, home.FacingAngle)) < 0.5 {
			b.Heading = home.FacingAngle
			b.Task = components.Sleep
		}
		return nil

	default:
		return fmt.Errorf("%w: bee %d has task %v", ErrIllegalTaskTransition, b.Slot, b.Task)
	}
}

// advance moves the bee forward along its heading.
func (s *BeeSystem) advance(b *components.Bee, speed float64) {
	b.Speed = speed
	sin, cos := math.Sincos(radians(b.Heading))
	b.Position.X += cos * speed
	b.Position.Y += sin * speed
	s.afterMove(b)
}

func (s *BeeSystem) afterMove(b *components.Bee) {
	b.Distance += b.Position.Dist(b.LastPosition)
	if !b.LeftHome && s.hive.HasLeftHome(b.Position.X) {
		b.LeftHome = true
	}
}

func (s *BeeSystem) steerByNetwork(scene Scene, self int, brain Brain) {
	b := scene.Bees[self]
	view := s.vision.Sense(scene, self, b.Heading, b.Position)
	s.steerByNetworkWith(b, view, brain)
}

func (s *BeeSystem) steerByNetworkWith(b *components.Bee, view []float64, brain Brain) {
	left, right := WingRates(brain.Forward(view), s.cfg.Actuation)
	ApplyPhysics(b, left, right, s.cfg.Actuation, s.cfg.Derived.DriftFactor)
	s.afterMove(b)
}

// WingRates maps network outputs onto the two wings. Outputs are consumed
// in order by wings with a non-zero amplification; other wings get 0. Rates
// are clamped to [MinRate, MaxRate].
func WingRates(outputs []float64, act config.ActuationConfig) (left, right float64) {
	var rates [2]float64
	k := 0
	for w := 0; w < 2 && w < len(act.Amplification); w++ {
		amp := act.Amplification[w]
		if amp == 0 || k >= len(outputs) {
			continue
		}
		rates[w] = clampFloat(outputs[k]*amp, act.MinRate, act.MaxRate)
		k++
	}
	return rates[0], rates[1]
}

// ApplyPhysics applies differential steering: the heading turns toward the
// slower wing and speed is the mean rate, floored when near zero. With
// lateral drift on, a single positive wing also pushes the bee sideways.
func ApplyPhysics(b *components.Bee, left, right float64, act config.ActuationConfig, drift float64) {
	b.Heading += act.SteeringGain * (right - left)

	speed := (left + right) / 2
	if math.Abs(speed) < act.MinSpeed {
		speed = act.FloorSpeed
	}
	b.Speed = speed
	b.Heading = normalizeHeading(b.Heading)

	rad := radians(b.Heading)
	b.Position.X += math.Cos(rad) * speed
	b.Position.Y += math.Sin(rad) * speed

	if !act.LateralDrift {
		return
	}
	switch {
	case left > 0 && right <= 0:
		rad -= math.Pi / 2
	case left <= 0 && right > 0:
		rad += math.Pi / 2
	default:
		return
	}
	b.Position.X += math.Cos(rad) * speed * drift
	b.Position.Y += math.Sin(rad) * speed * drift
}

// stalled reports whether the bee has stopped making progress. The window
// must be full before anything is judged.
func (s *BeeSystem) stalled(b *components.Bee, tick int) bool {
	if b.Task == components.Sleep {
		return false
	}
	hc := s.cfg.Hive

	b.History.Push(b.Position)
	if !b.History.Full() {
		return false
	}
	if b.History.Displacement() < hc.StallDistance {
		return true
	}
	if b.LeftHome {
		return false
	}
	if b.Start.Dist(b.Position) < hc.LazyDistance {
		return true
	}
	return tick > hc.LeaveHomeBudget+hc.StallWindowPerSlot*b.Slot
}

// harvest collects a flower under the bee while it is collecting.
func (s *BeeSystem) harvest(scene Scene, b *components.Bee) {
	if b.Task != components.CollectNectar || b.Nectar >= s.cfg.Hive.NectarCapacity {
		return
	}
	x, y := int(b.Position.X), int(b.Position.Y)
	if scene.Env.Classify(x, y) != world.Resource {
		return
	}
	b.Nectar++
	scene.Env.RemoveResourceNear(float64(x), float64(y))
	b.Pause = s.cfg.Hive.NectarPause
}

// updateTask applies the task transitions that depend on the bee's own state.
func (s *BeeSystem) updateTask(b *components.Bee) {
	switch b.Task {
	case components.CollectNectar:
		if b.Nectar >= s.cfg.Hive.NectarCapacity {
			b.Task = components.ReturnToHive
		}

	case components.ReturnToHive:
		if s.hive.InsideEntrance(b.Position.X, b.Position.Y) {
			b.Task = components.ReturnToBed
		}

	case components.ReturnToBed:
		bed, ok := s.hive.NextFreeBed()
		if !ok {
			return
		}
		bx, by := s.hive.SlotPosition(bed)
		bedPos := components.Position{X: bx, Y: by}
		if bedPos.Dist(b.Position) >= s.cfg.Home.BedThreshold {
			return
		}
		b.Position = bedPos
		s.hive.ClaimBed()
		if b.Heading == s.cfg.Home.FacingAngle {
			b.Task = components.Sleep
		} else {
			b.Task = components.OrientToSleep
		}
	}
}

// SendHome switches every live collecting bee to ReturnToHive.
func SendHome(bees []*components.Bee) int {
	n := 0
	for _, b := range bees {
		if b == nil || b.Eliminated || b.Task != components.CollectNectar {
			continue
		}
		b.Task = components.ReturnToHive
		n++
	}
	return n
}
