package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/world"
)

// fixedBrain always returns the same outputs.
type fixedBrain []float64

func (f fixedBrain) Forward([]float64) []float64 { return f }

func newTestSystem(cfg *config.Config, population int) (*BeeSystem, *world.Hive) {
	vision, _ := NewVision(cfg)
	hive := world.NewHive(cfg.Home, population)
	return NewBeeSystem(cfg, vision, hive), hive
}

func TestWingRates(t *testing.T) {
	act := testConfig(nil).Actuation

	tests := []struct {
		name        string
		amp         []float64
		outputs     []float64
		left, right float64
	}{
		{"amplified", []float64{2, 2}, []float64{0.5, 0.25}, 1, 0.5},
		{"clamped high", []float64{2, 2}, []float64{1, 0.9}, 1.5, 1.5},
		{"clamped low", []float64{2, 2}, []float64{-0.5, 0}, -0.1, 0},
		{"left wing off", []float64{0, 2}, []float64{0.6}, 0, 1.2},
		{"right wing off", []float64{2, 0}, []float64{0.3}, 0.6, 0},
	}
	for _, tt := range tests {
		act.Amplification = tt.amp
		l, r := WingRates(tt.outputs, act)
		if !approx(l, tt.left) || !approx(r, tt.right) {
			t.Errorf("%s: got (%v,%v), want (%v,%v)", tt.name, l, r, tt.left, tt.right)
		}
	}
}

func TestApplyPhysics(t *testing.T) {
	act := testConfig(nil).Actuation
	act.LateralDrift = false

	tests := []struct {
		name        string
		heading     float64
		left, right float64
		wantHeading float64
		wantSpeed   float64
	}{
		{"straight", 0, 1, 1, 0, 1},
		{"slow floors", 0, 0, 0, 0, 0.7},
		{"turn right", 0, 0.5, 1.5, 7.5, 1},
		{"wrap past 360", 355, 0, 2, 10, 1},
		{"wrap below 0", 5, 1, 0, 357.5, 0.5},
	}
	for _, tt := range tests {
		bee := components.NewBee(0, 100, 100, tt.heading, 30)
		ApplyPhysics(bee, tt.left, tt.right, act, 5)
		if !approx(bee.Heading, tt.wantHeading) {
			t.Errorf("%s: heading = %v, want %v", tt.name, bee.Heading, tt.wantHeading)
		}
		if !approx(bee.Speed, tt.wantSpeed) {
			t.Errorf("%s: speed = %v, want %v", tt.name, bee.Speed, tt.wantSpeed)
		}
		moved := bee.Position.Dist(bee.Start)
		if !approx(moved, math.Abs(tt.wantSpeed)) {
			t.Errorf("%s: moved %v, want %v", tt.name, moved, tt.wantSpeed)
		}
	}
}

func TestApplyPhysicsDrift(t *testing.T) {
	act := testConfig(nil).Actuation

	plain := components.NewBee(0, 100, 100, 0, 30)
	act.LateralDrift = false
	ApplyPhysics(plain, 1.5, -0.1, act, 5)

	drifting := components.NewBee(0, 100, 100, 0, 30)
	act.LateralDrift = true
	ApplyPhysics(drifting, 1.5, -0.1, act, 5)

	if drifting.Heading != plain.Heading {
		t.Fatal("drift changed heading")
	}
	if got, want := drifting.Position.Dist(plain.Position), 0.7*5; !approx(got, want) {
		t.Errorf("drift displacement = %v, want %v", got, want)
	}

	// both wings positive: no drift
	a := components.NewBee(0, 100, 100, 0, 30)
	b := components.NewBee(0, 100, 100, 0, 30)
	act.LateralDrift = false
	ApplyPhysics(a, 1, 0.5, act, 5)
	act.LateralDrift = true
	ApplyPhysics(b, 1, 0.5, act, 5)
	if a.Position != b.Position {
		t.Error("drift applied with both wings positive")
	}
}

func TestStepBeeMovesAndHarvests(t *testing.T) {
	cfg := testConfig(func(c *config.Config) { c.Actuation.LateralDrift = false })
	sys, _ := newTestSystem(cfg, 2)

	env := world.NewPlayground(300, 300)
	env.AddFlower(203, 150, 1)

	bee := components.NewBee(0, 200, 150, 0, 30)
	scene := Scene{Env: env, Bees: []*components.Bee{bee}}
	brain := fixedBrain{0.5, 0.5}

	if err := sys.StepBee(scene, 0, brain, 1); err != nil {
		t.Fatal(err)
	}
	if !approx(bee.Position.X, 201) || !approx(bee.Distance, 1) {
		t.Fatalf("after one step: x=%v distance=%v", bee.Position.X, bee.Distance)
	}
	if bee.Nectar != 0 {
		t.Fatal("harvested too early")
	}
	if !bee.LeftHome {
		t.Error("x > 110 should mark the bee as having left home")
	}

	if err := sys.StepBee(scene, 0, brain, 2); err != nil {
		t.Fatal(err)
	}
	if bee.Nectar != 1 {
		t.Fatalf("nectar = %d, want 1", bee.Nectar)
	}
	if bee.Pause != cfg.Hive.NectarPause {
		t.Errorf("pause = %d, want %d", bee.Pause, cfg.Hive.NectarPause)
	}
	if env.HasResourceRemaining() {
		t.Error("flower not removed")
	}

	// pausing bees stay put
	pos := bee.Position
	if err := sys.StepBee(scene, 0, brain, 3); err != nil {
		t.Fatal(err)
	}
	if bee.Position != pos || bee.Pause != cfg.Hive.NectarPause-1 {
		t.Errorf("pausing bee moved or pause not decremented: %+v pause %d", bee.Position, bee.Pause)
	}
}

func TestStepBeeFullPouchReturns(t *testing.T) {
	cfg := testConfig(func(c *config.Config) { c.Actuation.LateralDrift = false })
	sys, _ := newTestSystem(cfg, 2)

	env := world.NewPlayground(300, 300)
	env.AddFlower(201, 150, 1)

	bee := components.NewBee(0, 200, 150, 0, 30)
	bee.Nectar = cfg.Hive.NectarCapacity - 1
	scene := Scene{Env: env, Bees: []*components.Bee{bee}}

	if err := sys.StepBee(scene, 0, fixedBrain{0.5, 0.5}, 1); err != nil {
		t.Fatal(err)
	}
	if bee.Nectar != cfg.Hive.NectarCapacity || bee.Task != components.ReturnToHive {
		t.Errorf("nectar=%d task=%v, want full and ReturnToHive", bee.Nectar, bee.Task)
	}
}

func TestStepBeeCollidesWithWall(t *testing.T) {
	cfg := testConfig(func(c *config.Config) { c.Actuation.LateralDrift = false })
	sys, _ := newTestSystem(cfg, 2)

	env := world.NewPlayground(300, 300)
	env.FillRect(210, 0, 220, 300, world.Wall)

	bee := components.NewBee(0, 200, 150, 0, 30)
	scene := Scene{Env: env, Bees: []*components.Bee{bee}}

	if err := sys.StepBee(scene, 0, fixedBrain{0.5, 0.5}, 1); err != nil {
		t.Fatal(err)
	}
	if !bee.Eliminated || bee.Cause != components.Collided {
		t.Errorf("eliminated=%v cause=%v, want Collided", bee.Eliminated, bee.Cause)
	}

	// eliminated bees never move again
	pos := bee.Position
	_ = sys.StepBee(scene, 0, fixedBrain{0.5, 0.5}, 2)
	if bee.Position != pos {
		t.Error("eliminated bee moved")
	}
}

func TestStepBeeBumpReverts(t *testing.T) {
	cfg := testConfig(func(c *config.Config) { c.Actuation.LateralDrift = false })
	sys, _ := newTestSystem(cfg, 2)

	self := components.NewBee(0, 200, 150, 0, 30)
	other := components.NewBee(1, 219, 150, 0, 30)
	scene := Scene{Env: world.NewPlayground(300, 300), Bees: []*components.Bee{self, other}}

	if err := sys.StepBee(scene, 0, fixedBrain{0.5, 0.5}, 1); err != nil {
		t.Fatal(err)
	}
	if self.Eliminated {
		t.Fatal("bee contact must not eliminate")
	}
	if self.Position != self.Start || self.Heading != 0 {
		t.Errorf("bump did not revert: %+v heading %v", self.Position, self.Heading)
	}
}

func TestStepBeeStalls(t *testing.T) {
	cfg := testConfig(func(c *config.Config) { c.Actuation.LateralDrift = false })

	tests := []struct {
		name  string
		x     float64
		brain fixedBrain
		tick  int
		want  bool
	}{
		// tight circles far from home
		{"circling", 400, fixedBrain{0.75, -0.05}, 1, true},
		// straight line but never 40px from start inside the hive zone
		{"lazy", 20, fixedBrain{0.5, 0.5}, 1, true},
		// fast enough to escape the lazy rule
		{"leaving", 20, fixedBrain{0.75, 0.75}, 1, false},
		// same flight, but past the leave-home budget
		{"too late", 20, fixedBrain{0.75, 0.75}, 600, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, _ := newTestSystem(cfg, 2)
			bee := components.NewBee(0, tt.x, 150, 0, 30)
			scene := Scene{Env: world.NewPlayground(900, 300), Bees: []*components.Bee{bee}}

			for i := 0; i < 30; i++ {
				if err := sys.StepBee(scene, 0, tt.brain, tt.tick+i); err != nil {
					t.Fatal(err)
				}
			}
			stalled := bee.Eliminated && bee.Cause == components.Stalled
			if stalled != tt.want {
				t.Errorf("stalled = %v (eliminated=%v cause=%v), want %v", stalled, bee.Eliminated, bee.Cause, tt.want)
			}
		})
	}
}

func TestReturnToHiveFliesHome(t *testing.T) {
	cfg := testConfig(nil)
	sys, _ := newTestSystem(cfg, 2)

	bee := components.NewBee(0, 400, 260, 180, 30)
	bee.Task = components.ReturnToHive
	scene := Scene{Env: world.NewPlayground(900, 550), Bees: []*components.Bee{bee}}

	if err := sys.StepBee(scene, 0, fixedBrain{0.5, 0.5}, 1); err != nil {
		t.Fatal(err)
	}
	if !approx(bee.Position.X, 400-cfg.Home.MaxReturnSpeed) {
		t.Errorf("x = %v, want %v", bee.Position.X, 400-cfg.Home.MaxReturnSpeed)
	}
	if bee.Heading != 180 {
		t.Errorf("heading = %v, want 180", bee.Heading)
	}
}

func TestReturnToHiveBlockedUsesNetwork(t *testing.T) {
	cfg := testConfig(func(c *config.Config) { c.Actuation.LateralDrift = false })
	sys, _ := newTestSystem(cfg, 2)

	env := world.NewPlayground(900, 550)
	env.FillRect(370, 200, 375, 320, world.Wall)

	bee := components.NewBee(0, 400, 260, 180, 30)
	bee.Task = components.ReturnToHive
	scene := Scene{Env: env, Bees: []*components.Bee{bee}}

	if err := sys.StepBee(scene, 0, fixedBrain{0.5, 0.5}, 1); err != nil {
		t.Fatal(err)
	}
	if !approx(bee.Position.X, 399) {
		t.Errorf("x = %v, want 399 from network steering", bee.Position.X)
	}
}

func TestReturnToHiveStereo(t *testing.T) {
	cfg := testConfig(func(c *config.Config) {
		c.Vision.Strategy = config.VisionStereo
		c.Actuation.LateralDrift = false
	})

	t.Run("wall ahead", func(t *testing.T) {
		sys, _ := newTestSystem(cfg, 2)
		env := world.NewPlayground(900, 550)
		env.FillRect(370, 200, 375, 320, world.Wall)

		bee := components.NewBee(0, 400, 260, 180, 30)
		bee.Task = components.ReturnToHive
		scene := Scene{Env: env, Bees: []*components.Bee{bee}}

		if err := sys.StepBee(scene, 0, fixedBrain{0.5, 0.5}, 1); err != nil {
			t.Fatal(err)
		}
		if !approx(bee.Position.X, 399) {
			t.Errorf("x = %v, want 399 from network steering", bee.Position.X)
		}
	})

	t.Run("open field", func(t *testing.T) {
		sys, _ := newTestSystem(cfg, 2)
		bee := components.NewBee(0, 400, 260, 180, 30)
		bee.Task = components.ReturnToHive
		scene := Scene{Env: world.NewPlayground(900, 550), Bees: []*components.Bee{bee}}

		if err := sys.StepBee(scene, 0, fixedBrain{0.5, 0.5}, 1); err != nil {
			t.Fatal(err)
		}
		if !approx(bee.Position.X, 400-cfg.Home.MaxReturnSpeed) {
			t.Errorf("x = %v, want %v", bee.Position.X, 400-cfg.Home.MaxReturnSpeed)
		}
	})
}

func TestReturnToHiveEntersBedPhase(t *testing.T) {
	cfg := testConfig(nil)
	sys, _ := newTestSystem(cfg, 2)

	bee := components.NewBee(0, 60, 300, 0, 30)
	bee.Task = components.ReturnToHive
	scene := Scene{Env: world.NewPlayground(900, 550), Bees: []*components.Bee{bee}}

	if err := sys.StepBee(scene, 0, fixedBrain{0.5, 0.5}, 1); err != nil {
		t.Fatal(err)
	}
	if bee.Task != components.ReturnToBed {
		t.Errorf("task = %v, want ReturnToBed", bee.Task)
	}
}

func TestReturnToBedAndSleep(t *testing.T) {
	cfg := testConfig(nil)

	t.Run("already facing home", func(t *testing.T) {
		sys, hive := newTestSystem(cfg, 4)
		bx, by := hive.SlotPosition(3)

		bee := components.NewBee(0, bx, by+5, 270, 30)
		bee.Task = components.ReturnToBed
		scene := Scene{Env: world.NewPlayground(900, 550), Bees: []*components.Bee{bee}}

		if err := sys.StepBee(scene, 0, fixedBrain{0, 0}, 1); err != nil {
			t.Fatal(err)
		}
		if bee.Task != components.Sleep {
			t.Fatalf("task = %v, want Sleep", bee.Task)
		}
		if bee.Position != (components.Position{X: bx, Y: by}) {
			t.Errorf("not snapped to bed: %+v", bee.Position)
		}
		if !hive.Claimed(3) {
			t.Error("bed 3 not claimed")
		}
		if next, _ := hive.NextFreeBed(); next != 2 {
			t.Errorf("next free bed = %d, want 2", next)
		}
	})

	t.Run("orients first", func(t *testing.T) {
		sys, hive := newTestSystem(cfg, 4)
		bx, by := hive.SlotPosition(3)

		bee := components.NewBee(0, bx, by+5, 0, 30)
		bee.Task = components.ReturnToBed
		scene := Scene{Env: world.NewPlayground(900, 550), Bees: []*components.Bee{bee}}

		if err := sys.StepBee(scene, 0, fixedBrain{0, 0}, 1); err != nil {
			t.Fatal(err)
		}
		if bee.Task != components.OrientToSleep {
			t.Fatalf("task = %v, want OrientToSleep", bee.Task)
		}

		for i := 0; i < 20 && bee.Task != components.Sleep; i++ {
			prev := bee.Heading
			if err := sys.StepBee(scene, 0, fixedBrain{0, 0}, 2+i); err != nil {
				t.Fatal(err)
			}
			if turn := math.Abs(shortestTurn(prev, bee.Heading)); turn > cfg.Home.OrientTurn+1e-9 {
				t.Fatalf("turned %v degrees in one tick", turn)
			}
		}
		if bee.Task != components.Sleep || bee.Heading != cfg.Home.FacingAngle {
			t.Errorf("task=%v heading=%v, want Sleep at %v", bee.Task, bee.Heading, cfg.Home.FacingAngle)
		}
		if bee.Eliminated {
			t.Error("bee eliminated while settling into bed")
		}
	})
}

func TestStepBeeIllegalTask(t *testing.T) {
	cfg := testConfig(nil)
	sys, _ := newTestSystem(cfg, 2)

	bee := components.NewBee(0, 200, 150, 0, 30)
	bee.Task = components.Task(42)
	scene := Scene{Env: world.NewPlayground(300, 300), Bees: []*components.Bee{bee}}

	err := sys.StepBee(scene, 0, fixedBrain{0, 0}, 1)
	if !errors.Is(err, ErrIllegalTaskTransition) {
		t.Errorf("error = %v, want ErrIllegalTaskTransition", err)
	}
}

func TestSendHome(t *testing.T) {
	collecting := components.NewBee(0, 0, 0, 0, 30)
	asleep := components.NewBee(1, 0, 0, 0, 30)
	asleep.Task = components.Sleep
	dead := components.NewBee(2, 0, 0, 0, 30)
	dead.Eliminate(components.Collided)

	if n := SendHome([]*components.Bee{collecting, asleep, dead}); n != 1 {
		t.Errorf("sent %d bees home, want 1", n)
	}
	if collecting.Task != components.ReturnToHive || asleep.Task != components.Sleep || dead.Task != components.CollectNectar {
		t.Error("wrong bees sent home")
	}
}

func TestTurnToward(t *testing.T) {
	tests := []struct {
		heading, target, max, want float64
	}{
		{0, 90, 30, 30},
		{0, 270, 30, 330},
		{350, 10, 30, 10},
		{10, 350, 5, 5},
		{180, 190, 30, 190},
	}
	for _, tt := range tests {
		if got := turnToward(tt.heading, tt.target, tt.max); !approx(got, tt.want) {
			t.Errorf("turnToward(%v,%v,%v) = %v, want %v", tt.heading, tt.target, tt.max, got, tt.want)
		}
	}
}
