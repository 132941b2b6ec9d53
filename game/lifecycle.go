package game

import (
	"context"
	"fmt"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/storage"
	"github.com/pthm-cable/hive/systems"
	"github.com/pthm-cable/hive/telemetry"
)

// startDay builds a fresh playground and puts every bee back in its start
// slot facing out of the hive.
func (g *Game) startDay() {
	hc := g.cfg.Hive

	g.env = g.envFactory(g.cfg, g.rng)
	g.hive.Reset()

	g.bees = make([]*components.Bee, len(g.networks))
	for i := range g.bees {
		x, y := g.hive.SlotPosition(i)
		window := hc.StallWindowBase + hc.StallWindowPerSlot*i
		g.bees[i] = components.NewBee(i, x, y, g.cfg.Home.FacingAngle, window)
	}
	g.tick = 0
	g.moves = 0
}

// Tick advances the day by one tick. It reports whether the tick ended the
// generation, in which case the networks have already been evolved and the
// next day started.
func (g *Game) Tick() (bool, error) {
	hc := g.cfg.Hive
	g.perf.StartTick()
	defer g.perf.EndTick()

	// nobody moves at dawn
	if g.tick < hc.DawnTicks {
		g.tick++
		return false, nil
	}
	g.tick++

	g.perf.StartPhase(telemetry.PhaseLifecycle)
	if g.budget >= hc.HomeTimeMinDay && g.budget-g.moves == hc.ReturnHomeMoves {
		n := systems.SendHome(g.bees)
		g.logger.Debug("end of day, sending bees home", "generation", g.generation, "bees", n)
	}

	g.perf.StartPhase(telemetry.PhaseSense)
	scene := systems.Scene{Env: g.env, Bees: g.bees}
	for i := range g.bees {
		if err := g.system.StepBee(scene, i, g.networks[i], g.moves); err != nil {
			return false, fmt.Errorf("generation %d move %d: %w", g.generation, g.moves, err)
		}
	}
	g.moves++

	g.perf.StartPhase(telemetry.PhaseLifecycle)
	if !g.dayOver() {
		return false, nil
	}
	g.perf.StartPhase(telemetry.PhaseEvolve)
	return true, g.EndGeneration()
}

// dayOver reports whether the budget is spent, the flowers are gone or no
// bee is still active.
func (g *Game) dayOver() bool {
	if g.moves >= g.budget || !g.env.HasResourceRemaining() {
		return true
	}
	for _, b := range g.bees {
		if b.Active() {
			return false
		}
	}
	return true
}

// EndGeneration scores the day, evolves the networks and starts the next
// day. It can be called at any time to cut the current day short.
func (g *Game) EndGeneration() error {
	hc := g.cfg.Hive

	fitness := make([]float64, len(g.bees))
	for i, b := range g.bees {
		fitness[i] = systems.Score(b, g.cfg)
		g.networks[i].Fitness = fitness[i]
	}

	stats := telemetry.NewGenerationStats(g.generation, g.moves, g.budget, fitness, g.bees)
	if counter, ok := g.env.(interface{ ResourceCount() int }); ok {
		stats.FlowersLeft = counter.ResourceCount()
	}

	// the best network is recorded before selection reorders the slots
	best := 0
	for i := range fitness {
		if fitness[i] > fitness[best] {
			best = i
		}
	}
	g.hallOfFame.Consider(g.networks[best], g.generation, g.bees[best].Nectar)
	rec := storage.GenerationRecord{
		Generation:  g.generation,
		Ticks:       g.moves,
		Budget:      g.budget,
		BestFitness: stats.FitnessBest,
		MeanFitness: stats.FitnessMean,
		Nectar:      stats.NectarTotal,
		BestID:      g.networks[best].ID,
		BestLayers:  g.networks[best].Layers(),
		BestParams:  g.networks[best].Parameters(),
	}

	extinct, err := g.evolve()
	if err != nil {
		return fmt.Errorf("evolving generation %d: %w", g.generation, err)
	}
	stats.Extinct = extinct
	rec.Extinct = extinct
	if !extinct {
		g.budget = min(g.budget+hc.GenerationGrowth, hc.DayLength)
	}

	g.lastStats = stats
	g.flushTelemetry(stats, rec)

	g.generation++
	g.checkpointIfDue()
	g.startDay()
	return nil
}

// RunGeneration ticks until the current generation ends.
func (g *Game) RunGeneration() error {
	for {
		ended, err := g.Tick()
		if err != nil || ended {
			return err
		}
	}
}

// Run ticks until maxGenerations more generations have completed, or until
// ctx is cancelled when maxGenerations is 0.
func (g *Game) Run(ctx context.Context, maxGenerations int) error {
	start := g.generation
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ended, err := g.Tick()
		if err != nil {
			return err
		}
		if ended && maxGenerations > 0 && g.generation-start >= maxGenerations {
			return nil
		}
	}
}
