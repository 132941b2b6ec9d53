package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/game"
	"github.com/pthm-cable/hive/telemetry"
)

// FitnessEvaluator runs headless hives and scores parameter vectors.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	configPath  string

	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastNectar     float64 // mean late-run nectar from the most recent Evaluate call
}

// NewFitnessEvaluator creates an evaluator. Every run loads a fresh config
// from configPath so runs never share state.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, configPath string) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		configPath:  configPath,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastNectar returns the late-run nectar mean of the most recent evaluation.
func (fe *FitnessEvaluator) LastNectar() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastNectar
}

type seedResult struct {
	fitness    float64
	nectar     float64
	hallOfFame *telemetry.HallOfFame
	err        error
}

// Evaluate returns the fitness of raw parameter values (lower = better): the
// negated mean best score over the second half of each run, averaged over
// seeds. A run that fails scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	fitness := make([]float64, 0, len(results))
	nectar := make([]float64, 0, len(results))
	best := math.Inf(1)
	var bestHall *telemetry.HallOfFame
	for _, r := range results {
		if r.err != nil {
			slog.Warn("evaluation failed", "error", r.err)
			return math.Inf(1)
		}
		fitness = append(fitness, r.fitness)
		nectar = append(nectar, r.nectar)
		if r.fitness < best {
			best = r.fitness
			bestHall = r.hallOfFame
		}
	}
	avg := stat.Mean(fitness, nil)

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestHallOfFame = bestHall
	}
	fe.lastNectar = stat.Mean(nectar, nil)
	fe.mu.Unlock()

	return avg
}

// runSimulation evolves one hive for the configured number of generations.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) seedResult {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return seedResult{err: err}
	}
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Validate(); err != nil {
		return seedResult{err: err}
	}

	var best, nectar []float64
	g, err := game.NewGameWithOptions(game.Options{
		Config: cfg,
		Seed:   seed,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		StatsCallback: func(s telemetry.GenerationStats) {
			if s.Generation < fe.generations/2 {
				return
			}
			best = append(best, s.FitnessBest)
			nectar = append(nectar, float64(s.NectarTotal))
		},
	})
	if err != nil {
		return seedResult{err: err}
	}
	defer g.Close()

	if err := g.Run(context.Background(), fe.generations); err != nil {
		return seedResult{err: err}
	}
	if len(best) == 0 {
		return seedResult{fitness: 0, hallOfFame: g.HallOfFame()}
	}
	return seedResult{
		fitness:    -stat.Mean(best, nil),
		nectar:     stat.Mean(nectar, nil),
		hallOfFame: g.HallOfFame(),
	}
}
