// Package telemetry summarises generations, flags notable ones and writes run output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hive/components"
)

// GenerationStats summarises one finished generation.
type GenerationStats struct {
	Generation int  `csv:"generation"`
	Ticks      int  `csv:"ticks"`
	Budget     int  `csv:"budget"`
	Population int  `csv:"population"`
	Extinct    bool `csv:"extinct"`

	// Fitness distribution
	FitnessBest float64 `csv:"fitness_best"`
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessP10  float64 `csv:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`

	// Foraging
	NectarTotal int     `csv:"nectar_total"`
	NectarBest  int     `csv:"nectar_best"`
	DistanceAvg float64 `csv:"distance_avg"`
	FlowersLeft int     `csv:"flowers_left"`

	// End-of-day outcome counts
	LeftHome  int `csv:"left_home"`
	Returning int `csv:"returning"`
	Asleep    int `csv:"asleep"`
	Collided  int `csv:"collided"`
	Stalled   int `csv:"stalled"`
}

// NewGenerationStats builds the summary for a generation from the bees'
// final state and the fitness assigned to each slot.
func NewGenerationStats(generation, ticks, budget int, fitness []float64, bees []*components.Bee) GenerationStats {
	s := GenerationStats{
		Generation: generation,
		Ticks:      ticks,
		Budget:     budget,
		Population: len(bees),
	}

	s.FitnessMean, s.FitnessStd, s.FitnessP10, s.FitnessP50, s.FitnessP90 = Distribution(fitness)
	for _, f := range fitness {
		if f > s.FitnessBest {
			s.FitnessBest = f
		}
	}

	var distance float64
	for _, b := range bees {
		s.NectarTotal += b.Nectar
		if b.Nectar > s.NectarBest {
			s.NectarBest = b.Nectar
		}
		distance += b.Distance
		if b.LeftHome {
			s.LeftHome++
		}

		switch b.Cause {
		case components.Collided:
			s.Collided++
		case components.Stalled:
			s.Stalled++
		}
		if b.Eliminated {
			continue
		}
		switch b.Task {
		case components.ReturnToHive, components.ReturnToBed, components.OrientToSleep:
			s.Returning++
		case components.Sleep:
			s.Asleep++
		}
	}
	if len(bees) > 0 {
		s.DistanceAvg = distance / float64(len(bees))
	}
	return s
}

// Distribution returns the mean, sample standard deviation and the 10th,
// 50th and 90th empirical percentiles of values. All zero when empty.
func Distribution(values []float64) (mean, std, p10, p50, p90 float64) {
	switch len(values) {
	case 0:
		return 0, 0, 0, 0, 0
	case 1:
		v := values[0]
		return v, 0, v, v, v
	}

	mean, std = stat.MeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, std, p10, p50, p90
}

// LogStats logs the generation summary.
func (s GenerationStats) LogStats() {
	slog.Info("generation",
		"generation", s.Generation,
		"ticks", s.Ticks,
		"budget", s.Budget,
		"extinct", s.Extinct,
		"fitness_best", s.FitnessBest,
		"fitness_mean", s.FitnessMean,
		"nectar", s.NectarTotal,
		"left_home", s.LeftHome,
		"asleep", s.Asleep,
		"collided", s.Collided,
		"stalled", s.Stalled,
	)
}

// LogValue implements slog.LogValuer.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("ticks", s.Ticks),
		slog.Float64("fitness_best", s.FitnessBest),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_p50", s.FitnessP50),
		slog.Int("nectar", s.NectarTotal),
	)
}
