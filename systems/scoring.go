package systems

import (
	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/config"
)

// Score returns the fitness earned by a bee over one day. Nectar dominates
// distance; leaving home and going to bed earn bonuses. A bee that is still
// collecting, has no nectar and never got clear of its start scores 0.
func Score(b *components.Bee, cfg *config.Config) float64 {
	if b.Task == components.CollectNectar && b.Nectar == 0 &&
		b.Start.Dist(b.Position) < cfg.Hive.LazyDistance {
		return 0
	}

	sc := cfg.Scoring
	fitness := b.Distance + float64(b.Nectar)*sc.NectarWeight
	if b.Nectar > 0 || b.LeftHome {
		fitness += sc.LeftHomeBonus
	}
	if b.Task == components.Sleep {
		fitness += sc.SleepBonus
	}
	return fitness
}
