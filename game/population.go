package game

import (
	"fmt"
	"slices"

	"github.com/pthm-cable/hive/neural"
)

// seedNetworks replaces every network with a fresh random one.
func (g *Game) seedNetworks() error {
	layers := g.cfg.Derived.Layers
	g.networks = make([]*neural.Network, g.cfg.Hive.Population)
	for i := range g.networks {
		n, err := neural.New(layers, g.rng)
		if err != nil {
			return fmt.Errorf("seeding slot %d: %w", i, err)
		}
		g.networks[i] = n
	}
	return nil
}

// evolve runs selection on the scored networks. The bottom half is
// overwritten with mutated copies of the top half, slots are re-ranked with
// the best network last, and within every triplet of slots the first and
// last trade places. When no network has ever earned fitness the whole
// population is reseeded instead, and evolve reports extinction.
func (g *Game) evolve() (extinct bool, err error) {
	mc := g.cfg.Mutation
	if mc.Percent <= 0 || mc.Percent > 100 || mc.Magnitude <= 0 {
		return false, fmt.Errorf("evolve: mutation percent %v magnitude %v: %w",
			mc.Percent, mc.Magnitude, neural.ErrInvalidArgument)
	}
	if !g.anyFitness() {
		g.logger.Info("extinction, reseeding population", "generation", g.generation)
		g.lifetime.Reset()
		return true, g.seedNetworks()
	}

	n := len(g.networks)
	half := n / 2

	// rank holds slot indices ordered by smoothed fitness, worst first
	rank := make([]int, n)
	for i := range rank {
		rank[i] = i
	}
	slices.SortStableFunc(rank, func(a, b int) int {
		sa, sb := smoothed(g.networks[a]), smoothed(g.networks[b])
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	})

	for i := 0; i < half; i++ {
		srcSlot := rank[i+half]
		src := g.networks[srcSlot]
		if src.Fitness <= 0 {
			// it earned nothing, so the best stands in for it
			g.lifetime.Remove(src.ID)
			srcSlot = rank[n-1]
			src = g.networks[srcSlot]
		} else {
			g.lifetime.Record(src.ID, g.bees[srcSlot].Nectar)
		}

		dst := g.networks[rank[i]]
		if err := neural.CopyParameters(src, dst); err != nil {
			return false, err
		}
		g.lifetime.Remove(dst.ID)
		if err := dst.Mutate(g.rng, mc.Percent, mc.Magnitude); err != nil {
			return false, err
		}
	}

	ranked := make([]*neural.Network, n)
	for i, slot := range rank {
		net := g.networks[slot]
		net.LastFitness = (net.LastFitness + net.Fitness) / 2
		ranked[i] = net
	}
	for i := 0; i+2 < n; i += 3 {
		ranked[i], ranked[i+2] = ranked[i+2], ranked[i]
	}
	g.networks = ranked
	return false, nil
}

// anyFitness reports whether some network earned fitness today or before.
func (g *Game) anyFitness() bool {
	for _, n := range g.networks {
		if n.Fitness > 0 || n.LastFitness > 0 {
			return true
		}
	}
	return false
}

func smoothed(n *neural.Network) float64 {
	return (n.Fitness + n.LastFitness) / 2
}
