package game

import (
	"context"
	"fmt"
	"math/rand"
	"slices"

	"github.com/pthm-cable/hive/neural"
	"github.com/pthm-cable/hive/snapshot"
)

// Checkpoint writes the population, lineage totals and day budget to path.
// The current day is not saved: a restored game starts a fresh day.
func (g *Game) Checkpoint(path string) error {
	snap := snapshot.Snapshot{
		Header: snapshot.Header{
			RunID:      g.runID,
			Generation: g.generation,
		},
		Seed:           g.seed,
		Budget:         g.budget,
		Strategy:       g.cfg.Vision.Strategy,
		Networks:       make([]snapshot.NetworkState, len(g.networks)),
		LifetimeTotals: g.lifetime.All(),
	}
	for i, n := range g.networks {
		snap.Networks[i] = snapshot.NetworkState{
			ID:          n.ID,
			Layers:      n.Layers(),
			Params:      n.Parameters(),
			Fitness:     n.Fitness,
			LastFitness: n.LastFitness,
		}
	}
	return snapshot.Write(path, snap)
}

// Restore replaces the population with the checkpoint at path and starts a
// fresh day. The checkpoint must match this game's population size and
// network topology; on any mismatch nothing is changed.
func (g *Game) Restore(path string) error {
	snap, err := snapshot.Read(path)
	if err != nil {
		return fmt.Errorf("restoring %s: %w", path, err)
	}
	if len(snap.Networks) != len(g.networks) {
		return fmt.Errorf("restoring %s: checkpoint has %d networks, population is %d",
			path, len(snap.Networks), len(g.networks))
	}
	if snap.Strategy != g.cfg.Vision.Strategy {
		return fmt.Errorf("restoring %s: checkpoint uses %s vision, config uses %s",
			path, snap.Strategy, g.cfg.Vision.Strategy)
	}

	networks := make([]*neural.Network, len(snap.Networks))
	for i, ns := range snap.Networks {
		if !slices.Equal(ns.Layers, g.cfg.Derived.Layers) {
			return fmt.Errorf("restoring %s: slot %d: %w: %v, want %v",
				path, i, neural.ErrTopologyMismatch, ns.Layers, g.cfg.Derived.Layers)
		}
		n, err := neural.NewZeroed(ns.Layers)
		if err != nil {
			return err
		}
		if err := n.SetParameters(ns.Params); err != nil {
			return fmt.Errorf("restoring %s: slot %d: %w", path, i, err)
		}
		n.ID = ns.ID
		n.Fitness = ns.Fitness
		n.LastFitness = ns.LastFitness
		networks[i] = n
	}

	g.networks = networks
	g.lifetime.Replace(snap.LifetimeTotals)
	g.generation = snap.Header.Generation
	g.budget = snap.Budget
	// the stream is not resumable, so derive a new one from the run seed
	g.rng = rand.New(rand.NewSource(snap.Seed + int64(snap.Header.Generation)))
	g.startDay()

	g.logger.Info("checkpoint restored", "path", path, "generation", g.generation)
	return nil
}

// StoredHistory reports how many generations the store holds for this run
// and how many lineages have stored totals. Both are zero without a store.
func (g *Game) StoredHistory(ctx context.Context) (generations, lineages int, err error) {
	if g.store == nil {
		return 0, 0, nil
	}
	recs, err := g.store.ListGenerations(ctx, g.runID)
	if err != nil {
		return 0, 0, fmt.Errorf("listing generations of %s: %w", g.runID, err)
	}
	totals, _, err := g.store.GetLineageTotals(ctx, g.runID)
	if err != nil {
		return len(recs), 0, fmt.Errorf("reading lineage totals of %s: %w", g.runID, err)
	}
	return len(recs), len(totals), nil
}
