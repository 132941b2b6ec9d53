package game

import (
	"errors"
	"maps"
	"math"
	"slices"
	"testing"

	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/neural"
)

// tinyGame has networks with two inputs and two outputs and no hidden layer.
func tinyGame(t *testing.T, population int) *Game {
	t.Helper()
	cfg := testConfig(func(c *config.Config) {
		c.Hive.Population = population
		c.Vision.SamplePoints = 2
	})
	return newTestGame(t, cfg, 1)
}

// zeroNetworks replaces every network with an all-zero one.
func zeroNetworks(t *testing.T, g *Game) []*neural.Network {
	t.Helper()
	for i := range g.networks {
		n, err := neural.NewZeroed(g.cfg.Derived.Layers)
		if err != nil {
			t.Fatal(err)
		}
		g.networks[i] = n
	}
	return slices.Clone(g.networks)
}

func TestEvolveSelection(t *testing.T) {
	g := tinyGame(t, 4)
	nets := zeroNetworks(t, g)
	nets[2].SetBias(1, 0, 1)
	nets[2].SetBias(1, 1, 1)
	for i, f := range []float64{0, 0, 500, 0} {
		nets[i].Fitness = f
	}
	ids := make([]string, 4)
	for i, n := range nets {
		ids[i] = n.ID
		g.lifetime.Record(n.ID, 1)
	}
	g.bees[2].Nectar = 3
	winner := nets[2].Parameters()

	extinct, err := g.evolve()
	if err != nil {
		t.Fatal(err)
	}
	if extinct {
		t.Fatal("reported extinction with a scoring network")
	}

	// ranked [net0', net1', net3, net2], then the first triplet swaps ends
	want := []*neural.Network{nets[3], nets[1], nets[0], nets[2]}
	for i := range want {
		if g.networks[i] != want[i] {
			t.Fatalf("slot %d holds the wrong network", i)
		}
	}

	if nets[2].LastFitness != 250 {
		t.Errorf("winner last fitness = %v, want 250", nets[2].LastFitness)
	}
	if !slices.Equal(nets[2].Parameters(), winner) {
		t.Error("winner was modified")
	}
	if !slices.Equal(nets[3].Parameters(), make([]float64, len(winner))) {
		t.Error("unselected network was modified")
	}

	for _, slot := range []int{0, 1} {
		child := nets[slot]
		if child.ID == ids[slot] {
			t.Errorf("net%d kept its identity after mutation", slot)
		}
		params := child.Parameters()
		if slices.Equal(params, winner) {
			t.Errorf("net%d was not mutated", slot)
		}
		for k := range params {
			if math.Abs(params[k]-winner[k]) > g.cfg.Mutation.Magnitude {
				t.Errorf("net%d param %d = %v, too far from %v", slot, k, params[k], winner[k])
			}
		}
	}

	// the winner's total grows, the stood-in and overwritten identities go
	if got, ok := g.lifetime.Get(ids[2]); !ok || got != 4 {
		t.Errorf("winner lifetime total = %d, %v; want 4", got, ok)
	}
	for _, slot := range []int{0, 1, 3} {
		if _, ok := g.lifetime.Get(ids[slot]); ok {
			t.Errorf("net%d still has a lifetime total", slot)
		}
	}
}

func TestEvolveTripletSwap(t *testing.T) {
	g := tinyGame(t, 6)
	nets := zeroNetworks(t, g)
	for i, n := range nets {
		n.Fitness = float64(i + 1)
	}

	if _, err := g.evolve(); err != nil {
		t.Fatal(err)
	}

	// ranked [n0', n1', n2', n3, n4, n5]; swap 0<->2 and 3<->5
	want := []*neural.Network{nets[2], nets[1], nets[0], nets[5], nets[4], nets[3]}
	for i := range want {
		if g.networks[i] != want[i] {
			t.Fatalf("slot %d holds the wrong network", i)
		}
	}
	for _, i := range []int{3, 4, 5} {
		if _, ok := g.lifetime.Get(nets[i].ID); !ok {
			t.Errorf("parent net%d has no lifetime total", i)
		}
	}
}

func TestEvolveRanksBySmoothedFitness(t *testing.T) {
	g := tinyGame(t, 4)
	nets := zeroNetworks(t, g)
	// net0 scored nothing today but has a strong history
	nets[0].LastFitness = 1000
	nets[1].Fitness = 100
	nets[2].Fitness = 200
	nets[3].Fitness = 300

	if _, err := g.evolve(); err != nil {
		t.Fatal(err)
	}
	// smoothed: 500, 50, 100, 150 so net0 ends up last
	if g.networks[3] != nets[0] {
		t.Error("network with the best smoothed fitness is not in the last slot")
	}
	if nets[0].LastFitness != 500 {
		t.Errorf("last fitness = %v, want 500", nets[0].LastFitness)
	}
}

func TestEvolveExtinction(t *testing.T) {
	g := tinyGame(t, 4)
	old := slices.Clone(g.networks)
	oldParams := make([][]float64, len(old))
	for i, n := range old {
		oldParams[i] = n.Parameters()
	}
	g.lifetime.Record(old[0].ID, 5)

	extinct, err := g.evolve()
	if err != nil {
		t.Fatal(err)
	}
	if !extinct {
		t.Fatal("no network scored but evolve did not report extinction")
	}
	if g.lifetime.Count() != 0 {
		t.Errorf("lifetime totals survived extinction: %v", g.lifetime.All())
	}
	for i, n := range g.networks {
		if slices.Contains(old, n) {
			t.Errorf("slot %d kept a network from before the extinction", i)
		}
		if n.Fitness != 0 || n.LastFitness != 0 {
			t.Errorf("slot %d has fitness %v/%v", i, n.Fitness, n.LastFitness)
		}
		for j := range oldParams {
			if slices.Equal(n.Parameters(), oldParams[j]) {
				t.Errorf("slot %d carries the parameters of old slot %d", i, j)
			}
		}
	}
}

func TestEvolveRejectsBadMutation(t *testing.T) {
	for _, mc := range []config.MutationConfig{
		{Percent: 0, Magnitude: 0.5},
		{Percent: 120, Magnitude: 0.5},
		{Percent: 30, Magnitude: 0},
	} {
		g := tinyGame(t, 4)
		nets := slices.Clone(g.networks)
		params := make([][]float64, len(nets))
		for i, n := range nets {
			n.Fitness = float64(i + 1)
			g.lifetime.Record(n.ID, 2)
			params[i] = n.Parameters()
		}
		totals := g.lifetime.All()
		g.cfg.Mutation = mc

		if _, err := g.evolve(); !errors.Is(err, neural.ErrInvalidArgument) {
			t.Errorf("%+v: got %v, want ErrInvalidArgument", mc, err)
		}
		for i, n := range g.networks {
			if n != nets[i] || !slices.Equal(n.Parameters(), params[i]) {
				t.Errorf("%+v: slot %d changed", mc, i)
			}
		}
		if !maps.Equal(g.lifetime.All(), totals) {
			t.Errorf("%+v: lifetime totals changed to %v", mc, g.lifetime.All())
		}
	}
}

func TestExtinctionKeepsBudget(t *testing.T) {
	g := tinyGame(t, 4)
	budget := g.Budget()
	// nobody leaves the hive before the day is cut short, so nobody scores
	if err := g.EndGeneration(); err != nil {
		t.Fatal(err)
	}
	if !g.LastStats().Extinct {
		t.Fatal("expected extinction")
	}
	if g.Budget() != budget {
		t.Errorf("budget = %d after extinction, want %d", g.Budget(), budget)
	}
}

func TestBudgetGrowthIsCapped(t *testing.T) {
	g := tinyGame(t, 4)
	g.budget = g.cfg.Hive.DayLength - 10
	for _, n := range g.networks {
		n.LastFitness = 1
	}
	if err := g.EndGeneration(); err != nil {
		t.Fatal(err)
	}
	if g.Budget() != g.cfg.Hive.DayLength {
		t.Errorf("budget = %d, want %d", g.Budget(), g.cfg.Hive.DayLength)
	}
}
