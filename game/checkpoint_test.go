package game

import (
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/neural"
	"github.com/pthm-cable/hive/snapshot"
	"github.com/pthm-cable/hive/storage"
)

func TestCheckpointRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hive.snap")

	src := newTestGame(t, testConfig(nil), 4)
	if err := src.Run(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	src.lifetime.Record(src.Networks()[3].ID, 7)
	if err := src.Checkpoint(path); err != nil {
		t.Fatal(err)
	}

	hdr, err := snapshot.ReadHeader(path)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Generation != 2 || hdr.Population != 4 || hdr.RunID != "seed-4" {
		t.Errorf("header = %+v", hdr)
	}

	dst := newTestGame(t, testConfig(nil), 99)
	if err := dst.Restore(path); err != nil {
		t.Fatal(err)
	}
	if dst.Generation() != 2 || dst.Budget() != src.Budget() {
		t.Errorf("generation %d budget %d, want 2 %d", dst.Generation(), dst.Budget(), src.Budget())
	}
	for i, n := range dst.Networks() {
		want := src.Networks()[i]
		if n.ID != want.ID || n.LastFitness != want.LastFitness {
			t.Errorf("slot %d: got %s/%v, want %s/%v", i, n.ID, n.LastFitness, want.ID, want.LastFitness)
		}
		if !slices.Equal(n.Parameters(), want.Parameters()) {
			t.Errorf("slot %d parameters differ", i)
		}
	}
	if !maps.Equal(dst.LifetimeTotals(), src.LifetimeTotals()) {
		t.Errorf("lifetime totals = %v, want %v", dst.LifetimeTotals(), src.LifetimeTotals())
	}
	if dst.Moves() != 0 || len(dst.Bees()) != 4 {
		t.Error("restore did not start a fresh day")
	}

	// two restores of the same checkpoint evolve identically
	again := newTestGame(t, testConfig(nil), 123)
	if err := again.Restore(path); err != nil {
		t.Fatal(err)
	}
	for _, g := range []*Game{dst, again} {
		if err := g.RunGeneration(); err != nil {
			t.Fatal(err)
		}
	}
	if dst.LastStats() != again.LastStats() {
		t.Error("restored games diverged")
	}
}

func TestRestoreRejectsMismatch(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.snap")
	src := newTestGame(t, testConfig(nil), 1)
	if err := src.Checkpoint(small); err != nil {
		t.Fatal(err)
	}

	bigger := newTestGame(t, testConfig(func(c *config.Config) { c.Hive.Population = 6 }), 1)
	if err := bigger.Restore(small); err == nil {
		t.Error("restored a checkpoint with the wrong population")
	}

	wider := newTestGame(t, testConfig(func(c *config.Config) { c.Vision.SamplePoints = 9 }), 1)
	before := wider.Networks()
	err := wider.Restore(small)
	if !errors.Is(err, neural.ErrTopologyMismatch) {
		t.Errorf("got %v, want ErrTopologyMismatch", err)
	}
	if wider.Networks()[0] != before[0] {
		t.Error("failed restore replaced the population")
	}

	if err := src.Restore(filepath.Join(dir, "missing.snap")); err == nil {
		t.Error("restored a missing checkpoint")
	}
}

func TestPeriodicCheckpoints(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGameWithOptions(Options{
		Config:        testConfig(nil),
		Logger:        quietLogger,
		EnvFactory:    openField,
		SnapshotDir:   dir,
		SnapshotEvery: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	if err := g.Run(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.snap"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "generation_000002.snap" {
		t.Errorf("checkpoints = %v", files)
	}
}

func TestRunOutput(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	g, err := NewGameWithOptions(Options{
		Config:     testConfig(nil),
		Seed:       8,
		Logger:     quietLogger,
		EnvFactory: openField,
		OutputDir:  dir,
		Store:      store,
		RunID:      "test-run",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Run(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"config.yaml", "generations.csv", "perf.csv", "hall_of_fame.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	recs, err := store.ListGenerations(context.Background(), "test-run")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Generation != 0 || recs[1].Generation != 1 {
		t.Fatalf("stored generations = %+v", recs)
	}
	if len(recs[0].BestParams) != g.Networks()[0].ParameterCount() {
		t.Errorf("best params has %d values", len(recs[0].BestParams))
	}
	if _, ok, err := store.GetLineageTotals(context.Background(), "test-run"); err != nil || !ok {
		t.Errorf("lineage totals: ok=%v err=%v", ok, err)
	}

	gens, lineages, err := g.StoredHistory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if gens != 2 || lineages != len(g.LifetimeTotals()) {
		t.Errorf("stored history = %d generations %d lineages, want 2 %d",
			gens, lineages, len(g.LifetimeTotals()))
	}
}

func TestStoredHistoryWithoutStore(t *testing.T) {
	g := newTestGame(t, testConfig(nil), 1)
	gens, lineages, err := g.StoredHistory(context.Background())
	if err != nil || gens != 0 || lineages != 0 {
		t.Errorf("got %d %d %v, want 0 0 nil", gens, lineages, err)
	}
}
