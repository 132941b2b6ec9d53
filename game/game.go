// Package game runs the hive: it owns the bees, their networks and the
// playground, advances them tick by tick and evolves the networks at the end
// of every day.
package game

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/neural"
	"github.com/pthm-cable/hive/storage"
	"github.com/pthm-cable/hive/systems"
	"github.com/pthm-cable/hive/telemetry"
	"github.com/pthm-cable/hive/world"
)

// EnvFactory builds the environment for a new day.
type EnvFactory func(cfg *config.Config, rng *rand.Rand) world.Environment

// DefaultEnvFactory generates a fresh playground every day.
func DefaultEnvFactory(cfg *config.Config, rng *rand.Rand) world.Environment {
	return world.GeneratePlayground(cfg, rng)
}

// Options configures a Game.
type Options struct {
	Config *config.Config // nil uses config.Default()
	Seed   int64
	Logger *slog.Logger // nil uses slog.Default()

	// EnvFactory overrides playground generation.
	EnvFactory EnvFactory

	// LogStats logs every generation summary.
	LogStats bool
	// OutputDir enables CSV output when non-empty.
	OutputDir string
	// SnapshotDir enables checkpoints every SnapshotEvery generations.
	SnapshotDir   string
	SnapshotEvery int

	// Store receives one record per generation when set. It must already be
	// initialized.
	Store storage.Store
	RunID string

	HallOfFameSize int // 0 keeps 10

	// StatsCallback is called with every generation summary.
	StatsCallback func(telemetry.GenerationStats)
}

// Game holds the complete simulation state. Bees and networks share slot
// indices: bees[i] is flown by networks[i].
type Game struct {
	cfg    *config.Config
	rng    *rand.Rand
	seed   int64
	logger *slog.Logger

	envFactory EnvFactory
	env        world.Environment
	hive       *world.Hive
	system     *systems.BeeSystem

	bees     []*components.Bee
	networks []*neural.Network
	lifetime *telemetry.LifetimeTracker

	generation int
	tick       int // ticks since the day started, dawn included
	moves      int // ticks in which bees moved
	budget     int // moves allowed today

	// Telemetry
	logStats      bool
	statsCallback func(telemetry.GenerationStats)
	output        *telemetry.OutputManager
	perf          *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	hallOfFame    *telemetry.HallOfFame
	lastStats     telemetry.GenerationStats
	snapshotDir   string
	snapshotEvery int
	store         storage.Store
	runID         string
}

// NewGameWithOptions creates a game and starts its first day.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	vision, err := systems.NewVision(cfg)
	if err != nil {
		return nil, err
	}
	if got, want := vision.RequiredInputs(), cfg.Derived.Layers[0]; got != want {
		return nil, fmt.Errorf("vision produces %d inputs but the input layer has %d", got, want)
	}

	g := &Game{
		cfg:           cfg,
		rng:           rand.New(rand.NewSource(opts.Seed)),
		seed:          opts.Seed,
		logger:        logger,
		envFactory:    opts.EnvFactory,
		hive:          world.NewHive(cfg.Home, cfg.Hive.Population),
		lifetime:      telemetry.NewLifetimeTracker(),
		budget:        cfg.Hive.MovesBeforeFirstGeneration,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
		perf:          telemetry.NewPerfCollector(cfg.Hive.DayLength),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		hallOfFame:    telemetry.NewHallOfFame(cmp.Or(opts.HallOfFameSize, 10)),
		snapshotDir:   opts.SnapshotDir,
		snapshotEvery: opts.SnapshotEvery,
		store:         opts.Store,
		runID:         opts.RunID,
	}
	if g.envFactory == nil {
		g.envFactory = DefaultEnvFactory
	}
	if g.runID == "" {
		g.runID = fmt.Sprintf("seed-%d", opts.Seed)
	}
	g.system = systems.NewBeeSystem(cfg, vision, g.hive)

	if g.output, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		return nil, err
	}
	if err := g.output.WriteConfig(cfg); err != nil {
		g.output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	if err := g.seedNetworks(); err != nil {
		g.output.Close()
		return nil, err
	}
	g.startDay()

	logger.Info("hive ready",
		"population", cfg.Hive.Population,
		"layers", cfg.Derived.Layers,
		"vision", cfg.Vision.Strategy,
		"seed", opts.Seed,
	)
	return g, nil
}

// Close flushes run output. The store is left open for its owner.
func (g *Game) Close() error {
	return errors.Join(
		g.output.WriteHallOfFame(g.hallOfFame),
		g.output.Close(),
	)
}

// Config returns the configuration in use.
func (g *Game) Config() *config.Config { return g.cfg }

// Generation returns the number of completed generations.
func (g *Game) Generation() int { return g.generation }

// RunID names this run in the generation store.
func (g *Game) RunID() string { return g.runID }

// CurrentTick returns the number of ticks into the current day.
func (g *Game) CurrentTick() int { return g.tick }

// Moves returns the number of moves made today.
func (g *Game) Moves() int { return g.moves }

// Budget returns the number of moves allowed today.
func (g *Game) Budget() int { return g.budget }

// Bees returns the bees by slot. The slice is owned by the game.
func (g *Game) Bees() []*components.Bee { return g.bees }

// Networks returns the networks by slot. The slice is owned by the game.
func (g *Game) Networks() []*neural.Network { return g.networks }

// Environment returns today's playground.
func (g *Game) Environment() world.Environment { return g.env }

// LifetimeTotals returns a copy of the nectar credited to each surviving
// network identity.
func (g *Game) LifetimeTotals() map[string]int {
	return g.lifetime.All()
}

// LastStats returns the summary of the most recent generation.
func (g *Game) LastStats() telemetry.GenerationStats { return g.lastStats }

// HallOfFame returns the best networks seen so far.
func (g *Game) HallOfFame() *telemetry.HallOfFame { return g.hallOfFame }
