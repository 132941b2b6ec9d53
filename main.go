package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/game"
	"github.com/pthm-cable/hive/snapshot"
	"github.com/pthm-cable/hive/storage"
	"github.com/pthm-cable/hive/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxGenerations := flag.Int("max-generations", 0, "Stop after N generations (0 = until interrupted)")
	logStats := flag.Bool("log-stats", false, "Log every generation summary via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for checkpoint files")
	snapshotEvery := flag.Int("snapshot-every", 50, "Checkpoint every N generations when -snapshot-dir is set")
	restore := flag.String("restore", "", "Resume from a checkpoint file")
	load := flag.String("load", "", "Load brains from a file pattern containing "+game.SlotPlaceholder)
	save := flag.String("save", "", "Save brains on exit to a file pattern containing "+game.SlotPlaceholder)
	hall := flag.String("hall", "", "Seed the population from a hall_of_fame.json")
	storeKind := flag.String("store", "", "Generation store: memory or sqlite (empty = use config)")
	storePath := flag.String("store-path", "", "SQLite database path (empty = use config)")
	runID := flag.String("run-id", "", "Run identifier for the generation store (empty = derived from seed)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(runArgs{
		configPath:     *configPath,
		seed:           *seed,
		maxGenerations: *maxGenerations,
		logStats:       *logStats,
		outputDir:      *outputDir,
		snapshotDir:    *snapshotDir,
		snapshotEvery:  *snapshotEvery,
		restore:        *restore,
		load:           *load,
		save:           *save,
		hall:           *hall,
		storeKind:      *storeKind,
		storePath:      *storePath,
		runID:          *runID,
	}); err != nil {
		slog.Error("hive stopped", "error", err)
		os.Exit(1)
	}
}

type runArgs struct {
	configPath     string
	seed           int64
	maxGenerations int
	logStats       bool
	outputDir      string
	snapshotDir    string
	snapshotEvery  int
	restore        string
	load           string
	save           string
	hall           string
	storeKind      string
	storePath      string
	runID          string
}

func run(args runArgs) error {
	// Initialize config before anything else
	if err := config.Init(args.configPath); err != nil {
		return err
	}
	cfg := config.Cfg()

	rngSeed := args.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	kind := cfg.Storage.Kind
	if args.storeKind != "" {
		kind = args.storeKind
	}
	path := cfg.Storage.Path
	if args.storePath != "" {
		path = args.storePath
	}
	store, err := storage.NewStore(kind, path)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Init(ctx); err != nil {
		return err
	}

	// a resumed run keeps appending to the checkpoint's history
	runID := args.runID
	if args.restore != "" {
		hdr, err := snapshot.ReadHeader(args.restore)
		if err != nil {
			return err
		}
		if runID == "" {
			runID = hdr.RunID
		}
		slog.Info("resuming run",
			"run_id", hdr.RunID,
			"generation", hdr.Generation,
			"population", hdr.Population,
		)
	}

	started := time.Now()
	g, err := game.NewGameWithOptions(game.Options{
		Config:        cfg,
		Seed:          rngSeed,
		LogStats:      args.logStats,
		OutputDir:     args.outputDir,
		SnapshotDir:   args.snapshotDir,
		SnapshotEvery: args.snapshotEvery,
		Store:         store,
		RunID:         runID,
		StatsCallback: func(s telemetry.GenerationStats) {
			if args.logStats {
				return
			}
			slog.Info("generation done",
				"generation", humanize.Comma(int64(s.Generation)),
				"moves", humanize.Comma(int64(s.Ticks)),
				"best", humanize.Commaf(s.FitnessBest),
				"nectar", s.NectarTotal,
				"elapsed", humanize.RelTime(started, time.Now(), "", ""),
			)
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Close(); err != nil {
			slog.Error("failed to close run output", "error", err)
		}
	}()

	switch {
	case args.restore != "":
		if err := g.Restore(args.restore); err != nil {
			return err
		}
		logCheckpointSize(args.restore)
		gens, lineages, err := g.StoredHistory(ctx)
		if err != nil {
			return err
		}
		slog.Info("stored history", "run_id", g.RunID(), "generations", gens, "lineages", lineages)
	case args.load != "":
		if _, err := g.LoadBrains(args.load); err != nil {
			return err
		}
	case args.hall != "":
		hof, err := telemetry.LoadHallOfFameFromFile(args.hall)
		if err != nil {
			return err
		}
		slog.Info("seeded from hall of fame", "path", args.hall, "slots", g.SeedFromHall(hof))
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_generations", args.maxGenerations,
		"store", kind,
	)

	err = g.Run(ctx, args.maxGenerations)
	if errors.Is(err, context.Canceled) {
		slog.Info("interrupted", "generation", g.Generation(), "tick", g.CurrentTick())
		err = nil
	}
	if err != nil {
		return err
	}

	if args.save != "" {
		if err := g.SaveBrains(args.save); err != nil {
			return err
		}
		slog.Info("brains saved", "pattern", args.save)
	}
	slog.Info("simulation finished",
		"generations", humanize.Comma(int64(g.Generation())),
		"took", time.Since(started).Round(time.Second).String(),
	)
	return nil
}

func logCheckpointSize(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	slog.Info("checkpoint restored", "path", path, "size", humanize.Bytes(uint64(info.Size())))
}
