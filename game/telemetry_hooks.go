package game

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pthm-cable/hive/storage"
	"github.com/pthm-cable/hive/telemetry"
)

// flushTelemetry reports a finished generation to every configured sink.
// Sink failures are logged and never stop the run.
func (g *Game) flushTelemetry(stats telemetry.GenerationStats, rec storage.GenerationRecord) {
	perfStats := g.perf.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats && (g.cfg.Telemetry.LogEvery <= 1 || stats.Generation%g.cfg.Telemetry.LogEvery == 0) {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.output != nil {
		if err := g.output.WriteGeneration(stats); err != nil {
			g.logger.Error("failed to write generation", "error", err)
		}
		if err := g.output.WritePerf(perfStats, stats.Generation); err != nil {
			g.logger.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.output != nil {
			if err := g.output.WriteBookmark(bm); err != nil {
				g.logger.Error("failed to write bookmark", "error", err)
			}
		}
	}

	if g.store != nil {
		ctx := context.Background()
		if err := g.store.SaveGeneration(ctx, g.runID, rec); err != nil {
			g.logger.Error("failed to store generation", "generation", rec.Generation, "error", err)
		}
		if err := g.store.SaveLineageTotals(ctx, g.runID, g.lifetime.All()); err != nil {
			g.logger.Error("failed to store lineage totals", "error", err)
		}
	}
}

// checkpointIfDue writes a checkpoint when the completed generation count
// hits the configured interval.
func (g *Game) checkpointIfDue() {
	if g.snapshotDir == "" || g.snapshotEvery <= 0 || g.generation%g.snapshotEvery != 0 {
		return
	}
	path := filepath.Join(g.snapshotDir, fmt.Sprintf("generation_%06d.snap", g.generation))
	if err := g.Checkpoint(path); err != nil {
		g.logger.Error("failed to write checkpoint", "path", path, "error", err)
		return
	}
	g.logger.Debug("checkpoint written", "path", path, "generation", g.generation)
}
