package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pthm-cable/hive/neural"
	"github.com/pthm-cable/hive/telemetry"
)

// SlotPlaceholder is replaced by the slot index in brain file patterns.
const SlotPlaceholder = "{{id}}"

// ErrBadPattern is returned for brain file patterns without SlotPlaceholder.
var ErrBadPattern = errors.New("game: brain file pattern must contain " + SlotPlaceholder)

func brainPath(pattern string, slot int) string {
	return strings.ReplaceAll(pattern, SlotPlaceholder, strconv.Itoa(slot))
}

// SaveBrains writes every slot's network to pattern, one file per slot.
func (g *Game) SaveBrains(pattern string) error {
	if !strings.Contains(pattern, SlotPlaceholder) {
		return ErrBadPattern
	}
	for i, n := range g.networks {
		if err := n.Save(brainPath(pattern, i)); err != nil {
			return fmt.Errorf("saving slot %d: %w", i, err)
		}
	}
	return nil
}

// LoadBrains reads every slot's network from pattern and restarts evolution
// at generation 0 with a fresh day. A file that is missing or does not fit
// the topology is reported and skipped, leaving that slot's network as it
// was. Returns the number of slots loaded.
func (g *Game) LoadBrains(pattern string) (int, error) {
	if !strings.Contains(pattern, SlotPlaceholder) {
		return 0, ErrBadPattern
	}

	loaded := 0
	for i, n := range g.networks {
		path := brainPath(pattern, i)
		if err := n.Load(path); err != nil {
			g.logger.Warn("skipping brain file", "slot", i, "path", path, "error", err)
			continue
		}
		loaded++
	}

	g.generation = 0
	g.startDay()
	g.logger.Info("brains loaded", "loaded", loaded, "population", len(g.networks))
	return loaded, nil
}

// SeedFromHall copies the hall's entries into the population, best entry
// into the highest slot. Entries that do not fit the topology are skipped.
// Returns the number of slots seeded.
func (g *Game) SeedFromHall(hof *telemetry.HallOfFame) int {
	slot := len(g.networks) - 1
	seeded := 0
	for _, e := range hof.Entries() {
		if slot < 0 {
			break
		}
		n, err := e.Network()
		if err != nil {
			g.logger.Warn("skipping hall entry", "id", e.ID, "error", err)
			continue
		}
		if err := neural.CopyParameters(n, g.networks[slot]); err != nil {
			g.logger.Warn("skipping hall entry", "id", e.ID, "error", err)
			continue
		}
		g.networks[slot].ID = uuid.NewString()
		slot--
		seeded++
	}
	if seeded > 0 {
		g.startDay()
	}
	return seeded
}
