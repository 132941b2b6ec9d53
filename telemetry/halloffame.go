package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/pthm-cable/hive/neural"
)

// HallEntry records a network that earned a place among the best seen.
type HallEntry struct {
	ID         string    `json:"id"`
	Generation int       `json:"generation"`
	Fitness    float64   `json:"fitness"`
	Nectar     int       `json:"nectar"`
	Layers     []int     `json:"layers"`
	Params     []float64 `json:"params"`
}

// Network rebuilds the recorded network.
func (e HallEntry) Network() (*neural.Network, error) {
	n, err := neural.NewZeroed(e.Layers)
	if err != nil {
		return nil, err
	}
	if err := n.SetParameters(e.Params); err != nil {
		return nil, err
	}
	n.Fitness = e.Fitness
	n.ID = e.ID
	return n, nil
}

// HallOfFame keeps the best networks across the whole run, sorted by
// fitness descending.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall holding at most maxSize entries.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{maxSize: maxSize, entries: make([]HallEntry, 0, maxSize)}
}

// Consider offers a network for entry. Networks without positive fitness,
// or already present under the same identity, are ignored.
// Returns true if the network was added.
func (hof *HallOfFame) Consider(n *neural.Network, generation, nectar int) bool {
	if n.Fitness <= 0 {
		return false
	}
	for _, e := range hof.entries {
		if e.ID == n.ID {
			return false
		}
	}

	entry := HallEntry{
		ID:         n.ID,
		Generation: generation,
		Fitness:    n.Fitness,
		Nectar:     nectar,
		Layers:     n.Layers(),
		Params:     n.Parameters(),
	}

	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < entry.Fitness
	})
	if idx >= hof.maxSize {
		return false
	}

	hof.entries = slices.Insert(hof.entries, idx, entry)
	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Entries returns the hall, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	return hof.entries
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// TopFitness returns the best recorded fitness, or 0 when empty.
func (hof *HallOfFame) TopFitness() float64 {
	if len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Fitness
}

// MarshalJSON serializes the hall, best first.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// LoadHallOfFameFromFile reads a hall written by MarshalJSON.
func LoadHallOfFameFromFile(path string) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Fitness > entries[j].Fitness
	})
	hof := NewHallOfFame(max(len(entries), 30))
	hof.entries = append(hof.entries, entries...)
	return hof, nil
}
