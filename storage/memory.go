package storage

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	generations map[string]map[int]GenerationRecord
	lineage     map[string]map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.generations = make(map[string]map[int]GenerationRecord)
	s.lineage = make(map[string]map[string]int)
	return nil
}

func (s *MemoryStore) SaveGeneration(_ context.Context, runID string, rec GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	run, ok := s.generations[runID]
	if !ok {
		run = make(map[int]GenerationRecord)
		s.generations[runID] = run
	}
	rec.BestLayers = slices.Clone(rec.BestLayers)
	rec.BestParams = slices.Clone(rec.BestParams)
	run[rec.Generation] = rec
	return nil
}

func (s *MemoryStore) ListGenerations(_ context.Context, runID string) ([]GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	run := s.generations[runID]
	out := make([]GenerationRecord, 0, len(run))
	for _, rec := range run {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Generation < out[j].Generation })
	return out, nil
}

func (s *MemoryStore) SaveLineageTotals(_ context.Context, runID string, totals map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.lineage[runID] = maps.Clone(totals)
	return nil
}

func (s *MemoryStore) GetLineageTotals(_ context.Context, runID string) (map[string]int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	totals, ok := s.lineage[runID]
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(totals), true, nil
}
