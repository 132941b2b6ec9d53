// Package storage keeps the history of a run: one record per generation and
// the lifetime nectar totals of the surviving lineages.
package storage

import (
	"context"
	"errors"
)

// ErrNotInitialized is returned by stores used before Init.
var ErrNotInitialized = errors.New("storage: store is not initialized")

// GenerationRecord is the persisted summary of one generation.
type GenerationRecord struct {
	Generation  int     `json:"generation"`
	Ticks       int     `json:"ticks"`
	Budget      int     `json:"budget"`
	Extinct     bool    `json:"extinct"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	Nectar      int     `json:"nectar"`

	// Best network of the generation, before selection.
	BestID     string    `json:"best_id"`
	BestLayers []int     `json:"best_layers"`
	BestParams []float64 `json:"best_params"`
}

// Store persists run history. Records are grouped by run identifier.
type Store interface {
	Init(ctx context.Context) error
	SaveGeneration(ctx context.Context, runID string, rec GenerationRecord) error
	// ListGenerations returns the run's records ordered by generation.
	ListGenerations(ctx context.Context, runID string) ([]GenerationRecord, error)
	SaveLineageTotals(ctx context.Context, runID string, totals map[string]int) error
	GetLineageTotals(ctx context.Context, runID string) (map[string]int, bool, error)
}
