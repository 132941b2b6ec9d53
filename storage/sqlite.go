package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveGeneration(ctx context.Context, runID string, rec GenerationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	layers, err := encodeInts(rec.BestLayers)
	if err != nil {
		return err
	}
	params, err := encodeFloats(rec.BestParams)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (
			run_id, generation, ticks, budget, extinct,
			best_fitness, mean_fitness, nectar, best_id, best_layers, best_params
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			ticks = excluded.ticks,
			budget = excluded.budget,
			extinct = excluded.extinct,
			best_fitness = excluded.best_fitness,
			mean_fitness = excluded.mean_fitness,
			nectar = excluded.nectar,
			best_id = excluded.best_id,
			best_layers = excluded.best_layers,
			best_params = excluded.best_params
	`, runID, rec.Generation, rec.Ticks, rec.Budget, rec.Extinct,
		rec.BestFitness, rec.MeanFitness, rec.Nectar, rec.BestID, layers, params)
	return err
}

func (s *SQLiteStore) ListGenerations(ctx context.Context, runID string) ([]GenerationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, ticks, budget, extinct, best_fitness, mean_fitness,
			nectar, best_id, best_layers, best_params
		FROM generations
		WHERE run_id = ?
		ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		var (
			rec            GenerationRecord
			layers, params []byte
		)
		if err := rows.Scan(&rec.Generation, &rec.Ticks, &rec.Budget, &rec.Extinct,
			&rec.BestFitness, &rec.MeanFitness, &rec.Nectar, &rec.BestID, &layers, &params); err != nil {
			return nil, err
		}
		if rec.BestLayers, err = decodeInts(layers); err != nil {
			return nil, fmt.Errorf("decode generation %d layers: %w", rec.Generation, err)
		}
		if rec.BestParams, err = decodeFloats(params); err != nil {
			return nil, fmt.Errorf("decode generation %d params: %w", rec.Generation, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveLineageTotals(ctx context.Context, runID string, totals map[string]int) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(totals)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO lineage_totals (run_id, payload)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			payload = excluded.payload
	`, runID, payload)
	return err
}

func (s *SQLiteStore) GetLineageTotals(ctx context.Context, runID string) (map[string]int, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM lineage_totals WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	totals := make(map[string]int)
	if err := json.Unmarshal(payload, &totals); err != nil {
		return nil, false, fmt.Errorf("decode lineage totals %s: %w", runID, err)
	}
	return totals, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			budget INTEGER NOT NULL,
			extinct BOOLEAN NOT NULL,
			best_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			nectar INTEGER NOT NULL,
			best_id TEXT NOT NULL,
			best_layers BLOB NOT NULL,
			best_params BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS lineage_totals (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
