// Package snapshot writes and reads whole-population checkpoints: a
// zstd-compressed stream holding a JSON header line followed by a gob body.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Version is incremented when the format changes.
const Version = 1

// ErrVersion is returned when a checkpoint has an unsupported version.
var ErrVersion = errors.New("snapshot: unsupported version")

type Header struct {
	Version    int    `json:"version"`
	RunID      string `json:"run_id"`
	Generation int    `json:"generation"`
	Population int    `json:"population"`
}

// Snapshot is the state needed to resume evolution at a generation boundary.
type Snapshot struct {
	Header Header `json:"header"`

	Seed     int64  `json:"seed"`
	Budget   int    `json:"budget"`
	Strategy string `json:"strategy"`

	Networks       []NetworkState `json:"networks"`
	LifetimeTotals map[string]int `json:"lifetime_totals"`
}

// NetworkState is one slot's network.
type NetworkState struct {
	ID          string    `json:"id"`
	Layers      []int     `json:"layers"`
	Params      []float64 `json:"params"`
	Fitness     float64   `json:"fitness"`
	LastFitness float64   `json:"last_fitness"`
}

// Write stores snap at path, creating parent directories.
func Write(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	snap.Header.Version = Version
	snap.Header.Population = len(snap.Networks)
	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadHeader returns only the header line of the checkpoint at path.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("parse header: %w", err)
	}
	return h, nil
}

// Read loads the checkpoint at path.
func Read(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return snap, fmt.Errorf("parse header: %w", err)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
