// Package snapshot writes on-demand, zstd-compressed copies of the world
// document for backup and offline inspection.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"monworld.ai/internal/sim/world"
)

// Save writes one snapshot file and returns its path.
func Save(dir string, st *world.State) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("snapshot-t%d-%d.json.zst", st.Tick, time.Now().UnixMilli())
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", err
	}
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		_ = enc.Close()
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// Read restores a snapshot file.
func Read(path string) (*world.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var st world.State
	if err := json.NewDecoder(dec).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	st.Normalize()
	return &st, nil
}
