package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"monworld.ai/internal/sim/world"
)

const (
	// A lock file untouched for this long belongs to a dead holder and is
	// reclaimed instead of deadlocking every future caller.
	staleLockAge     = 30 * time.Second
	lockPollInterval = 10 * time.Millisecond
	maxLockAttempts  = 1000
)

// FileStore persists the world as a single JSON document. Writes go through a
// temp file and rename, so a crash mid-write never leaves a torn document.
// Mutual exclusion uses an exclusively-created lock file next to the state
// file, which also covers multiple OS processes sharing one store.
type FileStore struct {
	stateFile string
	lockFile  string
}

func NewFileStore(stateFile string) *FileStore {
	return &FileStore{
		stateFile: stateFile,
		lockFile:  stateFile + ".lock",
	}
}

func (f *FileStore) Read() (*world.State, error) {
	raw, err := os.ReadFile(f.stateFile)
	if os.IsNotExist(err) {
		return world.DefaultState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	return decodeState(raw)
}

func (f *FileStore) Write(st *world.State) error {
	raw, err := encodeState(st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.stateFile), 0o755); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	tmp := f.stateFile + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, f.stateFile); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func (f *FileStore) Update(fn Mutator) error {
	if err := f.acquireLock(); err != nil {
		return err
	}
	defer f.releaseLock()

	st, err := f.Read()
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return f.Write(st)
}

func (f *FileStore) InitFromSeed(seedPath string) (*world.State, error) {
	if _, err := os.Stat(f.stateFile); err == nil {
		return f.Read()
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("init state: %w", err)
	}
	raw, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	seed, err := decodeState(raw)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if err := f.Write(seed); err != nil {
		return nil, err
	}
	return seed, nil
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) acquireLock() error {
	if err := os.MkdirAll(filepath.Dir(f.stateFile), 0o755); err != nil {
		return fmt.Errorf("acquire state lock: %w", err)
	}
	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		lock, err := os.OpenFile(f.lockFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = lock.Close()
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("acquire state lock: %w", err)
		}

		// Reclaim locks abandoned by a crashed holder.
		fi, statErr := os.Stat(f.lockFile)
		if statErr == nil && time.Since(fi.ModTime()) > staleLockAge {
			_ = os.Remove(f.lockFile)
			continue
		}
		if statErr != nil && !os.IsNotExist(statErr) {
			return fmt.Errorf("acquire state lock: %w", statErr)
		}
		time.Sleep(lockPollInterval)
	}
	return fmt.Errorf("acquire state lock: timed out after %d attempts", maxLockAttempts)
}

func (f *FileStore) releaseLock() {
	_ = os.Remove(f.lockFile)
}
