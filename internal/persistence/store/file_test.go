package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"monworld.ai/internal/sim/world"
)

func writeSeedFile(t *testing.T, dir string) string {
	t.Helper()
	seed := filepath.Join(dir, "world.seed.json")
	doc := `{
		"tick": 7,
		"agents": {},
		"wallets": {"world_treasury": {"address": "world_treasury", "monBalance": 0.5}},
		"events": [],
		"processedPaymentTxHashes": []
	}`
	if err := os.WriteFile(seed, []byte(doc), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return seed
}

func TestFileStoreReadMissingYieldsDefault(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "world.state.json"))
	st, err := fs.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if st.Tick != 0 || len(st.Agents) != 0 {
		t.Fatalf("missing file should decode as default state, got %+v", st)
	}
}

func TestFileStoreInitFromSeed(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(filepath.Join(dir, "world.state.json"))
	seed := writeSeedFile(t, dir)

	st, err := fs.InitFromSeed(seed)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if st.Tick != 7 {
		t.Fatalf("tick = %d, want 7", st.Tick)
	}
	if st.Wallets["world_treasury"].MonBalance != 0.5 {
		t.Fatalf("treasury = %v", st.Wallets["world_treasury"])
	}

	// A second init must not reinstall the seed over live state.
	if err := fs.Update(func(s *world.State) error { s.Tick = 99; return nil }); err != nil {
		t.Fatalf("update: %v", err)
	}
	st, err = fs.InitFromSeed(seed)
	if err != nil {
		t.Fatalf("re-init: %v", err)
	}
	if st.Tick != 99 {
		t.Fatalf("tick = %d, re-init must keep existing state", st.Tick)
	}
}

func TestFileStoreUpdatePersists(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "world.state.json"))
	err := fs.Update(func(s *world.State) error {
		s.Tick = 3
		s.Wallet("w1").MonBalance = 0.25
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	st, err := fs.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if st.Tick != 3 || st.Wallets["w1"].MonBalance != 0.25 {
		t.Fatalf("persisted state = tick %d wallets %v", st.Tick, st.Wallets)
	}
}

func TestFileStoreMutatorErrorDiscardsChanges(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "world.state.json"))
	if err := fs.Update(func(s *world.State) error { s.Tick = 1; return nil }); err != nil {
		t.Fatalf("setup: %v", err)
	}

	boom := errors.New("boom")
	err := fs.Update(func(s *world.State) error {
		s.Tick = 42
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want mutator error", err)
	}

	st, _ := fs.Read()
	if st.Tick != 1 {
		t.Fatalf("tick = %d, failed mutator must not persist", st.Tick)
	}
}

func TestFileStoreRejectsMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.state.json")
	if err := os.WriteFile(path, []byte(`{"tick": "not-a-number"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileStore(path)
	if _, err := fs.Read(); err == nil {
		t.Fatal("schema-violating document must fail, not silently reset")
	}
}

func TestFileStoreRejectsNegativeBalance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.state.json")
	doc := `{"tick":1,"agents":{},"wallets":{"w1":{"address":"w1","monBalance":-5}},"events":[]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileStore(path)
	if _, err := fs.Read(); err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("err = %v, want schema violation", err)
	}
}

func TestFileStoreStaleLockReclaimed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.state.json")
	fs := NewFileStore(path)

	lock := path + ".lock"
	if err := os.WriteFile(lock, nil, 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(lock, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- fs.Update(func(s *world.State) error { s.Tick = 5; return nil })
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stale lock was not reclaimed")
	}
}

func TestFileStoreUpdateSerializes(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "world.state.json"))
	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fs.Update(func(s *world.State) error {
				s.Tick++
				return nil
			})
		}()
	}
	wg.Wait()

	st, err := fs.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if st.Tick != n {
		t.Fatalf("tick = %d, want %d (lost updates)", st.Tick, n)
	}
}

func TestFileStoreWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(filepath.Join(dir, "world.state.json"))
	if err := fs.Write(world.DefaultState()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "world.state.json.tmp")); !os.IsNotExist(err) {
		t.Fatal("temp file should be renamed away")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	s, err := Open("json", filepath.Join(dir, "s.json"), "")
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("backend = %T, want *FileStore", s)
	}
	if _, err := Open("bolt", "", ""); err == nil {
		t.Fatal("unknown mode must fail")
	}
}
