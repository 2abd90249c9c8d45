package store

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"monworld.ai/internal/sim/world"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteReadEmptyYieldsDefault(t *testing.T) {
	s := newTestSQLite(t)
	st, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if st.Tick != 0 || len(st.Agents) != 0 {
		t.Fatalf("empty db should decode as default state, got %+v", st)
	}
}

func TestSQLiteWriteReadRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	st := world.DefaultState()
	st.Tick = 12
	st.Agents["a1"] = &world.Agent{
		ID: "a1", WalletAddress: "w1", Location: world.LocationForest,
		Energy: 6, Inventory: map[string]int{"wood": 3},
		EnteredAt: "2026-01-01T00:00:00Z",
	}
	st.Wallet("w1").MonBalance = 0.004
	if err := s.Write(st); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Tick != 12 || got.Agents["a1"].Inventory["wood"] != 3 {
		t.Fatalf("roundtrip lost data: %+v", got.Agents["a1"])
	}
	if got.Wallets["w1"].MonBalance != 0.004 {
		t.Fatalf("wallet = %v", got.Wallets["w1"])
	}
}

func TestSQLiteUpdateRollsBackOnMutatorError(t *testing.T) {
	s := newTestSQLite(t)
	if err := s.Update(func(st *world.State) error { st.Tick = 1; return nil }); err != nil {
		t.Fatalf("setup: %v", err)
	}

	boom := errors.New("boom")
	err := s.Update(func(st *world.State) error {
		st.Tick = 77
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want mutator error", err)
	}
	got, _ := s.Read()
	if got.Tick != 1 {
		t.Fatalf("tick = %d, rollback expected", got.Tick)
	}
}

func TestSQLiteInitFromSeed(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQLite(filepath.Join(dir, "world.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	seed := writeSeedFile(t, dir)
	st, err := s.InitFromSeed(seed)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if st.Tick != 7 {
		t.Fatalf("tick = %d, want 7", st.Tick)
	}

	if err := s.Update(func(st *world.State) error { st.Tick = 50; return nil }); err != nil {
		t.Fatalf("update: %v", err)
	}
	st, err = s.InitFromSeed(seed)
	if err != nil {
		t.Fatalf("re-init: %v", err)
	}
	if st.Tick != 50 {
		t.Fatalf("tick = %d, re-init must keep existing state", st.Tick)
	}
}

func TestSQLiteUpdateSerializes(t *testing.T) {
	s := newTestSQLite(t)
	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(func(st *world.State) error {
				st.Tick++
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Tick != n {
		t.Fatalf("tick = %d, want %d", got.Tick, n)
	}
}
