package snapshot

import (
	"path/filepath"
	"strings"
	"testing"

	"monworld.ai/internal/sim/world"
)

func TestSaveReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := world.DefaultState()
	st.Tick = 42
	st.Agents["alice"] = &world.Agent{
		ID: "alice", WalletAddress: "w_alice", Location: world.LocationCavern,
		Energy: 4, Inventory: map[string]int{"ore": 2, "crystal": 1}, Reputation: 3,
	}
	st.Wallet("w_alice").MonBalance = 0.0042
	st.AppendEvent(42, "alice", "gather", "Gathered resources at cavern (+ore:2 +crystal:1)")

	path, err := Save(dir, st)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "snapshot-t42-") || !strings.HasSuffix(base, ".json.zst") {
		t.Fatalf("snapshot name = %s", base)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Tick != 42 {
		t.Fatalf("tick = %d", got.Tick)
	}
	a := got.Agents["alice"]
	if a == nil || a.Inventory["ore"] != 2 || a.Reputation != 3 {
		t.Fatalf("agent = %+v", a)
	}
	if got.Wallets["w_alice"].MonBalance != 0.0042 {
		t.Fatalf("wallet = %v", got.Wallets["w_alice"])
	}
	if len(got.Events) != 1 || got.Events[0].Type != "gather" {
		t.Fatalf("events = %v", got.Events)
	}
}

func TestReadMissingFileFails(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.json.zst")); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}
