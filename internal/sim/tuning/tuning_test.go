package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	doc := `
entry_fee_mon: 0.0005
reward_per_unit_mon: 0.02
cooldown:
  min_ms: 2000
  max_ms: 8000
governor:
  enabled: false
  interval_ms: 10000
agents:
  interval_ms: 4000
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tune, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tune.EntryFeeMon != 0.0005 || tune.RewardPerUnitMon != 0.02 {
		t.Fatalf("fees = %v/%v", tune.EntryFeeMon, tune.RewardPerUnitMon)
	}
	if tune.Cooldown.MinMs != 2000 || tune.Cooldown.MaxMs != 8000 {
		t.Fatalf("cooldown = %+v", tune.Cooldown)
	}
	if tune.Governor.Enabled {
		t.Fatal("governor should be disabled")
	}
	// Untouched keys keep their defaults.
	if tune.WalletInitialBalanceMon != Defaults().WalletInitialBalanceMon {
		t.Fatalf("initial balance = %v", tune.WalletInitialBalanceMon)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestNormalizedClampsNonsense(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	doc := `
entry_fee_mon: -1
cooldown:
  min_ms: 10
  max_ms: 5
governor:
  interval_ms: 1
  min_price_mon: -2
agents:
  interval_ms: 1
  actions_per_cycle: 0
  min_action_delay_ms: 100
  max_action_delay_ms: 50
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tune, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tune.EntryFeeMon != Defaults().EntryFeeMon {
		t.Fatalf("fee = %v, want default restored", tune.EntryFeeMon)
	}
	if tune.Cooldown.MinMs != 1000 || tune.Cooldown.MaxMs != 1000 {
		t.Fatalf("cooldown = %+v, want clamped", tune.Cooldown)
	}
	if tune.Governor.IntervalMs != 500 || tune.Governor.MinPriceMon != Defaults().Governor.MinPriceMon {
		t.Fatalf("governor = %+v", tune.Governor)
	}
	if tune.Agents.ActionsPerCycle != 1 || tune.Agents.MinActionDelayMs != 1000 || tune.Agents.MaxActionDelayMs != 1000 {
		t.Fatalf("agents = %+v", tune.Agents)
	}
}
