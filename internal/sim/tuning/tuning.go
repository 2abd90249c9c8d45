// Package tuning loads the numeric knobs for the engine, the economy governor
// and the autonomous agents from a yaml file.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	EntryFeeMon             float64 `yaml:"entry_fee_mon"`
	WalletInitialBalanceMon float64 `yaml:"wallet_initial_balance_mon"`
	RewardPerUnitMon        float64 `yaml:"reward_per_unit_mon"`
	PassiveDripMon          float64 `yaml:"passive_drip_mon"`

	Cooldown Cooldown `yaml:"cooldown"`
	Governor Governor `yaml:"governor"`
	Agents   Agents   `yaml:"agents"`
}

// Cooldown bounds the per-agent action pacing computed by the engine.
type Cooldown struct {
	MinMs int `yaml:"min_ms"`
	MaxMs int `yaml:"max_ms"`
}

type Governor struct {
	Enabled      bool    `yaml:"enabled"`
	IntervalMs   int     `yaml:"interval_ms"`
	WindowEvents int     `yaml:"window_events"`
	MinPriceMon  float64 `yaml:"min_price_mon"`
	MaxPriceMon  float64 `yaml:"max_price_mon"`
}

type Agents struct {
	Enabled          bool `yaml:"enabled"`
	IntervalMs       int  `yaml:"interval_ms"`
	ActionsPerCycle  int  `yaml:"actions_per_cycle"`
	MinActionDelayMs int  `yaml:"min_action_delay_ms"`
	MaxActionDelayMs int  `yaml:"max_action_delay_ms"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:         "v1",
		EntryFeeMon:             0.0001,
		WalletInitialBalanceMon: 0.001,
		RewardPerUnitMon:        0.01,
		PassiveDripMon:          0,
		Cooldown: Cooldown{
			MinMs: 5000,
			MaxMs: 15000,
		},
		Governor: Governor{
			Enabled:      true,
			IntervalMs:   5000,
			WindowEvents: 60,
			MinPriceMon:  0.0000001,
			MaxPriceMon:  0.00001,
		},
		Agents: Agents{
			Enabled:          true,
			IntervalMs:       2500,
			ActionsPerCycle:  1,
			MinActionDelayMs: 5000,
			MaxActionDelayMs: 15000,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t.normalized(), nil
}

// normalized clamps nonsense values back into the documented bounds instead of
// letting a bad config stall or flood the world.
func (t Tuning) normalized() Tuning {
	if t.EntryFeeMon <= 0 {
		t.EntryFeeMon = Defaults().EntryFeeMon
	}
	if t.WalletInitialBalanceMon < 0 {
		t.WalletInitialBalanceMon = Defaults().WalletInitialBalanceMon
	}
	if t.RewardPerUnitMon < 0 {
		t.RewardPerUnitMon = Defaults().RewardPerUnitMon
	}
	if t.PassiveDripMon < 0 {
		t.PassiveDripMon = 0
	}
	if t.Cooldown.MinMs < 1000 {
		t.Cooldown.MinMs = 1000
	}
	if t.Cooldown.MaxMs < t.Cooldown.MinMs {
		t.Cooldown.MaxMs = t.Cooldown.MinMs
	}
	if t.Governor.IntervalMs < 500 {
		t.Governor.IntervalMs = 500
	}
	if t.Governor.WindowEvents < 1 {
		t.Governor.WindowEvents = Defaults().Governor.WindowEvents
	}
	if t.Governor.MinPriceMon <= 0 {
		t.Governor.MinPriceMon = Defaults().Governor.MinPriceMon
	}
	if t.Governor.MaxPriceMon < t.Governor.MinPriceMon {
		t.Governor.MaxPriceMon = Defaults().Governor.MaxPriceMon
	}
	if t.Agents.IntervalMs < 500 {
		t.Agents.IntervalMs = 500
	}
	if t.Agents.ActionsPerCycle < 1 {
		t.Agents.ActionsPerCycle = 1
	}
	if t.Agents.MinActionDelayMs < 1000 {
		t.Agents.MinActionDelayMs = 1000
	}
	if t.Agents.MaxActionDelayMs < t.Agents.MinActionDelayMs {
		t.Agents.MaxActionDelayMs = t.Agents.MinActionDelayMs
	}
	return t
}
