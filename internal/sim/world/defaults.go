package world

import (
	"strings"
	"time"
)

func defaultMarketPrices() map[string]float64 {
	return map[string]float64{
		"wood":    0.000001,
		"herb":    0.0000015,
		"ore":     0.000002,
		"crystal": 0.000003,
		"coin":    0.0000008,
	}
}

// DefaultState is the empty, seedable world.
func DefaultState() *State {
	s := &State{
		Tick:                     0,
		Agents:                   map[string]*Agent{},
		Wallets:                  map[string]*Wallet{},
		Events:                   []Event{},
		ProcessedPaymentTxHashes: []string{},
		Governance: Governance{
			ActivePolicy: PolicyNeutral,
			Votes: map[Policy]int{
				PolicyNeutral:     0,
				PolicyCooperative: 0,
				PolicyAggressive:  0,
			},
		},
	}
	s.Normalize()
	return s
}

// Normalize fills genuinely optional fields with safe defaults and prunes
// zero-quantity inventory keys. It never invents required fields; the store's
// schema validation rejects those before Normalize runs.
func (s *State) Normalize() {
	if s.Agents == nil {
		s.Agents = map[string]*Agent{}
	}
	if s.Wallets == nil {
		s.Wallets = map[string]*Wallet{}
	}
	if s.Events == nil {
		s.Events = []Event{}
	}
	if s.ProcessedPaymentTxHashes == nil {
		s.ProcessedPaymentTxHashes = []string{}
	}
	for i, h := range s.ProcessedPaymentTxHashes {
		s.ProcessedPaymentTxHashes[i] = strings.ToLower(h)
	}

	for _, a := range s.Agents {
		if a.Inventory == nil {
			a.Inventory = map[string]int{}
		}
		for item, qty := range a.Inventory {
			if qty <= 0 {
				delete(a.Inventory, item)
			}
		}
	}

	if !KnownPolicy(s.Governance.ActivePolicy) {
		s.Governance.ActivePolicy = PolicyNeutral
	}
	if s.Governance.Votes == nil {
		s.Governance.Votes = map[Policy]int{}
	}
	for _, p := range Policies() {
		if _, ok := s.Governance.Votes[p]; !ok {
			s.Governance.Votes[p] = 0
		}
	}

	if s.Economy.MarketPricesMon == nil {
		s.Economy.MarketPricesMon = map[string]float64{}
	}
	for item, price := range defaultMarketPrices() {
		if _, ok := s.Economy.MarketPricesMon[item]; !ok {
			s.Economy.MarketPricesMon[item] = price
		}
	}
	if s.Economy.AttackPenaltyMon <= 0 {
		s.Economy.AttackPenaltyMon = 0.000001
	}
	if s.Economy.TradeReputationReward <= 0 {
		s.Economy.TradeReputationReward = 1
	}
	if s.Economy.AidReputationReward <= 0 {
		s.Economy.AidReputationReward = 2
	}
	if s.Economy.Governor.LastRunAt == "" {
		s.Economy.Governor.LastRunAt = time.Unix(0, 0).UTC().Format(time.RFC3339)
	}
}

// Clone returns a deep copy, used for read snapshots and no-mutation checks.
func (s *State) Clone() *State {
	c := &State{
		Tick:                     s.Tick,
		Agents:                   make(map[string]*Agent, len(s.Agents)),
		Wallets:                  make(map[string]*Wallet, len(s.Wallets)),
		Events:                   append([]Event(nil), s.Events...),
		ProcessedPaymentTxHashes: append([]string(nil), s.ProcessedPaymentTxHashes...),
		Economy: Economy{
			MarketPricesMon:       make(map[string]float64, len(s.Economy.MarketPricesMon)),
			AttackPenaltyMon:      s.Economy.AttackPenaltyMon,
			TradeReputationReward: s.Economy.TradeReputationReward,
			AidReputationReward:   s.Economy.AidReputationReward,
			Governor:              s.Economy.Governor,
		},
		Governance: Governance{
			ActivePolicy: s.Governance.ActivePolicy,
			Votes:        make(map[Policy]int, len(s.Governance.Votes)),
		},
	}
	for id, a := range s.Agents {
		inv := make(map[string]int, len(a.Inventory))
		for item, qty := range a.Inventory {
			inv[item] = qty
		}
		cp := *a
		cp.Inventory = inv
		c.Agents[id] = &cp
	}
	for addr, w := range s.Wallets {
		cp := *w
		c.Wallets[addr] = &cp
	}
	for item, price := range s.Economy.MarketPricesMon {
		c.Economy.MarketPricesMon[item] = price
	}
	for p, n := range s.Governance.Votes {
		c.Governance.Votes[p] = n
	}
	return c
}
