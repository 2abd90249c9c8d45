// Package world holds the shared world document: agents, wallets, the event
// log, governance tallies and the mutable economy tunables. Everything here is
// plain data; all mutation goes through the action engine inside a store
// transaction.
package world

// TreasuryAddress is the distinguished wallet that receives entry fees and
// penalties and funds claim/sell payouts.
const TreasuryAddress = "world_treasury"

type Wallet struct {
	Address    string  `json:"address"`
	MonBalance float64 `json:"monBalance"`
}

type Agent struct {
	ID            string         `json:"id"`
	WalletAddress string         `json:"walletAddress"`
	EnteredAt     string         `json:"enteredAt"`
	Location      LocationID     `json:"location"`
	Energy        int            `json:"energy"`
	Inventory     map[string]int `json:"inventory"`
	Reputation    int            `json:"reputation"`
}

// Event is an immutable audit record. The economy governor reads these back as
// its only input signal, so messages for gather events carry machine-parseable
// "+item:qty" fragments.
type Event struct {
	ID      string `json:"id"`
	At      string `json:"at"`
	AgentID string `json:"agentId"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Governance struct {
	ActivePolicy Policy         `json:"activePolicy"`
	Votes        map[Policy]int `json:"votes"`
}

// GovernorCursor tracks the governor's progress through the event log.
type GovernorCursor struct {
	LastEventIndex int    `json:"lastEventIndex"`
	LastRunAt      string `json:"lastRunAt"`
}

type Economy struct {
	MarketPricesMon       map[string]float64 `json:"marketPricesMon"`
	AttackPenaltyMon      float64            `json:"attackPenaltyMon"`
	TradeReputationReward int                `json:"tradeReputationReward"`
	AidReputationReward   int                `json:"aidReputationReward"`
	Governor              GovernorCursor     `json:"governor"`
}

// State is the single root aggregate. Exactly one State exists per process and
// it is only ever reached through the store.
type State struct {
	Tick                     uint64             `json:"tick"`
	Agents                   map[string]*Agent  `json:"agents"`
	Wallets                  map[string]*Wallet `json:"wallets"`
	Events                   []Event            `json:"events"`
	ProcessedPaymentTxHashes []string           `json:"processedPaymentTxHashes"`
	Economy                  Economy            `json:"economy"`
	Governance               Governance         `json:"governance"`
}

// Wallet returns the wallet for addr, creating an empty one on first
// reference. Entry and faucet flows seed fresh wallets with a configured
// starting balance instead; engine-internal references start at zero.
func (s *State) Wallet(addr string) *Wallet {
	if w, ok := s.Wallets[addr]; ok {
		return w
	}
	w := &Wallet{Address: addr}
	s.Wallets[addr] = w
	return w
}

// InventoryUnits is the total item count an agent carries, used by the
// cooldown scheduler and the autonomous agents' pacing.
func (a *Agent) InventoryUnits() int {
	n := 0
	for _, qty := range a.Inventory {
		n += qty
	}
	return n
}
