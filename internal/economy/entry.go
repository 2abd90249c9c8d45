package economy

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"monworld.ai/internal/protocol"
	"monworld.ai/internal/sim/world"
)

// EntryResult mirrors the shape callers need to report entry outcomes.
type EntryResult struct {
	OK      bool    `json:"ok"`
	Reason  string  `json:"reason,omitempty"`
	AgentID string  `json:"agentId,omitempty"`
	Balance float64 `json:"balance,omitempty"`
	TxID    string  `json:"txId,omitempty"`
}

// EntryService admits agents into the world. Entry is idempotent per agent id;
// payment transaction hashes are consumed at most once.
type EntryService struct {
	Gateway PaymentGateway
	// Spawn picks the arrival location; defaults to a uniform random pick.
	Spawn func() world.LocationID
	now   func() time.Time
}

func NewEntryService(gateway PaymentGateway) *EntryService {
	return &EntryService{
		Gateway: gateway,
		Spawn: func() world.LocationID {
			locs := world.Locations()
			return locs[rand.Intn(len(locs))]
		},
		now: time.Now,
	}
}

func (e *EntryService) Enter(s *world.State, req protocol.EntryRequest) EntryResult {
	if _, ok := s.Agents[req.AgentID]; ok {
		res := EntryResult{OK: true, AgentID: req.AgentID}
		if w, ok := s.Wallets[req.WalletAddress]; ok {
			res.Balance = w.MonBalance
		}
		return res
	}

	// Replay guard: an external payment proof is spendable exactly once.
	txHash := strings.ToLower(req.PaymentTxHash)
	if txHash != "" {
		for _, seen := range s.ProcessedPaymentTxHashes {
			if seen == txHash {
				return EntryResult{OK: false, Reason: "Payment transaction already used"}
			}
		}
	}

	receipt := e.Gateway.ChargeEntryFee(s, req)
	if !receipt.OK {
		return EntryResult{OK: false, Reason: receipt.Reason, Balance: receipt.Balance}
	}
	if receipt.TxHash != "" {
		s.ProcessedPaymentTxHashes = append(s.ProcessedPaymentTxHashes, strings.ToLower(receipt.TxHash))
	} else if txHash != "" {
		s.ProcessedPaymentTxHashes = append(s.ProcessedPaymentTxHashes, txHash)
	}

	// Fees land in the treasury so payouts have a funding source.
	if receipt.AmountMon > 0 {
		Credit(s.Wallet(world.TreasuryAddress), receipt.AmountMon)
	}

	s.Tick++
	spawn := e.Spawn()
	s.Agents[req.AgentID] = &world.Agent{
		ID:            req.AgentID,
		WalletAddress: req.WalletAddress,
		EnteredAt:     e.now().UTC().Format(time.RFC3339),
		Location:      spawn,
		Energy:        10,
		Inventory:     map[string]int{},
		Reputation:    0,
	}
	s.AppendEvent(s.Tick, req.AgentID, world.EventEntry,
		fmt.Sprintf("Agent entered at %s by paying %g MON (tx: %s)", spawn, receipt.AmountMon, orNA(receipt.TxID)))

	return EntryResult{OK: true, AgentID: req.AgentID, Balance: receipt.Balance, TxID: receipt.TxID}
}

// Faucet credits a wallet out of thin air for demos and test setups.
func (e *EntryService) Faucet(s *world.State, wallets WalletService, addr string, amount float64) float64 {
	w := wallets.Ensure(s, addr)
	if amount > 0 {
		Credit(w, amount)
		s.Tick++
		s.AppendEvent(s.Tick, "world", world.EventFaucet,
			fmt.Sprintf("Faucet credited %g MON to %s", amount, addr))
	}
	return w.MonBalance
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
