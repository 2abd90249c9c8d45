// Package economy holds the wallet ledger, the entry flow and the payment
// gateway seam. Gateways that verify external payments (provider HTTP,
// on-chain) are external collaborators; the in-process ledger gateway is the
// reference implementation.
package economy

import (
	"math"

	"monworld.ai/internal/sim/world"
)

// WalletService manages lazy wallet creation and balance movement.
type WalletService struct {
	// InitialBalanceMon seeds wallets created by entry or faucet, so demo
	// agents can afford the entry fee without external funding.
	InitialBalanceMon float64
}

// Ensure returns the wallet for addr, creating it with the configured
// starting balance on first reference.
func (ws WalletService) Ensure(s *world.State, addr string) *world.Wallet {
	if w, ok := s.Wallets[addr]; ok {
		return w
	}
	w := &world.Wallet{Address: addr, MonBalance: ws.InitialBalanceMon}
	s.Wallets[addr] = w
	return w
}

// Debit withdraws amount if the balance covers it.
func Debit(w *world.Wallet, amount float64) bool {
	if w.MonBalance < amount {
		return false
	}
	w.MonBalance = round6(w.MonBalance - amount)
	return true
}

func Credit(w *world.Wallet, amount float64) {
	w.MonBalance = round6(w.MonBalance + amount)
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
