package economy

import (
	"fmt"
	"time"

	"monworld.ai/internal/protocol"
	"monworld.ai/internal/sim/world"
)

// Receipt is the outcome of charging an entry fee.
type Receipt struct {
	OK        bool
	Reason    string
	TxID      string
	TxHash    string
	AmountMon float64
	Balance   float64
}

// PaymentGateway decides whether an entry fee was paid. Implementations that
// talk to external systems must do so before the store mutator runs; the
// ledger gateway below works entirely on in-world balances.
type PaymentGateway interface {
	ChargeEntryFee(s *world.State, req protocol.EntryRequest) Receipt
}

// WalletGateway charges the fee against the in-world wallet ledger.
type WalletGateway struct {
	Wallets WalletService
	FeeMon  float64
}

func (g WalletGateway) ChargeEntryFee(s *world.State, req protocol.EntryRequest) Receipt {
	wallet := g.Wallets.Ensure(s, req.WalletAddress)
	if !Debit(wallet, g.FeeMon) {
		return Receipt{OK: false, Reason: "Insufficient MON for entry fee", Balance: wallet.MonBalance}
	}
	return Receipt{
		OK:        true,
		Balance:   wallet.MonBalance,
		AmountMon: g.FeeMon,
		TxID:      makeTxID(req.WalletAddress, s.Tick),
	}
}

func makeTxID(walletAddress string, tick uint64) string {
	tag := walletAddress
	if len(tag) > 8 {
		tag = tag[:8]
	}
	return fmt.Sprintf("tx_entry_%s_t%d_%d", tag, tick, time.Now().UnixMilli())
}
