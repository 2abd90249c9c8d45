package economy

import (
	"math"
	"strings"
	"testing"
	"time"

	"monworld.ai/internal/protocol"
	"monworld.ai/internal/sim/world"
)

func newTestEntryService() *EntryService {
	e := NewEntryService(WalletGateway{
		Wallets: WalletService{InitialBalanceMon: 0.001},
		FeeMon:  0.0001,
	})
	e.Spawn = func() world.LocationID { return world.LocationTown }
	e.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestEnterCreatesAgentAndChargesFee(t *testing.T) {
	e := newTestEntryService()
	s := world.DefaultState()

	res := e.Enter(s, protocol.EntryRequest{AgentID: "alice", WalletAddress: "w_alice"})
	if !res.OK {
		t.Fatalf("entry failed: %s", res.Reason)
	}
	a := s.Agents["alice"]
	if a == nil {
		t.Fatal("agent not created")
	}
	if a.Energy != 10 || a.Reputation != 0 || a.Location != world.LocationTown {
		t.Fatalf("agent = %+v", a)
	}
	if a.EnteredAt != "2026-01-01T00:00:00Z" {
		t.Fatalf("enteredAt = %s", a.EnteredAt)
	}
	if got := s.Wallets["w_alice"].MonBalance; math.Abs(got-0.0009) > 1e-12 {
		t.Fatalf("balance = %v, want initial minus fee", got)
	}
	if got := s.Wallets[world.TreasuryAddress].MonBalance; math.Abs(got-0.0001) > 1e-12 {
		t.Fatalf("treasury = %v, want fee credited", got)
	}
	if s.Tick != 1 || len(s.Events) != 1 {
		t.Fatalf("tick=%d events=%d, want one entry event", s.Tick, len(s.Events))
	}
	if s.Events[0].Type != world.EventEntry {
		t.Fatalf("event type = %s", s.Events[0].Type)
	}
	if !strings.HasPrefix(res.TxID, "tx_entry_w_alice_") {
		t.Fatalf("txId = %s", res.TxID)
	}
}

func TestEnterIsIdempotentPerAgent(t *testing.T) {
	e := newTestEntryService()
	s := world.DefaultState()

	first := e.Enter(s, protocol.EntryRequest{AgentID: "alice", WalletAddress: "w_alice"})
	second := e.Enter(s, protocol.EntryRequest{AgentID: "alice", WalletAddress: "w_alice"})
	if !second.OK {
		t.Fatalf("re-entry failed: %s", second.Reason)
	}
	if got := s.Wallets["w_alice"].MonBalance; math.Abs(got-0.0009) > 1e-12 {
		t.Fatalf("balance = %v, re-entry must not charge again", got)
	}
	if len(s.Agents) != 1 || len(s.Events) != 1 {
		t.Fatal("re-entry must not create anything")
	}
	if second.Balance != first.Balance {
		t.Fatalf("balances differ: %v vs %v", first.Balance, second.Balance)
	}
}

func TestEnterRejectsInsufficientFunds(t *testing.T) {
	e := NewEntryService(WalletGateway{
		Wallets: WalletService{InitialBalanceMon: 0},
		FeeMon:  0.0001,
	})
	s := world.DefaultState()

	res := e.Enter(s, protocol.EntryRequest{AgentID: "alice", WalletAddress: "w_alice"})
	if res.OK {
		t.Fatal("entry should fail with an empty wallet")
	}
	if res.Reason != "Insufficient MON for entry fee" {
		t.Fatalf("reason = %q", res.Reason)
	}
	if len(s.Agents) != 0 || s.Tick != 0 {
		t.Fatal("failed entry must not create an agent")
	}
}

func TestEnterReplayGuardConsumesTxHashOnce(t *testing.T) {
	e := newTestEntryService()
	s := world.DefaultState()
	hash := "0x" + strings.Repeat("AB", 32)

	first := e.Enter(s, protocol.EntryRequest{AgentID: "alice", WalletAddress: "w_alice", PaymentTxHash: hash})
	if !first.OK {
		t.Fatalf("first entry failed: %s", first.Reason)
	}
	if s.ProcessedPaymentTxHashes[0] != strings.ToLower(hash) {
		t.Fatalf("hash recorded = %q, want lowercased", s.ProcessedPaymentTxHashes[0])
	}

	// Same proof, different agent: rejected even with case changed.
	second := e.Enter(s, protocol.EntryRequest{
		AgentID: "bob", WalletAddress: "w_bob", PaymentTxHash: strings.ToLower(hash),
	})
	if second.OK || second.Reason != "Payment transaction already used" {
		t.Fatalf("got %+v", second)
	}
	if _, ok := s.Agents["bob"]; ok {
		t.Fatal("replayed entry must not create an agent")
	}
}

func TestFaucetCreditsAndLogs(t *testing.T) {
	e := newTestEntryService()
	s := world.DefaultState()
	wallets := WalletService{InitialBalanceMon: 0}

	balance := e.Faucet(s, wallets, "w_demo", 0.01)
	if math.Abs(balance-0.01) > 1e-12 {
		t.Fatalf("balance = %v, want 0.01", balance)
	}
	if s.Tick != 1 || len(s.Events) != 1 || s.Events[0].Type != world.EventFaucet {
		t.Fatalf("faucet must tick and log, got tick=%d events=%v", s.Tick, s.Events)
	}

	// Non-positive amounts are a read, not a mutation.
	balance = e.Faucet(s, wallets, "w_demo", 0)
	if math.Abs(balance-0.01) > 1e-12 || s.Tick != 1 {
		t.Fatal("zero faucet must not mutate")
	}
}

func TestDebitRejectsOverdraft(t *testing.T) {
	w := &world.Wallet{Address: "w1", MonBalance: 0.0005}
	if Debit(w, 0.001) {
		t.Fatal("overdraft must be rejected")
	}
	if w.MonBalance != 0.0005 {
		t.Fatalf("balance = %v, failed debit must not change it", w.MonBalance)
	}
	if !Debit(w, 0.0005) {
		t.Fatal("exact debit should succeed")
	}
	if w.MonBalance != 0 {
		t.Fatalf("balance = %v, want 0", w.MonBalance)
	}
}
