// Package engine resolves discrete agent actions into world state
// transitions. Resolve is pure over (state, request) apart from wall-clock
// reads for cooldown bookkeeping, which live in an engine-private side table
// and never persist with the world document.
package engine

import (
	"fmt"
	"math"
	"time"

	"monworld.ai/internal/protocol"
	"monworld.ai/internal/sim/world"
)

type Config struct {
	RewardPerUnitMon float64
	PassiveDripMon   float64
	CooldownMin      time.Duration
	CooldownMax      time.Duration
}

// Result is the structured outcome of one resolution. Failed resolutions are
// values, not errors: they carry a message and guarantee no state change.
type Result struct {
	OK       bool             `json:"ok"`
	Message  string           `json:"message"`
	Tick     uint64           `json:"tick,omitempty"`
	Energy   int              `json:"energy,omitempty"`
	Location world.LocationID `json:"location,omitempty"`
}

type Engine struct {
	cfg Config
	now func() time.Time

	// nextAllowedAt is the per-agent throttle table. It is only touched from
	// inside a store-serialized mutator, so it needs no locking of its own.
	nextAllowedAt map[string]time.Time
}

func New(cfg Config) *Engine {
	if cfg.CooldownMin <= 0 {
		cfg.CooldownMin = 5 * time.Second
	}
	if cfg.CooldownMax < cfg.CooldownMin {
		cfg.CooldownMax = cfg.CooldownMin
	}
	if cfg.RewardPerUnitMon < 0 {
		cfg.RewardPerUnitMon = 0
	}
	return &Engine{
		cfg:           cfg,
		now:           time.Now,
		nextAllowedAt: map[string]time.Time{},
	}
}

type handlerFunc func(e *Engine, s *world.State, req protocol.ActionRequest, a *world.Agent) Result

var actionHandlers = map[protocol.ActionType]handlerFunc{
	protocol.ActionRest:   (*Engine).resolveRest,
	protocol.ActionVote:   (*Engine).resolveVote,
	protocol.ActionClaim:  (*Engine).resolveClaim,
	protocol.ActionSell:   (*Engine).resolveSell,
	protocol.ActionMove:   (*Engine).resolveMove,
	protocol.ActionGather: (*Engine).resolveGather,
	protocol.ActionTrade:  (*Engine).resolveTrade,
	protocol.ActionAttack: (*Engine).resolveAttack,
	protocol.ActionAid:    (*Engine).resolveAid,
}

// needsEnergy marks the physical actions that require energy > 0 up front.
var needsEnergy = map[protocol.ActionType]bool{
	protocol.ActionMove:   true,
	protocol.ActionGather: true,
	protocol.ActionTrade:  true,
	protocol.ActionAttack: true,
	protocol.ActionAid:    true,
}

// Resolve validates preconditions, applies the transition and appends exactly
// one audit event on success. It must only be called from inside a store
// Update mutator.
func (e *Engine) Resolve(s *world.State, req protocol.ActionRequest) Result {
	agent, ok := s.Agents[req.AgentID]
	if !ok {
		return Result{OK: false, Message: "Agent has not entered the world"}
	}

	// Throttle check comes before every other precondition.
	now := e.now()
	if next, ok := e.nextAllowedAt[agent.ID]; ok && now.Before(next) {
		waitSec := int(math.Ceil(next.Sub(now).Seconds()))
		if waitSec < 1 {
			waitSec = 1
		}
		return Result{OK: false, Message: fmt.Sprintf("Agent is planning. Try again in %ds", waitSec)}
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		return Result{OK: false, Message: "Unsupported action"}
	}
	if needsEnergy[req.Action] && agent.Energy <= 0 {
		return Result{OK: false, Message: "Agent is too tired, use rest"}
	}
	return handler(e, s, req, agent)
}

// commit finalizes a successful transition: tick, passive drip, audit event,
// cooldown bump. Exactly one commit happens per successful resolution.
func (e *Engine) commit(s *world.State, a *world.Agent, eventType, eventMsg, resultMsg string) Result {
	s.Tick++
	e.applyPassiveDrip(s, a.WalletAddress)
	s.AppendEvent(s.Tick, a.ID, eventType, eventMsg)
	e.bumpCooldown(s, a)
	return Result{
		OK:       true,
		Message:  resultMsg,
		Tick:     s.Tick,
		Energy:   a.Energy,
		Location: a.Location,
	}
}

func (e *Engine) applyPassiveDrip(s *world.State, walletAddress string) {
	if e.cfg.PassiveDripMon <= 0 {
		return
	}
	w := s.Wallet(walletAddress)
	w.MonBalance = round6(w.MonBalance + e.cfg.PassiveDripMon)
}

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
