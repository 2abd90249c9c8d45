package engine

import (
	"time"

	"monworld.ai/internal/sim/world"
)

// cooldownFor computes the adaptive pacing for an agent's next action. Each
// wealth factor is capped so no single one dominates, and critically low
// energy shortens the wait so an exhausted agent can reach rest sooner.
func (e *Engine) cooldownFor(s *world.State, a *world.Agent) time.Duration {
	balance := 0.0
	if w, ok := s.Wallets[a.WalletAddress]; ok {
		balance = w.MonBalance
	}
	if balance > 1 {
		balance = 1
	}

	invUnits := a.InventoryUnits()
	if invUnits > 30 {
		invUnits = 30
	}
	rep := a.Reputation
	if rep < 0 {
		rep = 0
	}
	if rep > 10 {
		rep = 10
	}

	monDelay := time.Duration(balance * 7000 * float64(time.Millisecond))
	invDelay := time.Duration(invUnits) * 220 * time.Millisecond
	repDelay := time.Duration(rep) * 150 * time.Millisecond
	var urgencyDiscount time.Duration
	if a.Energy <= 2 {
		urgencyDiscount = 1500 * time.Millisecond
	}

	cooldown := e.cfg.CooldownMin + monDelay + invDelay + repDelay - urgencyDiscount
	if cooldown < e.cfg.CooldownMin {
		cooldown = e.cfg.CooldownMin
	}
	if cooldown > e.cfg.CooldownMax {
		cooldown = e.cfg.CooldownMax
	}
	return cooldown
}

func (e *Engine) bumpCooldown(s *world.State, a *world.Agent) {
	e.nextAllowedAt[a.ID] = e.now().Add(e.cooldownFor(s, a))
}

// NextAllowedAt exposes the throttle deadline for an agent, primarily for
// transports that want to hint callers when to retry.
func (e *Engine) NextAllowedAt(agentID string) (time.Time, bool) {
	t, ok := e.nextAllowedAt[agentID]
	return t, ok
}
