package engine

import (
	"fmt"
	"sort"
	"strings"

	"monworld.ai/internal/protocol"
	"monworld.ai/internal/sim/world"
)

const maxEnergy = 10

func (e *Engine) resolveRest(s *world.State, req protocol.ActionRequest, a *world.Agent) Result {
	a.Energy += 3
	if a.Energy > maxEnergy {
		a.Energy = maxEnergy
	}
	return e.commit(s, a, "rest", "Agent recovered energy", "Rested successfully")
}

func (e *Engine) resolveVote(s *world.State, req protocol.ActionRequest, a *world.Agent) Result {
	if !world.KnownPolicy(req.VotePolicy) {
		return Result{OK: false, Message: "votePolicy is required for vote action"}
	}
	s.Governance.Votes[req.VotePolicy]++
	s.Governance.ActivePolicy = world.PickPolicy(s.Governance.Votes, s.Governance.ActivePolicy)
	msg := fmt.Sprintf("Voted for %s; active policy is now %s", req.VotePolicy, s.Governance.ActivePolicy)
	return e.commit(s, a, "vote", msg,
		fmt.Sprintf("Vote accepted. Active policy: %s", s.Governance.ActivePolicy))
}

func (e *Engine) resolveClaim(s *world.State, req protocol.ActionRequest, a *world.Agent) Result {
	rewardUnits := a.Reputation / 2
	if rewardUnits <= 0 {
		return Result{OK: false, Message: "Not enough reputation to claim rewards"}
	}

	rewardMon := round4(float64(rewardUnits) * e.cfg.RewardPerUnitMon * world.PolicyMultiplier(s.Governance.ActivePolicy))
	wallet := s.Wallet(a.WalletAddress)
	wallet.MonBalance = round6(wallet.MonBalance + rewardMon)
	a.Reputation -= rewardUnits * 2
	debitTreasury(s, rewardMon)

	msg := fmt.Sprintf("Claimed %g MON from reputation rewards", rewardMon)
	return e.commit(s, a, "claim", msg, fmt.Sprintf("Claimed %g MON", rewardMon))
}

func (e *Engine) resolveSell(s *world.State, req protocol.ActionRequest, a *world.Agent) Result {
	if a.Location != world.MarketLocation {
		return Result{OK: false, Message: fmt.Sprintf("Selling requires being at the %s market", world.MarketLocation)}
	}
	item := strings.ToLower(req.ItemGive)
	price, ok := s.Economy.MarketPricesMon[item]
	if !ok {
		return Result{OK: false, Message: fmt.Sprintf("No market price for %s", item)}
	}
	if !world.RemoveItems(a.Inventory, map[string]int{item: req.QtyGive}) {
		return Result{OK: false, Message: fmt.Sprintf("Not enough %s to sell", item)}
	}

	proceeds := round6(float64(req.QtyGive) * price * world.PolicyMultiplier(s.Governance.ActivePolicy))
	wallet := s.Wallet(a.WalletAddress)
	wallet.MonBalance = round6(wallet.MonBalance + proceeds)
	debitTreasury(s, proceeds)

	msg := fmt.Sprintf("Sold %d %s for %g MON", req.QtyGive, item, proceeds)
	return e.commit(s, a, "sell", msg, msg)
}

func (e *Engine) resolveMove(s *world.State, req protocol.ActionRequest, a *world.Agent) Result {
	if req.Target == "" {
		return Result{OK: false, Message: "Move action requires target location"}
	}
	if !world.CanMove(a.Location, req.Target) {
		return Result{OK: false, Message: fmt.Sprintf("Cannot move from %s to %s", a.Location, req.Target)}
	}
	a.Location = req.Target
	a.Energy--
	msg := fmt.Sprintf("Moved to %s", req.Target)
	return e.commit(s, a, "move", msg, msg)
}

func (e *Engine) resolveGather(s *world.State, req protocol.ActionRequest, a *world.Agent) Result {
	if a.Energy < 2 {
		return Result{OK: false, Message: "Not enough energy to gather, use rest"}
	}

	loot := world.GatherYield(a.Location)
	if s.Governance.ActivePolicy == world.PolicyCooperative {
		for item := range loot {
			loot[item]++
		}
	}
	world.AddItems(a.Inventory, loot)
	a.Energy -= 2
	a.Reputation++

	// The governor recomputes per-item gather volume from these fragments.
	msg := fmt.Sprintf("Gathered resources at %s (%s)", a.Location, lootFragments(loot))
	return e.commit(s, a, "gather", msg, fmt.Sprintf("Gathered %s", lootNames(loot)))
}

func (e *Engine) resolveTrade(s *world.State, req protocol.ActionRequest, a *world.Agent) Result {
	target, ok := s.Agents[req.TargetAgentID]
	if !ok {
		return Result{OK: false, Message: "Trade target agent not found"}
	}
	if target.ID == a.ID {
		return Result{OK: false, Message: "Cannot trade with self"}
	}
	if target.Location != a.Location {
		return Result{OK: false, Message: "Trade requires both agents at same location"}
	}
	if req.ItemGive == "" || req.ItemTake == "" || req.QtyGive <= 0 || req.QtyTake <= 0 {
		return Result{OK: false, Message: "Trade requires itemGive/itemTake and qtyGive/qtyTake"}
	}

	// Optimistic exchange: take the initiator's leg first and roll it back if
	// the responder cannot cover theirs, so either both legs land or neither.
	actorGive := map[string]int{req.ItemGive: req.QtyGive}
	targetGive := map[string]int{req.ItemTake: req.QtyTake}
	if !world.RemoveItems(a.Inventory, actorGive) {
		return Result{OK: false, Message: fmt.Sprintf("Not enough %s to trade", req.ItemGive)}
	}
	if !world.RemoveItems(target.Inventory, targetGive) {
		world.AddItems(a.Inventory, actorGive)
		return Result{OK: false, Message: fmt.Sprintf("%s has insufficient %s", target.ID, req.ItemTake)}
	}
	world.AddItems(a.Inventory, targetGive)
	world.AddItems(target.Inventory, actorGive)

	a.Energy--
	reward := s.Economy.TradeReputationReward
	if s.Governance.ActivePolicy == world.PolicyCooperative {
		reward++
	}
	a.Reputation += reward
	target.Reputation += reward

	msg := fmt.Sprintf("Traded with %s: gave %d %s, received %d %s",
		target.ID, req.QtyGive, req.ItemGive, req.QtyTake, req.ItemTake)
	return e.commit(s, a, "trade", msg, fmt.Sprintf("Trade completed with %s", target.ID))
}

func (e *Engine) resolveAttack(s *world.State, req protocol.ActionRequest, a *world.Agent) Result {
	target, ok := s.Agents[req.TargetAgentID]
	if !ok {
		return Result{OK: false, Message: "Attack target agent not found"}
	}
	if target.ID == a.ID {
		return Result{OK: false, Message: "Cannot attack self"}
	}
	if target.Location != a.Location {
		return Result{OK: false, Message: "Attack requires both agents at same location"}
	}
	if a.Energy < 2 {
		return Result{OK: false, Message: "Not enough energy to attack"}
	}

	damage := 2
	penaltyScale := 1.0
	if s.Governance.ActivePolicy == world.PolicyAggressive {
		damage = 4
		penaltyScale = 2
	}
	target.Energy -= damage
	if target.Energy < 0 {
		target.Energy = 0
	}
	a.Energy -= 2
	if a.Reputation > 0 {
		a.Reputation--
	}

	stolen := world.TakeOneItem(target.Inventory)
	if stolen != "" {
		world.AddItems(a.Inventory, map[string]int{stolen: 1})
	}

	// The world fines the attacker into the treasury, capped at their balance.
	wallet := s.Wallet(a.WalletAddress)
	penalty := round6(s.Economy.AttackPenaltyMon * penaltyScale)
	if penalty > wallet.MonBalance {
		penalty = wallet.MonBalance
	}
	if penalty > 0 {
		wallet.MonBalance = round6(wallet.MonBalance - penalty)
		treasury := s.Wallet(world.TreasuryAddress)
		treasury.MonBalance = round6(treasury.MonBalance + penalty)
	}

	msg := fmt.Sprintf("Attacked %s for %d damage", target.ID, damage)
	if stolen != "" {
		msg += fmt.Sprintf(" and stole 1 %s", stolen)
	}
	return e.commit(s, a, "attack", msg, fmt.Sprintf("Attacked %s", target.ID))
}

func (e *Engine) resolveAid(s *world.State, req protocol.ActionRequest, a *world.Agent) Result {
	target, ok := s.Agents[req.TargetAgentID]
	if !ok {
		return Result{OK: false, Message: "Aid target agent not found"}
	}
	if target.ID == a.ID {
		return Result{OK: false, Message: "Cannot aid self"}
	}
	if target.Location != a.Location {
		return Result{OK: false, Message: "Aid requires both agents at same location"}
	}

	var gift string
	if req.ItemGive != "" {
		qty := req.QtyGive
		if qty <= 0 {
			qty = 1
		}
		if !world.RemoveItems(a.Inventory, map[string]int{req.ItemGive: qty}) {
			return Result{OK: false, Message: fmt.Sprintf("Not enough %s to give", req.ItemGive)}
		}
		world.AddItems(target.Inventory, map[string]int{req.ItemGive: qty})
		gift = fmt.Sprintf("gave %d %s", qty, req.ItemGive)
	} else if item := world.TakeOneItem(a.Inventory); item != "" {
		world.AddItems(target.Inventory, map[string]int{item: 1})
		gift = fmt.Sprintf("donated 1 %s", item)
	} else {
		// Nothing to give: share energy instead.
		if target.Energy < maxEnergy {
			target.Energy++
		}
		gift = "restored 1 energy"
	}

	reward := s.Economy.AidReputationReward
	if s.Governance.ActivePolicy == world.PolicyCooperative {
		reward++
	}
	a.Reputation += reward
	target.Reputation += reward

	msg := fmt.Sprintf("Aided %s: %s", target.ID, gift)
	return e.commit(s, a, "aid", msg, msg)
}

// debitTreasury funds a payout from the treasury, flooring it at zero. The
// wallet non-negativity invariant wins over strict zero-sum when the treasury
// is underfunded.
func debitTreasury(s *world.State, amount float64) {
	treasury := s.Wallet(world.TreasuryAddress)
	treasury.MonBalance = round6(treasury.MonBalance - amount)
	if treasury.MonBalance < 0 {
		treasury.MonBalance = 0
	}
}

func lootFragments(loot map[string]int) string {
	items := make([]string, 0, len(loot))
	for item := range loot {
		items = append(items, item)
	}
	sort.Strings(items)
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("+%s:%d", item, loot[item]))
	}
	return strings.Join(parts, " ")
}

func lootNames(loot map[string]int) string {
	items := make([]string, 0, len(loot))
	for item := range loot {
		items = append(items, item)
	}
	sort.Strings(items)
	return strings.Join(items, ", ")
}
