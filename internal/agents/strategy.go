package agents

import (
	"fmt"
	"sort"
	"time"

	"monworld.ai/internal/protocol"
	"monworld.ai/internal/sim/world"
)

// Profile is the fixed temperament of a rule-driven agent, derived from its id
// so restarts keep each agent in character.
type Profile string

const (
	ProfileMiner    Profile = "miner"
	ProfileTrader   Profile = "trader"
	ProfileRaider   Profile = "raider"
	ProfileGovernor Profile = "governor"
)

const minReputationForClaim = 2

var profiles = []Profile{ProfileMiner, ProfileTrader, ProfileRaider, ProfileGovernor}

func ProfileFor(agentID string) Profile {
	return profiles[hashID(agentID)%uint32(len(profiles))]
}

func hashID(id string) uint32 {
	var h uint32
	for i := 0; i < len(id); i++ {
		h = h*31 + uint32(id[i])
	}
	return h
}

func (p Profile) baseDelay() time.Duration {
	switch p {
	case ProfileRaider:
		return 1000 * time.Millisecond
	case ProfileTrader:
		return 2500 * time.Millisecond
	case ProfileGovernor:
		return 3000 * time.Millisecond
	default:
		return 2000 * time.Millisecond
	}
}

func (s *Service) chooseAction(st *world.State, a *world.Agent, profile Profile) protocol.ActionRequest {
	totalVotes := 0
	for _, n := range st.Governance.Votes {
		totalVotes += n
	}
	hasAggressiveVote := st.Governance.Votes[world.PolicyAggressive] > 0

	if a.Energy <= 1 {
		return protocol.ActionRequest{AgentID: a.ID, Action: protocol.ActionRest}
	}

	// Keep governance contested: make sure the aggressive column is not
	// permanently empty in small worlds.
	if !hasAggressiveVote && totalVotes >= 3 && totalVotes < 6 {
		return voteReq(a.ID, world.PolicyAggressive)
	}
	if totalVotes < 3 && s.rng.Float64() < 0.35 {
		policy := preferredVote(profile, st.Governance.ActivePolicy)
		if !hasAggressiveVote && s.rng.Float64() < 0.6 {
			policy = world.PolicyAggressive
		}
		return voteReq(a.ID, policy)
	}
	if !hasAggressiveVote && totalVotes >= 3 && totalVotes < 20 && s.rng.Float64() < 0.08 {
		return voteReq(a.ID, world.PolicyAggressive)
	}

	if a.Reputation >= minReputationForClaim {
		if a.Reputation < 6 || s.rng.Float64() < claimProbability(profile) {
			return protocol.ActionRequest{AgentID: a.ID, Action: protocol.ActionClaim}
		}
	}

	// Build reputation quickly before the first claim.
	if a.Reputation < minReputationForClaim && a.Energy >= 2 && s.rng.Float64() < 0.6 {
		return protocol.ActionRequest{AgentID: a.ID, Action: protocol.ActionGather}
	}

	if s.shouldPatrol(st, a.ID, profile) {
		return s.randomAdjacentMove(a)
	}
	if s.shouldVote(profile) {
		return voteReq(a.ID, preferredVote(profile, st.Governance.ActivePolicy))
	}
	if s.shouldRoam(profile) {
		return s.randomAdjacentMove(a)
	}

	colocated := colocatedAgents(st, a)

	switch profile {
	case ProfileRaider:
		if len(colocated) > 0 && a.Energy >= 2 {
			target := colocated[s.rng.Intn(len(colocated))]
			return protocol.ActionRequest{AgentID: a.ID, Action: protocol.ActionAttack, TargetAgentID: target.ID}
		}
		if s.rng.Float64() < 0.75 {
			return moveToward(a, world.LocationForest)
		}
		return s.randomAdjacentMove(a)

	case ProfileTrader:
		if trade, ok := chooseTrade(a, colocated); ok {
			return trade
		}
		if s.rng.Float64() < 0.65 {
			return moveToward(a, world.LocationTown)
		}
		return s.randomAdjacentMove(a)

	case ProfileMiner:
		if a.Location != world.LocationCavern && s.rng.Float64() < 0.7 {
			return moveToward(a, world.LocationCavern)
		}
		if a.Location == world.LocationCavern && s.rng.Float64() < 0.22 {
			return s.randomAdjacentMove(a)
		}
		return protocol.ActionRequest{AgentID: a.ID, Action: protocol.ActionGather}

	default: // governor
		if trade, ok := chooseTrade(a, colocated); ok {
			return trade
		}
		if s.rng.Float64() < 0.55 {
			return moveToward(a, world.LocationTown)
		}
		if s.rng.Float64() < 0.25 {
			return s.randomAdjacentMove(a)
		}
		return protocol.ActionRequest{AgentID: a.ID, Action: protocol.ActionGather}
	}
}

func (s *Service) fallbackAction(st *world.State, a *world.Agent, profile Profile) protocol.ActionRequest {
	switch profile {
	case ProfileRaider:
		return moveToward(a, world.LocationForest)
	case ProfileTrader:
		return moveToward(a, world.LocationTown)
	case ProfileMiner:
		return moveToward(a, world.LocationCavern)
	}
	if s.rng.Float64() < 0.5 {
		return s.randomAdjacentMove(a)
	}
	return protocol.ActionRequest{AgentID: a.ID, Action: protocol.ActionGather}
}

func chooseTrade(a *world.Agent, colocated []*world.Agent) (protocol.ActionRequest, bool) {
	give, ok := firstItem(a.Inventory, "")
	if !ok {
		return protocol.ActionRequest{}, false
	}
	for _, target := range colocated {
		take, ok := firstItem(target.Inventory, give)
		if !ok {
			continue
		}
		return protocol.ActionRequest{
			AgentID:       a.ID,
			Action:        protocol.ActionTrade,
			TargetAgentID: target.ID,
			ItemGive:      give,
			QtyGive:       1,
			ItemTake:      take,
			QtyTake:       1,
		}, true
	}
	return protocol.ActionRequest{}, false
}

// firstItem returns the alphabetically first held item, optionally excluding
// one name. Sorted order keeps trades reproducible under a seeded rng.
func firstItem(inventory map[string]int, excluded string) (string, bool) {
	names := make([]string, 0, len(inventory))
	for name, qty := range inventory {
		if qty > 0 && name != excluded {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}

func colocatedAgents(st *world.State, a *world.Agent) []*world.Agent {
	ids := make([]string, 0, len(st.Agents))
	for id, other := range st.Agents {
		if id != a.ID && other.Location == a.Location {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]*world.Agent, 0, len(ids))
	for _, id := range ids {
		out = append(out, st.Agents[id])
	}
	return out
}

func moveToward(a *world.Agent, desired world.LocationID) protocol.ActionRequest {
	if a.Location == desired {
		return protocol.ActionRequest{AgentID: a.ID, Action: protocol.ActionGather}
	}
	next := world.NextHopToward(a.Location, desired)
	return protocol.ActionRequest{AgentID: a.ID, Action: protocol.ActionMove, Target: next}
}

func (s *Service) randomAdjacentMove(a *world.Agent) protocol.ActionRequest {
	options := world.Adjacent(a.Location)
	target := options[s.rng.Intn(len(options))]
	return protocol.ActionRequest{AgentID: a.ID, Action: protocol.ActionMove, Target: target}
}

func voteReq(agentID string, policy world.Policy) protocol.ActionRequest {
	return protocol.ActionRequest{AgentID: agentID, Action: protocol.ActionVote, VotePolicy: policy}
}

func claimProbability(profile Profile) float64 {
	switch profile {
	case ProfileTrader:
		return 0.32
	case ProfileMiner:
		return 0.22
	case ProfileGovernor:
		return 0.25
	default:
		return 0.12
	}
}

func (s *Service) shouldRoam(profile Profile) bool {
	switch profile {
	case ProfileRaider:
		return s.rng.Float64() < 0.45
	case ProfileTrader:
		return s.rng.Float64() < 0.35
	case ProfileGovernor:
		return s.rng.Float64() < 0.3
	default:
		return s.rng.Float64() < 0.25
	}
}

// shouldPatrol staggers movement by agent so the population does not shuffle
// in lockstep: each agent patrols on its own phase of a profile cadence.
func (s *Service) shouldPatrol(st *world.State, agentID string, profile Profile) bool {
	cadence := uint64(4)
	switch profile {
	case ProfileRaider:
		cadence = 3
	case ProfileGovernor:
		cadence = 5
	}
	phase := uint64(hashID(agentID)) % cadence
	return st.Tick%cadence == phase
}

func (s *Service) shouldVote(profile Profile) bool {
	switch profile {
	case ProfileGovernor:
		return s.rng.Float64() < 0.4
	case ProfileRaider:
		return s.rng.Float64() < 0.22
	case ProfileTrader:
		return s.rng.Float64() < 0.14
	case ProfileMiner:
		return s.rng.Float64() < 0.09
	default:
		return s.rng.Float64() < 0.06
	}
}

func preferredVote(profile Profile, current world.Policy) world.Policy {
	switch profile {
	case ProfileGovernor:
		if current == world.PolicyAggressive {
			return world.PolicyNeutral
		}
		return world.PolicyCooperative
	case ProfileRaider:
		return world.PolicyAggressive
	case ProfileTrader:
		return world.PolicyCooperative
	default:
		return world.PolicyNeutral
	}
}

// renderReasoning narrates the decision for the live feed, separating the
// agent's intent from the engine's outcome event.
func renderReasoning(st *world.State, a *world.Agent, profile Profile, req protocol.ActionRequest) string {
	var balance float64
	if w, ok := st.Wallets[a.WalletAddress]; ok {
		balance = w.MonBalance
	}
	ctx := fmt.Sprintf("Context: profile=%s, policy=%s, location=%s, energy=%d, rep=%d, invUnits=%d, mon=%.6f.",
		profile, st.Governance.ActivePolicy, a.Location, a.Energy, a.Reputation, a.InventoryUnits(), balance)

	switch req.Action {
	case protocol.ActionRest:
		return fmt.Sprintf("I chose rest to recover energy and avoid failed actions. %s", ctx)
	case protocol.ActionGather:
		return fmt.Sprintf("I chose gather to convert energy into inventory and reputation. %s", ctx)
	case protocol.ActionMove:
		return fmt.Sprintf("I chose move to reposition for better yields and interactions (target=%s). %s", req.Target, ctx)
	case protocol.ActionTrade:
		return fmt.Sprintf("I chose trade to diversify inventory and build reputation (targetAgent=%s). %s", req.TargetAgentID, ctx)
	case protocol.ActionAttack:
		return fmt.Sprintf("I chose attack to pressure nearby rivals and potentially steal resources (targetAgent=%s). %s", req.TargetAgentID, ctx)
	case protocol.ActionVote:
		return fmt.Sprintf("I chose vote to shift governance toward my preferred policy (vote=%s). %s", req.VotePolicy, ctx)
	case protocol.ActionClaim:
		return fmt.Sprintf("I chose claim to convert reputation into MON while the policy multiplier is favorable. %s", ctx)
	default:
		return fmt.Sprintf("I chose %s. %s", req.Action, ctx)
	}
}
