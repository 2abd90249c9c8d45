// Package protocol defines the wire-facing request shapes and their strict
// parsers. Shape and enum validation lives here, upstream of the action
// engine; the engine re-checks domain legality (adjacency, quantities,
// co-location) against current state.
package protocol

import (
	"monworld.ai/internal/sim/world"
)

const Version = "v1"

type ActionType string

const (
	ActionMove   ActionType = "move"
	ActionGather ActionType = "gather"
	ActionRest   ActionType = "rest"
	ActionTrade  ActionType = "trade"
	ActionAttack ActionType = "attack"
	ActionVote   ActionType = "vote"
	ActionClaim  ActionType = "claim"
	ActionSell   ActionType = "sell"
	ActionAid    ActionType = "aid"
)

func Actions() []ActionType {
	return []ActionType{
		ActionMove, ActionGather, ActionRest, ActionTrade, ActionAttack,
		ActionVote, ActionClaim, ActionSell, ActionAid,
	}
}

func KnownAction(a ActionType) bool {
	for _, known := range Actions() {
		if a == known {
			return true
		}
	}
	return false
}

// EntryRequest asks to join the world. PaymentTxHash is only set by gateways
// that verify an external payment; the ledger gateway leaves it empty.
type EntryRequest struct {
	AgentID       string `json:"agentId"`
	WalletAddress string `json:"walletAddress"`
	PaymentTxHash string `json:"paymentTxHash,omitempty"`
}

// ActionRequest is one discrete action by one agent. Optional fields are only
// meaningful for the actions that declare them.
type ActionRequest struct {
	AgentID       string           `json:"agentId"`
	Action        ActionType       `json:"action"`
	Target        world.LocationID `json:"target,omitempty"`
	TargetAgentID string           `json:"targetAgentId,omitempty"`
	ItemGive      string           `json:"itemGive,omitempty"`
	QtyGive       int              `json:"qtyGive,omitempty"`
	ItemTake      string           `json:"itemTake,omitempty"`
	QtyTake       int              `json:"qtyTake,omitempty"`
	VotePolicy    world.Policy     `json:"votePolicy,omitempty"`
}

// Descriptor is the machine-readable protocol summary served at /protocol.
func Descriptor(entryFeeMon float64, storeMode string) map[string]any {
	actions := make([]string, 0, len(Actions()))
	for _, a := range Actions() {
		actions = append(actions, string(a))
	}
	locations := make([]string, 0, 3)
	for _, l := range world.Locations() {
		locations = append(locations, string(l))
	}
	return map[string]any{
		"version":     Version,
		"entryFeeMon": entryFeeMon,
		"actions":     actions,
		"locations":   locations,
		"persistence": map[string]any{
			"mode":      storeMode,
			"supported": []string{"json", "sqlite"},
		},
		"endpoints": map[string]string{
			"health":    "GET /health",
			"protocol":  "GET /protocol",
			"state":     "GET /state",
			"agentById": "GET /agents/{id}",
			"events":    "GET /events (SSE)",
			"ws":        "GET /ws (websocket)",
			"entry":     "POST /entry",
			"faucet":    "POST /faucet",
			"action":    "POST /action",
			"snapshot":  "POST /snapshot",
		},
	}
}
