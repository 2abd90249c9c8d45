package protocol

import (
	"encoding/json"
	"fmt"
	"regexp"

	"monworld.ai/internal/sim/world"
)

// ValidationError marks a request rejected for shape or enum reasons. These
// never reach the action engine.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func failf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

var (
	idPattern     = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	txHashPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
)

func validAgentID(id string) bool { return idPattern.MatchString(id) }

// ParseEntryRequest decodes and validates an entry payload.
func ParseEntryRequest(payload []byte) (EntryRequest, error) {
	var req EntryRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, failf("entry payload must be a JSON object")
	}
	if !validAgentID(req.AgentID) {
		return req, failf("agentId must be 1-64 chars matching [a-zA-Z0-9_-]")
	}
	if n := len(req.WalletAddress); n < 1 || n > 128 {
		return req, failf("walletAddress must be 1-128 chars")
	}
	if req.PaymentTxHash != "" && !txHashPattern.MatchString(req.PaymentTxHash) {
		return req, failf("paymentTxHash must be a 0x-prefixed 32-byte hash")
	}
	return req, nil
}

// ParseActionRequest decodes and validates an action payload, including the
// per-action required parameters.
func ParseActionRequest(payload []byte) (ActionRequest, error) {
	var req ActionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, failf("action payload must be a JSON object")
	}
	if !validAgentID(req.AgentID) {
		return req, failf("agentId must be 1-64 chars matching [a-zA-Z0-9_-]")
	}
	if !KnownAction(req.Action) {
		return req, failf("action must be one of: move, gather, rest, trade, attack, vote, claim, sell, aid")
	}

	switch req.Action {
	case ActionMove:
		if !world.KnownLocation(req.Target) {
			return req, failf("target is required for move and must be one of: town, forest, cavern")
		}
	case ActionTrade:
		if !validAgentID(req.TargetAgentID) {
			return req, failf("targetAgentId is required for trade")
		}
		if req.ItemGive == "" || req.ItemTake == "" {
			return req, failf("itemGive and itemTake are required for trade")
		}
		if req.QtyGive <= 0 || req.QtyTake <= 0 {
			return req, failf("qtyGive and qtyTake must be positive integers for trade")
		}
	case ActionAttack:
		if !validAgentID(req.TargetAgentID) {
			return req, failf("targetAgentId is required for attack")
		}
	case ActionVote:
		if !world.KnownPolicy(req.VotePolicy) {
			return req, failf("votePolicy must be one of: neutral, cooperative, aggressive")
		}
	case ActionSell:
		// sell uses itemGive/qtyGive for the item sold to the world market.
		if req.ItemGive == "" {
			return req, failf("itemGive is required for sell")
		}
		if req.QtyGive <= 0 {
			return req, failf("qtyGive must be a positive integer for sell")
		}
	case ActionAid:
		if !validAgentID(req.TargetAgentID) {
			return req, failf("targetAgentId is required for aid")
		}
		if req.QtyGive < 0 {
			return req, failf("qtyGive must be a positive integer for aid")
		}
		if req.QtyGive > 0 && req.ItemGive == "" {
			return req, failf("itemGive is required when qtyGive is set for aid")
		}
	}
	return req, nil
}
