package world

import (
	"fmt"
	"time"
)

// Event type tags beyond the action names themselves.
const (
	EventEntry     = "entry"
	EventFaucet    = "faucet"
	EventGovernor  = "world_governor"
	EventReasoning = "reasoning"
)

// NewEvent builds an audit event. seq is the 1-based position the event will
// take in the log, which together with the tick yields a stable ordering key.
func NewEvent(seq int, tick uint64, agentID, eventType, message string) Event {
	return Event{
		ID:      fmt.Sprintf("evt_t%d_%d", tick, seq),
		At:      time.Now().UTC().Format(time.RFC3339Nano),
		AgentID: agentID,
		Type:    eventType,
		Message: message,
	}
}

// AppendEvent appends a new audit event to the state's log.
func (s *State) AppendEvent(tick uint64, agentID, eventType, message string) {
	s.Events = append(s.Events, NewEvent(len(s.Events)+1, tick, agentID, eventType, message))
}
