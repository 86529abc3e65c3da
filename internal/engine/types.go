package engine

import (
	"encoding/json"
	"time"
)

// StateEnvelope is the uniform wrapper around a rule module's state.
// Data is module-specific but always JSON-serializable; Phase
// distinguishes at minimum "playing" from "ended". Player order is
// fixed at initialize time and is semantically load-bearing (turn
// order, team parity via index, dealer rotation).
type StateEnvelope struct {
	Phase   string          `json:"phase"`
	Data    json.RawMessage `json:"data"`
	Turn    int             `json:"turn"`
	Players []string        `json:"players"`
	Events  []DomainEvent   `json:"events,omitempty"`
}

// ActionRequest is a single player action submitted to a rule module.
type ActionRequest struct {
	Type      string    `json:"type"`
	Payload   Payload   `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ActionResult reports the outcome of exactly one ApplyAction call.
// A failed result carries zero mutation: the module's snapshot is
// byte-identical to its value before the call.
type ActionResult struct {
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	Kind     FailKind       `json:"kind,omitempty"`
	NewState *StateEnvelope `json:"new_state,omitempty"`
	Events   []DomainEvent  `json:"events,omitempty"`
}

// DomainEvent is a small structured record of a notable in-game
// occurrence. It carries a minimal payload, not a state diff.
type DomainEvent struct {
	Type    string         `json:"type"`
	ActorID string         `json:"actor_id,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Turn    int            `json:"turn"`
}

// PhaseEnded is the terminal phase shared by every rule module.
// Non-terminal phase sets are module-specific.
const PhaseEnded = "ended"
