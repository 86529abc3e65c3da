// Package engine defines the uniform contract every rule module
// implements, plus the registry and shared primitives (payload
// decoding, failure kinds, injectable randomness) that keep the host
// ignorant of any specific game's internals.
package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Engine is the lifecycle contract implemented by every rule module.
//
// An instance is intentionally cheap and short-lived: construct,
// Initialize or Restore, at most one ApplyAction, read
// Snapshot/ViewFor/IsOver/Winner/Scores, discard. Instances hold no
// locks and guarantee nothing about concurrent access; the session
// layer serializes calls per session.
type Engine interface {
	// Spec returns static metadata about the rule module.
	Spec() ModuleSpec

	// Initialize sets up a brand-new game for the given players.
	// Player list order is fixed for the life of the session.
	Initialize(playerIDs []string) error

	// Restore rebuilds state from a persisted snapshot. It never
	// re-runs Initialize logic: no reshuffling, no rerolling.
	Restore(playerIDs []string, data json.RawMessage) error

	// ApplyAction is the only mutator. Any rule violation returns a
	// failed result with zero mutation.
	ApplyAction(playerID string, action ActionRequest) ActionResult

	// Snapshot returns the full authoritative state.
	Snapshot() StateEnvelope

	// ViewFor returns the state as the given viewer is allowed to see
	// it. Pure: never mutates, never leaks concealed fields beyond
	// what the game's rules explicitly reveal.
	ViewFor(playerID string) StateEnvelope

	IsOver() bool

	// Winner returns the winning player id once the game is over.
	// The second return is false while the game is running, and for
	// draws or cooperative losses.
	Winner() (string, bool)

	// Scores returns a running total per player id, callable mid-game.
	Scores() map[string]float64
}

// ModuleSpec describes a registered rule module.
type ModuleSpec struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MinPlayers int    `json:"min_players"`
	MaxPlayers int    `json:"max_players"`
}

// Factory builds a fresh engine instance. Config is applied at
// construction and immutable afterwards; rng is the only source of
// randomness rule logic may draw from.
type Factory func(cfg Config, rng Rand) (Engine, error)

var registry = make(map[string]Factory)

// Register adds a rule module factory under its id. Called from each
// module package's init.
func Register(id string, f Factory) {
	if _, dup := registry[id]; dup {
		panic(fmt.Sprintf("engine: duplicate module id %q", id))
	}
	registry[id] = f
}

// New constructs an engine for the given module id.
func New(id string, cfg Config, rng Rand) (Engine, error) {
	f, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("engine: unknown module id %q", id)
	}
	return f(cfg, rng)
}

// List returns all registered module ids, sorted.
func List() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
