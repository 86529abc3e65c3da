// Package session implements the host-side session protocol: restore
// a rule module from a persisted snapshot, apply exactly one action,
// persist the new snapshot or finalize the session. Engine instances
// never outlive one call; this layer owns the serialization the
// engine deliberately does not provide.
package session

import (
	"errors"
	"time"

	"github.com/moltblox/gamekit/internal/engine"
)

// HistoryCap bounds the per-session action history and event buffer.
// Both drop the oldest entries once full.
const HistoryCap = 500

var (
	// ErrNotFound is returned for an unknown or expired session id.
	ErrNotFound = errors.New("session: not found")
	// ErrVersionConflict is returned when a write carries a stale
	// version: a concurrent submission won the race.
	ErrVersionConflict = errors.New("session: version conflict")
)

// Record is the persisted state of one live session.
type Record struct {
	ID        string               `json:"id"`
	GameID    string               `json:"game_id"`
	Config    engine.Config        `json:"config,omitempty"`
	PlayerIDs []string             `json:"player_ids"`
	Snapshot  engine.StateEnvelope `json:"snapshot"`
	Turn      int                  `json:"turn"`
	History   []HistoryEntry       `json:"history,omitempty"`
	Events    []engine.DomainEvent `json:"events,omitempty"`
	Ended     bool                 `json:"ended"`

	// Version increments on every write; stores reject stale writers.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryEntry is one accepted action in the bounded history.
type HistoryEntry struct {
	PlayerID string               `json:"player_id"`
	Action   engine.ActionRequest `json:"action"`
}

// appendBounded keeps at most cap entries, dropping the oldest.
func appendBounded[T any](buf []T, capN int, items ...T) []T {
	buf = append(buf, items...)
	if over := len(buf) - capN; over > 0 {
		buf = append(buf[:0], buf[over:]...)
	}
	return buf
}

// Clone deep-copies the record's slices so a caller cannot mutate the
// store's copy behind its back. Snapshot data is already an immutable
// byte slice by convention.
func (r *Record) Clone() *Record {
	cp := *r
	cp.PlayerIDs = append([]string(nil), r.PlayerIDs...)
	cp.History = append([]HistoryEntry(nil), r.History...)
	cp.Events = append([]engine.DomainEvent(nil), r.Events...)
	return &cp
}
