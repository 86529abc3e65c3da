package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moltblox/gamekit/internal/engine"
)

// lockStripes bounds the striped per-session lock table.
const lockStripes = 64

// RandFactory supplies the randomness source handed to each engine
// instance. Tests inject deterministic streams.
type RandFactory func() engine.Rand

// Manager drives the restore → mutate once → persist cycle. Calls for
// the same session id are serialized by a striped mutex; the store's
// version check backstops any writer that slips past (for example a
// second host process sharing external storage).
type Manager struct {
	store   Store
	archive *Archive
	rand    RandFactory
	locks   [lockStripes]sync.Mutex
	log     zerolog.Logger
}

// NewManager wires a manager. archive may be nil when durable
// finalization is not wanted (tests, throwaway simulations).
func NewManager(store Store, archive *Archive, rand RandFactory, log zerolog.Logger) *Manager {
	if rand == nil {
		rand = func() engine.Rand { return engine.NewSystemRand() }
	}
	return &Manager{store: store, archive: archive, rand: rand, log: log}
}

func (m *Manager) stripe(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &m.locks[h.Sum32()%lockStripes]
}

// Create initializes a brand-new session for the given rule module
// and players, persists the opening snapshot, and returns the record.
func (m *Manager) Create(ctx context.Context, gameID string, playerIDs []string, cfg engine.Config) (*Record, error) {
	eng, err := engine.New(gameID, cfg, m.rand())
	if err != nil {
		return nil, err
	}
	if err := eng.Initialize(playerIDs); err != nil {
		return nil, err
	}
	snap := eng.Snapshot()
	rec := &Record{
		ID:        uuid.NewString(),
		GameID:    gameID,
		Config:    cfg,
		PlayerIDs: append([]string(nil), playerIDs...),
		Snapshot:  snap,
		Turn:      snap.Turn,
	}
	if err := m.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist new session: %w", err)
	}
	m.log.Info().
		Str("session_id", rec.ID).
		Str("game_id", gameID).
		Int("players", len(playerIDs)).
		Msg("session created")
	return rec, nil
}

// Submit applies exactly one action against the session: restore a
// fresh engine from the stored snapshot, call ApplyAction once,
// persist the returned state, discard the engine. A rejected action
// still persists (the state is unchanged by contract); a completed
// game is finalized to the archive in the same call.
func (m *Manager) Submit(ctx context.Context, sessionID, playerID string, action engine.ActionRequest) (engine.ActionResult, error) {
	lock := m.stripe(sessionID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return engine.ActionResult{}, err
	}
	if rec.Ended {
		return engine.Terminalf("session already ended"), nil
	}

	eng, err := m.restore(rec)
	if err != nil {
		return engine.ActionResult{}, err
	}

	res := eng.ApplyAction(playerID, action)
	if res.Success {
		snap := eng.Snapshot()
		rec.Snapshot = snap
		rec.Turn = snap.Turn
		rec.Ended = eng.IsOver()
		rec.History = appendBounded(rec.History, HistoryCap, HistoryEntry{PlayerID: playerID, Action: action})
		rec.Events = appendBounded(rec.Events, HistoryCap, res.Events...)
	}
	if err := m.store.Put(ctx, rec); err != nil {
		return engine.ActionResult{}, fmt.Errorf("persist session %s: %w", sessionID, err)
	}

	if res.Success && rec.Ended {
		winner, _ := eng.Winner()
		if err := m.finalize(ctx, rec, winner, eng.Scores()); err != nil {
			return engine.ActionResult{}, err
		}
	}

	m.log.Debug().
		Str("session_id", sessionID).
		Str("player_id", playerID).
		Str("action", action.Type).
		Bool("accepted", res.Success).
		Msg("action submitted")
	return res, nil
}

func (m *Manager) restore(rec *Record) (engine.Engine, error) {
	eng, err := engine.New(rec.GameID, rec.Config, m.rand())
	if err != nil {
		return nil, err
	}
	if err := eng.Restore(rec.PlayerIDs, rec.Snapshot.Data); err != nil {
		return nil, err
	}
	return eng, nil
}

func (m *Manager) finalize(ctx context.Context, rec *Record, winner string, scores map[string]float64) error {
	if m.archive != nil {
		if err := m.archive.Finalize(ctx, rec, winner, scores); err != nil {
			return fmt.Errorf("finalize session %s: %w", rec.ID, err)
		}
	}
	m.log.Info().
		Str("session_id", rec.ID).
		Str("game_id", rec.GameID).
		Str("winner", winner).
		Msg("session completed")
	return nil
}

// View projects the session state for one viewer without mutating
// anything.
func (m *Manager) View(ctx context.Context, sessionID, viewerID string) (engine.StateEnvelope, error) {
	rec, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return engine.StateEnvelope{}, err
	}
	eng, err := m.restore(rec)
	if err != nil {
		return engine.StateEnvelope{}, err
	}
	return eng.ViewFor(viewerID), nil
}

// Get returns a copy of the live session record.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Record, error) {
	return m.store.Get(ctx, sessionID)
}
