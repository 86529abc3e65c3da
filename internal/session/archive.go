package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/moltblox/gamekit/internal/engine"
)

// Archive stores completed sessions durably. The final score and
// winner are written in one transaction together with the closing
// snapshot and event buffer.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (creating if needed) the sqlite archive at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// WAL for concurrent readers during finalization bursts.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error { return a.db.Close() }

func (a *Archive) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL,
			player_ids TEXT NOT NULL,
			winner TEXT,
			scores TEXT NOT NULL,
			snapshot TEXT NOT NULL,
			turns INTEGER NOT NULL,
			ended_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			type TEXT NOT NULL,
			actor_id TEXT,
			payload TEXT,
			turn INTEGER NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_game ON sessions(game_id)`,
	}
	for _, m := range migrations {
		if _, err := a.db.Exec(m); err != nil {
			return fmt.Errorf("archive migration failed: %w", err)
		}
	}
	return nil
}

// Finalize persists the completed session atomically: session row and
// buffered events commit together or not at all.
func (a *Archive) Finalize(ctx context.Context, rec *Record, winner string, scores map[string]float64) error {
	players, err := json.Marshal(rec.PlayerIDs)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	snapshot, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}
	defer tx.Rollback()

	var winnerArg any
	if winner != "" {
		winnerArg = winner
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, game_id, player_ids, winner, scores, snapshot, turns, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.GameID, string(players), winnerArg, string(scoresJSON),
		string(snapshot), rec.Turn, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	for _, ev := range rec.Events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_events (session_id, type, actor_id, payload, turn)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.ID, ev.Type, ev.ActorID, string(payload), ev.Turn,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// Completed returns the archived summary for a session id.
func (a *Archive) Completed(ctx context.Context, id string) (*CompletedSession, error) {
	row := a.db.QueryRowContext(ctx,
		`SELECT id, game_id, player_ids, winner, scores, turns, ended_at
		 FROM sessions WHERE id = ?`, id)

	var (
		cs      CompletedSession
		players string
		winner  sql.NullString
		scores  string
	)
	if err := row.Scan(&cs.ID, &cs.GameID, &players, &winner, &scores, &cs.Turns, &cs.EndedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if err := json.Unmarshal([]byte(players), &cs.PlayerIDs); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	if err := json.Unmarshal([]byte(scores), &cs.Scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	cs.Winner = winner.String
	return &cs, nil
}

// Events returns the archived event buffer for a session id.
func (a *Archive) Events(ctx context.Context, id string) ([]engine.DomainEvent, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT type, actor_id, payload, turn FROM session_events
		 WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []engine.DomainEvent
	for rows.Next() {
		var (
			ev      engine.DomainEvent
			actor   sql.NullString
			payload string
		)
		if err := rows.Scan(&ev.Type, &actor, &payload, &ev.Turn); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.ActorID = actor.String
		if payload != "" && payload != "null" {
			if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
				return nil, fmt.Errorf("decode event payload: %w", err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CompletedSession is the durable summary of a finished session.
type CompletedSession struct {
	ID        string             `json:"id"`
	GameID    string             `json:"game_id"`
	PlayerIDs []string           `json:"player_ids"`
	Winner    string             `json:"winner,omitempty"`
	Scores    map[string]float64 `json:"scores"`
	Turns     int                `json:"turns"`
	EndedAt   time.Time          `json:"ended_at"`
}
