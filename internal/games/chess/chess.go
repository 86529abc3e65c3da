// Package chess implements the positional/check-based rule module:
// table-driven movement, speculative apply with revert for check
// legality, atomic special moves (promotion, en passant, castling),
// and checkmate/stalemate terminal detection.
package chess

import (
	"encoding/json"
	"fmt"

	"github.com/moltblox/gamekit/internal/board"
	"github.com/moltblox/gamekit/internal/engine"
)

const moduleID = "chess"

func init() {
	engine.Register(moduleID, func(cfg engine.Config, _ engine.Rand) (engine.Engine, error) {
		return &Module{
			leaperBishops:  cfg.BoolOr("leaperBishops", false),
			stalemateLoses: cfg.BoolOr("stalemateLoses", false),
			st:             state{EnPassant: board.NoSquare, WinnerIdx: -1},
		}, nil
	})
}

// state is the serializable game data. Struct-only fields keep JSON
// marshaling deterministic so snapshots round-trip bit-for-bit.
type state struct {
	Board     board.Board  `json:"board"`
	TurnIdx   int          `json:"turn_idx"`
	EnPassant board.Square `json:"en_passant"`
	Ended     bool         `json:"ended"`
	WinnerIdx int          `json:"winner_idx"`
	Draw      bool         `json:"draw"`
	Moves     int          `json:"moves"`
}

// Module is one chess game. Chess has no concealed information, so
// ViewFor equals Snapshot for every viewer.
type Module struct {
	players        []string
	st             state
	leaperBishops  bool
	stalemateLoses bool
	events         []engine.DomainEvent
}

// Spec implements engine.Engine.
func (m *Module) Spec() engine.ModuleSpec {
	return engine.ModuleSpec{ID: moduleID, Name: "Chess", MinPlayers: 2, MaxPlayers: 2}
}

// Initialize sets up the starting position. Player 0 is White.
func (m *Module) Initialize(playerIDs []string) error {
	if len(playerIDs) != 2 {
		return fmt.Errorf("chess: need exactly 2 players, got %d", len(playerIDs))
	}
	m.players = append([]string(nil), playerIDs...)
	m.st = state{EnPassant: board.NoSquare, WinnerIdx: -1}
	m.setupBoard()
	return nil
}

func (m *Module) setupBoard() {
	bishop := board.Bishop
	if m.leaperBishops {
		bishop = board.Leaper
	}
	back := []board.Kind{
		board.Rook, board.Knight, bishop, board.Queen,
		board.King, bishop, board.Knight, board.Rook,
	}
	for f := 0; f < 8; f++ {
		m.st.Board.Set(board.At(f, 0), board.Piece{Kind: back[f], Color: board.White}, nil)
		m.st.Board.Set(board.At(f, 1), board.Piece{Kind: board.Pawn, Color: board.White}, nil)
		m.st.Board.Set(board.At(f, 6), board.Piece{Kind: board.Pawn, Color: board.Black}, nil)
		m.st.Board.Set(board.At(f, 7), board.Piece{Kind: back[f], Color: board.Black}, nil)
	}
}

// Restore rebuilds from a snapshot without re-running setup.
func (m *Module) Restore(playerIDs []string, data json.RawMessage) error {
	if len(playerIDs) != 2 {
		return fmt.Errorf("chess: need exactly 2 players, got %d", len(playerIDs))
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("chess: decode snapshot: %w", err)
	}
	m.players = append([]string(nil), playerIDs...)
	m.st = st
	return nil
}

// Snapshot implements engine.Engine.
func (m *Module) Snapshot() engine.StateEnvelope {
	return m.envelope()
}

// ViewFor implements engine.Engine. Perfect information: every viewer
// sees the full board.
func (m *Module) ViewFor(string) engine.StateEnvelope {
	return m.envelope()
}

func (m *Module) envelope() engine.StateEnvelope {
	data, err := json.Marshal(m.st)
	if err != nil {
		panic(fmt.Sprintf("chess: marshal state: %v", err))
	}
	phase := "playing"
	if m.st.Ended {
		phase = engine.PhaseEnded
	}
	return engine.StateEnvelope{
		Phase:   phase,
		Data:    data,
		Turn:    m.st.TurnIdx,
		Players: append([]string(nil), m.players...),
		Events:  append([]engine.DomainEvent(nil), m.events...),
	}
}

// IsOver implements engine.Engine.
func (m *Module) IsOver() bool { return m.st.Ended }

// Winner implements engine.Engine.
func (m *Module) Winner() (string, bool) {
	if !m.st.Ended || m.st.WinnerIdx < 0 {
		return "", false
	}
	return m.players[m.st.WinnerIdx], true
}

// Scores reports material balance per side, callable mid-game.
func (m *Module) Scores() map[string]float64 {
	values := map[board.Kind]float64{
		board.Pawn: 1, board.Knight: 3, board.Bishop: 3,
		board.Leaper: 3, board.Rook: 5, board.Queen: 9,
	}
	totals := [2]float64{}
	for sq := board.Square(0); sq < 64; sq++ {
		p := m.st.Board.PieceAt(sq)
		if !p.IsEmpty() {
			totals[p.Color] += values[p.Kind]
		}
	}
	return map[string]float64{
		m.players[0]: totals[board.White],
		m.players[1]: totals[board.Black],
	}
}

// ApplyAction implements engine.Engine. The only mutator.
func (m *Module) ApplyAction(playerID string, action engine.ActionRequest) engine.ActionResult {
	m.events = nil
	if m.st.Ended {
		return engine.Terminalf("game already ended")
	}
	seat := m.seatOf(playerID)
	if seat < 0 {
		return engine.Invalidf("unknown player %q", playerID)
	}
	if seat != m.st.TurnIdx {
		return engine.Illegalf("not your turn")
	}

	switch action.Type {
	case "move":
		return m.applyMove(seat, action.Payload)
	case "resign":
		return m.applyResign(seat)
	default:
		return engine.Invalidf("unknown action type %q", action.Type)
	}
}

func (m *Module) applyResign(seat int) engine.ActionResult {
	m.st.Ended = true
	m.st.WinnerIdx = 1 - seat
	m.emit("resigned", m.players[seat], nil)
	m.st.TurnIdx = 1 - m.st.TurnIdx
	return engine.OK(m.envelope(), m.events)
}

func (m *Module) seatOf(playerID string) int {
	for i, id := range m.players {
		if id == playerID {
			return i
		}
	}
	return -1
}

func (m *Module) emit(typ, actor string, payload map[string]any) {
	m.events = append(m.events, engine.DomainEvent{
		Type:    typ,
		ActorID: actor,
		Payload: payload,
		Turn:    m.st.Moves,
	})
}
