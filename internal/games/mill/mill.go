// Package mill implements the nine-men's-morris rule module. Its
// phase set is placing → moving → flying, with a compound "removing"
// sub-turn entered when a placement or move forms a mill: the turn
// does not pass until the removal completes.
package mill

import (
	"encoding/json"
	"fmt"

	"github.com/moltblox/gamekit/internal/engine"
)

const moduleID = "mill"

func init() {
	engine.Register(moduleID, func(cfg engine.Config, _ engine.Rand) (engine.Engine, error) {
		pieces := cfg.IntOr("piecesPerPlayer", 9)
		if pieces < 3 {
			return nil, fmt.Errorf("mill: piecesPerPlayer must be at least 3, got %d", pieces)
		}
		return &Module{pieces: pieces, st: state{WinnerIdx: -1}}, nil
	})
}

// adjacent lists the connected points of the standard 24-point board.
var adjacent = [24][]int{
	{1, 9}, {0, 2, 4}, {1, 14},
	{4, 10}, {1, 3, 5, 7}, {4, 13},
	{7, 11}, {4, 6, 8}, {7, 12},
	{0, 10, 21}, {3, 9, 11, 18}, {6, 10, 15},
	{8, 13, 17}, {5, 12, 14, 20}, {2, 13, 23},
	{11, 16}, {15, 17, 19}, {12, 16},
	{10, 19}, {16, 18, 20, 22}, {13, 19},
	{9, 22}, {19, 21, 23}, {14, 22},
}

// mills lists every three-in-a-row line.
var mills = [16][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, {9, 10, 11},
	{12, 13, 14}, {15, 16, 17}, {18, 19, 20}, {21, 22, 23},
	{0, 9, 21}, {3, 10, 18}, {6, 11, 15}, {1, 4, 7},
	{16, 19, 22}, {8, 12, 17}, {5, 13, 20}, {2, 14, 23},
}

const emptyPoint = -1

type state struct {
	Points    [24]int `json:"points"` // -1 empty, else seat index
	InHand    [2]int  `json:"in_hand"`
	OnBoard   [2]int  `json:"on_board"`
	Captured  [2]int  `json:"captured"`
	TurnIdx   int     `json:"turn_idx"`
	Removing  bool    `json:"removing"`
	Ended     bool    `json:"ended"`
	WinnerIdx int     `json:"winner_idx"`
	Moves     int     `json:"moves"`
}

// Module is one mill game. Perfect information; two seats.
type Module struct {
	players []string
	pieces  int
	st      state
	events  []engine.DomainEvent
}

// Spec implements engine.Engine.
func (m *Module) Spec() engine.ModuleSpec {
	return engine.ModuleSpec{ID: moduleID, Name: "Nine Men's Morris", MinPlayers: 2, MaxPlayers: 2}
}

// Initialize implements engine.Engine.
func (m *Module) Initialize(playerIDs []string) error {
	if len(playerIDs) != 2 {
		return fmt.Errorf("mill: need exactly 2 players, got %d", len(playerIDs))
	}
	m.players = append([]string(nil), playerIDs...)
	m.st = state{WinnerIdx: -1}
	for i := range m.st.Points {
		m.st.Points[i] = emptyPoint
	}
	m.st.InHand = [2]int{m.pieces, m.pieces}
	return nil
}

// Restore implements engine.Engine.
func (m *Module) Restore(playerIDs []string, data json.RawMessage) error {
	if len(playerIDs) != 2 {
		return fmt.Errorf("mill: need exactly 2 players, got %d", len(playerIDs))
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("mill: decode snapshot: %w", err)
	}
	m.players = append([]string(nil), playerIDs...)
	m.st = st
	return nil
}

func (m *Module) phase() string {
	switch {
	case m.st.Ended:
		return engine.PhaseEnded
	case m.st.Removing:
		return "removing"
	case m.st.InHand[m.st.TurnIdx] > 0:
		return "placing"
	case m.st.OnBoard[m.st.TurnIdx] == 3:
		return "flying"
	default:
		return "moving"
	}
}

func (m *Module) envelope() engine.StateEnvelope {
	data, err := json.Marshal(m.st)
	if err != nil {
		panic(fmt.Sprintf("mill: marshal state: %v", err))
	}
	return engine.StateEnvelope{
		Phase:   m.phase(),
		Data:    data,
		Turn:    m.st.TurnIdx,
		Players: append([]string(nil), m.players...),
		Events:  append([]engine.DomainEvent(nil), m.events...),
	}
}

// Snapshot implements engine.Engine.
func (m *Module) Snapshot() engine.StateEnvelope { return m.envelope() }

// ViewFor implements engine.Engine. Perfect information.
func (m *Module) ViewFor(string) engine.StateEnvelope { return m.envelope() }

// IsOver implements engine.Engine.
func (m *Module) IsOver() bool { return m.st.Ended }

// Winner implements engine.Engine.
func (m *Module) Winner() (string, bool) {
	if !m.st.Ended || m.st.WinnerIdx < 0 {
		return "", false
	}
	return m.players[m.st.WinnerIdx], true
}

// Scores reports opponent pieces captured so far.
func (m *Module) Scores() map[string]float64 {
	return map[string]float64{
		m.players[0]: float64(m.st.Captured[0]),
		m.players[1]: float64(m.st.Captured[1]),
	}
}

// ApplyAction implements engine.Engine.
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
	case "place":
		return m.applyPlace(seat, action.Payload)
	case "move":
		return m.applyShift(seat, action.Payload)
	case "remove":
		return m.applyRemove(seat, action.Payload)
	default:
		return engine.Invalidf("unknown action type %q", action.Type)
	}
}

func (m *Module) applyPlace(seat int, payload engine.Payload) engine.ActionResult {
	if m.st.Removing {
		return engine.Illegalf("must remove an opponent piece first")
	}
	if m.st.InHand[seat] == 0 {
		return engine.Illegalf("no pieces left to place")
	}
	point, ok := payload.Int("point")
	if !ok {
		return engine.Invalidf("place requires integer field %q", "point")
	}
	if point < 0 || point >= 24 {
		return engine.Invalidf("point out of range: %d", point)
	}
	if m.st.Points[point] != emptyPoint {
		return engine.Illegalf("point %d is occupied", point)
	}

	m.st.Points[point] = seat
	m.st.InHand[seat]--
	m.st.OnBoard[seat]++
	m.st.Moves++
	m.emit("placed", m.players[seat], map[string]any{"point": point})
	m.completeTurn(seat, point)
	return engine.OK(m.envelope(), m.events)
}

func (m *Module) applyShift(seat int, payload engine.Payload) engine.ActionResult {
	if m.st.Removing {
		return engine.Illegalf("must remove an opponent piece first")
	}
	if m.st.InHand[seat] > 0 {
		return engine.Illegalf("placing phase: all pieces must be placed before moving")
	}
	from, ok := payload.Int("from")
	if !ok {
		return engine.Invalidf("move requires integer field %q", "from")
	}
	to, ok := payload.Int("to")
	if !ok {
		return engine.Invalidf("move requires integer field %q", "to")
	}
	if from < 0 || from >= 24 || to < 0 || to >= 24 {
		return engine.Invalidf("point out of range: from=%d to=%d", from, to)
	}
	if m.st.Points[from] != seat {
		return engine.Illegalf("no piece of yours on point %d", from)
	}
	if m.st.Points[to] != emptyPoint {
		return engine.Illegalf("point %d is occupied", to)
	}
	flying := m.st.OnBoard[seat] == 3
	if !flying && !isAdjacent(from, to) {
		return engine.Illegalf("points %d and %d are not adjacent", from, to)
	}

	m.st.Points[from] = emptyPoint
	m.st.Points[to] = seat
	m.st.Moves++
	m.emit("moved", m.players[seat], map[string]any{"from": from, "to": to})
	m.completeTurn(seat, to)
	return engine.OK(m.envelope(), m.events)
}

func (m *Module) applyRemove(seat int, payload engine.Payload) engine.ActionResult {
	if !m.st.Removing {
		return engine.Illegalf("no removal pending")
	}
	point, ok := payload.Int("point")
	if !ok {
		return engine.Invalidf("remove requires integer field %q", "point")
	}
	if point < 0 || point >= 24 {
		return engine.Invalidf("point out of range: %d", point)
	}
	opp := 1 - seat
	if m.st.Points[point] != opp {
		return engine.Illegalf("point %d holds no opponent piece", point)
	}
	if m.inMill(point) && !m.allInMills(opp) {
		return engine.Illegalf("cannot remove from a mill while free pieces remain")
	}

	m.st.Points[point] = emptyPoint
	m.st.OnBoard[opp]--
	m.st.Captured[seat]++
	m.st.Removing = false
	m.st.Moves++
	m.emit("removed", m.players[seat], map[string]any{"point": point})

	if m.st.OnBoard[opp]+m.st.InHand[opp] < 3 {
		m.st.Ended = true
		m.st.WinnerIdx = seat
		m.emit("won", m.players[seat], map[string]any{"reason": "too_few_pieces"})
	}
	m.passTurn(seat)
	return engine.OK(m.envelope(), m.events)
}

// completeTurn runs after a placement or move: a formed mill forces an
// immediate remove sub-turn before the turn passes.
func (m *Module) completeTurn(seat, point int) {
	if m.inMill(point) {
		m.st.Removing = true
		m.emit("mill_formed", m.players[seat], map[string]any{"point": point})
		return
	}
	m.passTurn(seat)
}

// passTurn advances the turn pointer exactly once, then checks whether
// the side to move is frozen out.
func (m *Module) passTurn(seat int) {
	m.st.TurnIdx = 1 - seat
	if m.st.Ended {
		return
	}
	next := m.st.TurnIdx
	if m.st.InHand[next] == 0 && !m.hasAnyMove(next) {
		m.st.Ended = true
		m.st.WinnerIdx = seat
		m.emit("won", m.players[seat], map[string]any{"reason": "opponent_blocked"})
	}
}

func (m *Module) hasAnyMove(seat int) bool {
	flying := m.st.OnBoard[seat] == 3
	for p := 0; p < 24; p++ {
		if m.st.Points[p] != seat {
			continue
		}
		if flying {
			for q := 0; q < 24; q++ {
				if m.st.Points[q] == emptyPoint {
					return true
				}
			}
			return false
		}
		for _, q := range adjacent[p] {
			if m.st.Points[q] == emptyPoint {
				return true
			}
		}
	}
	return false
}

func (m *Module) inMill(point int) bool {
	owner := m.st.Points[point]
	if owner == emptyPoint {
		return false
	}
	for _, line := range mills {
		if line[0] != point && line[1] != point && line[2] != point {
			continue
		}
		if m.st.Points[line[0]] == owner && m.st.Points[line[1]] == owner && m.st.Points[line[2]] == owner {
			return true
		}
	}
	return false
}

func (m *Module) allInMills(seat int) bool {
	for p := 0; p < 24; p++ {
		if m.st.Points[p] == seat && !m.inMill(p) {
			return false
		}
	}
	return true
}

func isAdjacent(a, b int) bool {
	for _, q := range adjacent[a] {
		if q == b {
			return true
		}
	}
	return false
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
