// Package euchre implements the trick-taking/bidding rule module:
// two trump-calling rounds with a stuck-dealer fallback, the dealer
// pickup-and-discard sub-phase, going alone, follow-suit legality via
// effective suit (left bower), and cumulative team scoring across
// deals.
package euchre

import (
	"encoding/json"
	"fmt"

	"github.com/moltblox/gamekit/internal/cards"
	"github.com/moltblox/gamekit/internal/engine"
)

const moduleID = "euchre"

const (
	phaseCalling1   = "calling1"
	phaseCalling2   = "calling2"
	phaseDiscarding = "discarding"
	phasePlaying    = "playing"
)

const handSize = 5

func init() {
	engine.Register(moduleID, func(cfg engine.Config, rng engine.Rand) (engine.Engine, error) {
		if rng == nil {
			return nil, fmt.Errorf("euchre: randomness source is required")
		}
		pointsToWin := cfg.IntOr("pointsToWin", 10)
		if pointsToWin < 1 {
			return nil, fmt.Errorf("euchre: pointsToWin must be positive, got %d", pointsToWin)
		}
		return &Module{
			rng:            rng,
			pointsToWin:    pointsToWin,
			stickTheDealer: cfg.BoolOr("stickTheDealer", true),
			st:             state{Maker: noSeat, SkipSeat: noSeat, WinnerTeam: noSeat},
		}, nil
	})
}

const noSeat = -1

type play struct {
	Seat int        `json:"seat"`
	Card cards.Card `json:"card"`
}

// state is the serializable hand-plus-match data. Teams are seat
// parity: seats 0 and 2 versus seats 1 and 3.
type state struct {
	Phase      string         `json:"phase"`
	Hands      [4][]cards.Card `json:"hands"`
	Kitty      []cards.Card   `json:"kitty"`
	Turned     cards.Card     `json:"turned"`
	TurnedDown bool           `json:"turned_down"`
	Dealer     int            `json:"dealer"`
	TurnIdx    int            `json:"turn_idx"`
	Trump      cards.Suit     `json:"trump"`
	Maker      int            `json:"maker"`
	Alone      bool           `json:"alone"`
	SkipSeat   int            `json:"skip_seat"`
	Trick      []play         `json:"trick"`
	LastTrick  []play         `json:"last_trick"` // completed tricks are public
	TricksWon  [2]int         `json:"tricks_won"`
	TrickNum   int            `json:"trick_num"`
	TeamScores [2]int         `json:"team_scores"`
	HandNum    int            `json:"hand_num"`
	Ended      bool           `json:"ended"`
	WinnerTeam int            `json:"winner_team"`
	Moves      int            `json:"moves"`
}

// Module is one euchre match.
type Module struct {
	players        []string
	rng            engine.Rand
	pointsToWin    int
	stickTheDealer bool
	st             state
	events         []engine.DomainEvent
}

// Spec implements engine.Engine.
func (m *Module) Spec() engine.ModuleSpec {
	return engine.ModuleSpec{ID: moduleID, Name: "Euchre", MinPlayers: 4, MaxPlayers: 4}
}

// Initialize deals the first hand. Seat 0 of the player list is the
// first dealer; the seat to the dealer's left bids and leads first.
func (m *Module) Initialize(playerIDs []string) error {
	if len(playerIDs) != 4 {
		return fmt.Errorf("euchre: need exactly 4 players, got %d", len(playerIDs))
	}
	m.players = append([]string(nil), playerIDs...)
	m.st = state{
		Dealer:     0,
		Maker:      noSeat,
		SkipSeat:   noSeat,
		WinnerTeam: noSeat,
	}
	m.deal()
	return nil
}

// deal shuffles and distributes a fresh hand. Called at initialize,
// on a declined deal (no stuck dealer), and between hands; cumulative
// team scores persist across deals.
func (m *Module) deal() {
	deck := cards.EuchreDeck()
	cards.ShuffleDeck(m.rng, deck)
	for seat := 0; seat < 4; seat++ {
		hand := make([]cards.Card, handSize)
		copy(hand, deck[seat*handSize:(seat+1)*handSize])
		m.st.Hands[seat] = hand
	}
	m.st.Kitty = append([]cards.Card(nil), deck[4*handSize:]...)
	m.st.Turned = m.st.Kitty[0]
	m.st.TurnedDown = false
	m.st.Phase = phaseCalling1
	m.st.Trump = ""
	m.st.Maker = noSeat
	m.st.Alone = false
	m.st.SkipSeat = noSeat
	m.st.Trick = nil
	m.st.LastTrick = nil
	m.st.TricksWon = [2]int{}
	m.st.TrickNum = 0
	m.st.TurnIdx = m.leftOf(m.st.Dealer)
}

func (m *Module) leftOf(seat int) int { return (seat + 1) % 4 }

// nextSeat advances one seat, skipping the sat-out partner when the
// maker is going alone.
func (m *Module) nextSeat(seat int) int {
	next := m.leftOf(seat)
	if next == m.st.SkipSeat {
		next = m.leftOf(next)
	}
	return next
}

func partnerOf(seat int) int { return (seat + 2) % 4 }

func teamOf(seat int) int { return seat % 2 }

// Restore implements engine.Engine.
func (m *Module) Restore(playerIDs []string, data json.RawMessage) error {
	if len(playerIDs) != 4 {
		return fmt.Errorf("euchre: need exactly 4 players, got %d", len(playerIDs))
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("euchre: decode snapshot: %w", err)
	}
	m.players = append([]string(nil), playerIDs...)
	m.st = st
	return nil
}

// Snapshot implements engine.Engine.
func (m *Module) Snapshot() engine.StateEnvelope {
	return m.envelope(m.st)
}

func (m *Module) envelope(st state) engine.StateEnvelope {
	data, err := json.Marshal(st)
	if err != nil {
		panic(fmt.Sprintf("euchre: marshal state: %v", err))
	}
	phase := st.Phase
	if st.Ended {
		phase = engine.PhaseEnded
	}
	return engine.StateEnvelope{
		Phase:   phase,
		Data:    data,
		Turn:    st.TurnIdx,
		Players: append([]string(nil), m.players...),
		Events:  append([]engine.DomainEvent(nil), m.events...),
	}
}

// ViewFor implements engine.Engine: conventional trick-taking
// visibility. The viewer sees their own hand; every other hand and
// the kitty are masked card-for-card. The turned card, the trick in
// progress, and the last completed trick are public.
func (m *Module) ViewFor(playerID string) engine.StateEnvelope {
	viewer := m.seatOf(playerID)
	view := m.st
	projected := cards.ProjectHands(m.st.Hands[:], viewer, cards.HideOthers)
	copy(view.Hands[:], projected)
	view.Kitty = cards.MaskDeck(len(m.st.Kitty))
	return m.envelope(view)
}

// IsOver implements engine.Engine.
func (m *Module) IsOver() bool { return m.st.Ended }

// Winner reports the winning team's lead seat (the lower player-list
// index of the pair).
func (m *Module) Winner() (string, bool) {
	if !m.st.Ended || m.st.WinnerTeam == noSeat {
		return "", false
	}
	return m.players[m.st.WinnerTeam], true
}

// Scores reports each player's team total, callable mid-game.
func (m *Module) Scores() map[string]float64 {
	out := make(map[string]float64, 4)
	for seat, id := range m.players {
		out[id] = float64(m.st.TeamScores[teamOf(seat)])
	}
	return out
}

func (m *Module) seatOf(playerID string) int {
	for i, id := range m.players {
		if id == playerID {
			return i
		}
	}
	return noSeat
}

func (m *Module) emit(typ, actor string, payload map[string]any) {
	m.events = append(m.events, engine.DomainEvent{
		Type:    typ,
		ActorID: actor,
		Payload: payload,
		Turn:    m.st.Moves,
	})
}
