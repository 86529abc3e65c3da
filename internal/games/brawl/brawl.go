// Package brawl implements the meter-based combat rule module: health
// and super meters, guard with chip damage, guard-breaking grabs that
// stun, meter-gated specials, and best-of-N rounds. A stunned
// combatant's turn is consumed without action choice.
package brawl

import (
	"encoding/json"
	"fmt"

	"github.com/moltblox/gamekit/internal/engine"
)

const moduleID = "brawl"

const (
	maxHP          = 100
	strikeDamage   = 10
	grabDamage     = 6
	pokeDamage     = 3 // grab against an unguarded opponent
	specialDamage  = 25
	meterOnStrike  = 10
	meterOnHit     = 5
	meterOnCharge  = 15
)

func init() {
	engine.Register(moduleID, func(cfg engine.Config, _ engine.Rand) (engine.Engine, error) {
		superMax := cfg.IntOr("superMeterMax", 50)
		chip := cfg.IntOr("chipDamagePercent", 20)
		rounds := cfg.IntOr("roundsToWin", 2)
		if superMax < 1 {
			return nil, fmt.Errorf("brawl: superMeterMax must be positive, got %d", superMax)
		}
		if chip < 0 || chip > 100 {
			return nil, fmt.Errorf("brawl: chipDamagePercent must be 0-100, got %d", chip)
		}
		if rounds < 1 {
			return nil, fmt.Errorf("brawl: roundsToWin must be positive, got %d", rounds)
		}
		return &Module{
			superMax:    superMax,
			chipPct:     chip,
			roundsToWin: rounds,
			st:          state{WinnerIdx: -1},
		}, nil
	})
}

type fighter struct {
	HP       int  `json:"hp"`
	Meter    int  `json:"meter"`
	Guarding bool `json:"guarding"`
	Stunned  bool `json:"stunned"`
}

type state struct {
	Fighters  [2]fighter `json:"fighters"`
	RoundWins [2]int     `json:"round_wins"`
	Round     int        `json:"round"`
	TurnIdx   int        `json:"turn_idx"`
	Ended     bool       `json:"ended"`
	WinnerIdx int        `json:"winner_idx"`
	Moves     int        `json:"moves"`
}

// Module is one brawl match.
type Module struct {
	players     []string
	superMax    int
	chipPct     int
	roundsToWin int
	st          state
	events      []engine.DomainEvent
}

// Spec implements engine.Engine.
func (m *Module) Spec() engine.ModuleSpec {
	return engine.ModuleSpec{ID: moduleID, Name: "Brawl", MinPlayers: 2, MaxPlayers: 2}
}

// Initialize implements engine.Engine.
func (m *Module) Initialize(playerIDs []string) error {
	if len(playerIDs) != 2 {
		return fmt.Errorf("brawl: need exactly 2 players, got %d", len(playerIDs))
	}
	m.players = append([]string(nil), playerIDs...)
	m.st = state{Round: 1, WinnerIdx: -1}
	m.st.Fighters[0].HP = maxHP
	m.st.Fighters[1].HP = maxHP
	return nil
}

// Restore implements engine.Engine.
func (m *Module) Restore(playerIDs []string, data json.RawMessage) error {
	if len(playerIDs) != 2 {
		return fmt.Errorf("brawl: need exactly 2 players, got %d", len(playerIDs))
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("brawl: decode snapshot: %w", err)
	}
	m.players = append([]string(nil), playerIDs...)
	m.st = st
	return nil
}

func (m *Module) envelope() engine.StateEnvelope {
	data, err := json.Marshal(m.st)
	if err != nil {
		panic(fmt.Sprintf("brawl: marshal state: %v", err))
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

// Snapshot implements engine.Engine.
func (m *Module) Snapshot() engine.StateEnvelope { return m.envelope() }

// ViewFor implements engine.Engine. Meters and health are public.
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

// Scores reports round wins, callable mid-game.
func (m *Module) Scores() map[string]float64 {
	return map[string]float64{
		m.players[0]: float64(m.st.RoundWins[0]),
		m.players[1]: float64(m.st.RoundWins[1]),
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

	me := &m.st.Fighters[seat]
	opp := &m.st.Fighters[1-seat]

	// Meter-gated special is validated before any state changes so a
	// rejection mutates nothing.
	if action.Type == "special" && me.Meter < m.superMax {
		return engine.Illegalf("insufficient meter: have %d, need %d", me.Meter, m.superMax)
	}

	switch action.Type {
	case "strike", "guard", "grab", "special", "charge":
	default:
		return engine.Invalidf("unknown action type %q", action.Type)
	}

	// A fighter's guard lasts until their own next action.
	me.Guarding = false

	switch action.Type {
	case "strike":
		dmg := strikeDamage
		if opp.Guarding {
			dmg = strikeDamage * m.chipPct / 100
			m.emit("chip_damage", m.players[seat], map[string]any{"damage": dmg})
		}
		// Meter never carries across a round-ending hit.
		if !m.dealDamage(seat, dmg, "strike") {
			m.gainMeter(me, meterOnStrike)
			m.gainMeter(opp, meterOnHit)
		}
	case "guard":
		me.Guarding = true
		m.emit("guarded", m.players[seat], nil)
	case "grab":
		var roundOver bool
		if opp.Guarding {
			opp.Guarding = false
			opp.Stunned = true
			roundOver = m.dealDamage(seat, grabDamage, "grab")
			m.emit("guard_broken", m.players[seat], nil)
		} else {
			roundOver = m.dealDamage(seat, pokeDamage, "grab")
		}
		if !roundOver {
			m.gainMeter(me, meterOnHit)
		}
	case "special":
		me.Meter = 0
		m.dealDamage(seat, specialDamage, "special")
	case "charge":
		m.gainMeter(me, meterOnCharge)
		m.emit("charged", m.players[seat], map[string]any{"meter": me.Meter})
	}

	m.st.Moves++
	m.advanceTurn(seat)
	return engine.OK(m.envelope(), m.events)
}

func (m *Module) gainMeter(f *fighter, amount int) {
	f.Meter += amount
	if f.Meter > m.superMax {
		f.Meter = m.superMax
	}
}

// dealDamage applies dmg to the defender and reports whether the hit
// ended the round.
func (m *Module) dealDamage(attacker, dmg int, kind string) bool {
	defender := 1 - attacker
	f := &m.st.Fighters[defender]
	f.HP -= dmg
	if f.HP < 0 {
		f.HP = 0
	}
	m.emit("hit", m.players[attacker], map[string]any{
		"kind": kind, "damage": dmg, "hp_left": f.HP,
	})
	if f.HP == 0 {
		m.endRound(attacker)
		return true
	}
	return false
}

// endRound credits the round and either finishes the match or resets
// both fighters for the next round, loser acting first.
func (m *Module) endRound(winnerSeat int) {
	m.st.RoundWins[winnerSeat]++
	m.emit("round_won", m.players[winnerSeat], map[string]any{
		"round": m.st.Round,
	})
	if m.st.RoundWins[winnerSeat] >= m.roundsToWin {
		m.st.Ended = true
		m.st.WinnerIdx = winnerSeat
		m.emit("match_won", m.players[winnerSeat], nil)
		return
	}
	m.st.Round++
	for i := range m.st.Fighters {
		m.st.Fighters[i] = fighter{HP: maxHP}
	}
}

// advanceTurn flips the turn pointer once; a stunned fighter's turn is
// consumed without action choice and the pointer moves on again.
func (m *Module) advanceTurn(seat int) {
	if m.st.Ended {
		m.st.TurnIdx = 1 - seat
		return
	}
	next := 1 - seat
	if m.st.Fighters[next].Stunned {
		m.st.Fighters[next].Stunned = false
		m.emit("turn_skipped", m.players[next], map[string]any{"reason": "stunned"})
		m.st.TurnIdx = seat
		return
	}
	m.st.TurnIdx = next
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
