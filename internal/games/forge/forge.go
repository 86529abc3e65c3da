// Package forge implements the incremental-progression rule module: a
// single-player mining economy with compounding upgrade costs,
// prestige resets, and an ascension goal as the terminal condition.
// Currency math uses decimals so late-game totals keep precision.
package forge

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/moltblox/gamekit/internal/engine"
)

const moduleID = "forge"

// upgradeDef is one entry of the static upgrade catalog. The n-th
// purchase of an upgrade costs BaseCost * Growth^n.
type upgradeDef struct {
	ID        string
	BaseCost  decimal.Decimal
	Growth    decimal.Decimal
	RateBonus decimal.Decimal
}

var catalog = []upgradeDef{
	{ID: "pick", BaseCost: decimal.NewFromInt(50), Growth: decimal.RequireFromString("1.15"), RateBonus: decimal.NewFromInt(1)},
	{ID: "cart", BaseCost: decimal.NewFromInt(300), Growth: decimal.RequireFromString("1.17"), RateBonus: decimal.NewFromInt(5)},
	{ID: "golem", BaseCost: decimal.NewFromInt(2000), Growth: decimal.RequireFromString("1.2"), RateBonus: decimal.NewFromInt(25)},
}

func init() {
	engine.Register(moduleID, func(cfg engine.Config, _ engine.Rand) (engine.Engine, error) {
		goal := decimal.NewFromFloat(cfg.FloatOr("ascendGoal", 1_000_000))
		if goal.Sign() <= 0 {
			return nil, fmt.Errorf("forge: ascendGoal must be positive, got %s", goal)
		}
		prestigeAt := decimal.NewFromFloat(cfg.FloatOr("prestigeAt", 10_000))
		if prestigeAt.Sign() <= 0 {
			return nil, fmt.Errorf("forge: prestigeAt must be positive, got %s", prestigeAt)
		}
		return &Module{ascendGoal: goal, prestigeAt: prestigeAt}, nil
	})
}

type state struct {
	Gold     decimal.Decimal `json:"gold"`
	Lifetime decimal.Decimal `json:"lifetime"`
	Owned    []int           `json:"owned"`
	Prestige int             `json:"prestige"`
	Ended    bool            `json:"ended"`
	Moves    int             `json:"moves"`
}

// Module is one forge run. Single player; the turn pointer stays on
// seat zero.
type Module struct {
	player     string
	ascendGoal decimal.Decimal
	prestigeAt decimal.Decimal
	st         state
	events     []engine.DomainEvent
}

// Spec implements engine.Engine.
func (m *Module) Spec() engine.ModuleSpec {
	return engine.ModuleSpec{ID: moduleID, Name: "Forge", MinPlayers: 1, MaxPlayers: 1}
}

// Initialize implements engine.Engine.
func (m *Module) Initialize(playerIDs []string) error {
	if len(playerIDs) != 1 {
		return fmt.Errorf("forge: need exactly 1 player, got %d", len(playerIDs))
	}
	m.player = playerIDs[0]
	m.st = state{
		Gold:     decimal.Zero,
		Lifetime: decimal.Zero,
		Owned:    make([]int, len(catalog)),
	}
	return nil
}

// Restore implements engine.Engine.
func (m *Module) Restore(playerIDs []string, data json.RawMessage) error {
	if len(playerIDs) != 1 {
		return fmt.Errorf("forge: need exactly 1 player, got %d", len(playerIDs))
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("forge: decode snapshot: %w", err)
	}
	if len(st.Owned) != len(catalog) {
		return fmt.Errorf("forge: snapshot upgrade list has %d entries, want %d", len(st.Owned), len(catalog))
	}
	m.player = playerIDs[0]
	m.st = st
	return nil
}

// rate is gold per mine action: base 1 plus upgrade bonuses, all
// multiplied by the prestige multiplier.
func (m *Module) rate() decimal.Decimal {
	r := decimal.NewFromInt(1)
	for i, def := range catalog {
		r = r.Add(def.RateBonus.Mul(decimal.NewFromInt(int64(m.st.Owned[i]))))
	}
	return r.Mul(decimal.NewFromInt(int64(m.st.Prestige + 1)))
}

// upgradeCost is the price of the next copy of catalog[idx].
func (m *Module) upgradeCost(idx int) decimal.Decimal {
	return catalog[idx].BaseCost.Mul(catalog[idx].Growth.Pow(decimal.NewFromInt(int64(m.st.Owned[idx])))).RoundCeil(0)
}

func (m *Module) envelope() engine.StateEnvelope {
	data, err := json.Marshal(m.st)
	if err != nil {
		panic(fmt.Sprintf("forge: marshal state: %v", err))
	}
	phase := "playing"
	if m.st.Ended {
		phase = engine.PhaseEnded
	}
	return engine.StateEnvelope{
		Phase:   phase,
		Data:    data,
		Turn:    0,
		Players: []string{m.player},
		Events:  append([]engine.DomainEvent(nil), m.events...),
	}
}

// Snapshot implements engine.Engine.
func (m *Module) Snapshot() engine.StateEnvelope { return m.envelope() }

// ViewFor implements engine.Engine. Owner-only session.
func (m *Module) ViewFor(string) engine.StateEnvelope { return m.envelope() }

// IsOver implements engine.Engine.
func (m *Module) IsOver() bool { return m.st.Ended }

// Winner implements engine.Engine.
func (m *Module) Winner() (string, bool) {
	if !m.st.Ended {
		return "", false
	}
	return m.player, true
}

// Scores reports lifetime gold, callable mid-game.
func (m *Module) Scores() map[string]float64 {
	return map[string]float64{m.player: m.st.Lifetime.InexactFloat64()}
}

// ApplyAction implements engine.Engine.
func (m *Module) ApplyAction(playerID string, action engine.ActionRequest) engine.ActionResult {
	m.events = nil
	if m.st.Ended {
		return engine.Terminalf("game already ended")
	}
	if playerID != m.player {
		return engine.Invalidf("unknown player %q", playerID)
	}

	switch action.Type {
	case "mine":
		return m.applyMine()
	case "buy":
		return m.applyBuy(action.Payload)
	case "prestige":
		return m.applyPrestige()
	case "ascend":
		return m.applyAscend()
	default:
		return engine.Invalidf("unknown action type %q", action.Type)
	}
}

func (m *Module) applyMine() engine.ActionResult {
	gain := m.rate()
	m.st.Gold = m.st.Gold.Add(gain)
	m.st.Lifetime = m.st.Lifetime.Add(gain)
	m.st.Moves++
	m.emit("mined", map[string]any{"gained": gain.String(), "gold": m.st.Gold.String()})
	return engine.OK(m.envelope(), m.events)
}

func (m *Module) applyBuy(payload engine.Payload) engine.ActionResult {
	idx, ok := payload.Int("upgrade")
	if !ok {
		return engine.Invalidf("buy requires integer field %q", "upgrade")
	}
	if idx < 0 || idx >= len(catalog) {
		return engine.Invalidf("upgrade index %d out of range", idx)
	}
	cost := m.upgradeCost(idx)
	if m.st.Gold.LessThan(cost) {
		return engine.Illegalf("not enough gold: have %s, need %s", m.st.Gold, cost)
	}
	m.st.Gold = m.st.Gold.Sub(cost)
	m.st.Owned[idx]++
	m.st.Moves++
	m.emit("upgrade_bought", map[string]any{
		"upgrade": catalog[idx].ID,
		"owned":   m.st.Owned[idx],
		"cost":    cost.String(),
	})
	return engine.OK(m.envelope(), m.events)
}

func (m *Module) applyPrestige() engine.ActionResult {
	if m.st.Lifetime.LessThan(m.prestigeAt) {
		return engine.Illegalf("prestige requires %s lifetime gold, have %s", m.prestigeAt, m.st.Lifetime)
	}
	m.st.Gold = decimal.Zero
	m.st.Owned = make([]int, len(catalog))
	m.st.Prestige++
	m.st.Moves++
	m.emit("prestiged", map[string]any{"prestige": m.st.Prestige})
	return engine.OK(m.envelope(), m.events)
}

func (m *Module) applyAscend() engine.ActionResult {
	if m.st.Gold.LessThan(m.ascendGoal) {
		return engine.Illegalf("ascension requires %s gold, have %s", m.ascendGoal, m.st.Gold)
	}
	m.st.Ended = true
	m.st.Moves++
	m.emit("ascended", map[string]any{"lifetime": m.st.Lifetime.String()})
	return engine.OK(m.envelope(), m.events)
}

func (m *Module) emit(typ string, payload map[string]any) {
	m.events = append(m.events, engine.DomainEvent{
		Type:    typ,
		ActorID: m.player,
		Payload: payload,
		Turn:    m.st.Moves,
	})
}
