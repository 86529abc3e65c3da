package brawl

import (
	"bytes"
	"testing"

	"github.com/moltblox/gamekit/internal/engine"
)

func newMatch(t *testing.T, cfg engine.Config) *Module {
	t.Helper()
	eng, err := engine.New("brawl", cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := eng.(*Module)
	if err := m.Initialize([]string{"ryu", "ken"}); err != nil {
		t.Fatal(err)
	}
	return m
}

func act(typ string) engine.ActionRequest {
	return engine.ActionRequest{Type: typ}
}

func mustApply(t *testing.T, m *Module, player string, typ string) engine.ActionResult {
	t.Helper()
	res := m.ApplyAction(player, act(typ))
	if !res.Success {
		t.Fatalf("%s %s rejected: %s", player, typ, res.Error)
	}
	return res
}

func TestConfigValidation(t *testing.T) {
	bad := []engine.Config{
		{"superMeterMax": 0},
		{"chipDamagePercent": 101},
		{"roundsToWin": 0},
	}
	for _, cfg := range bad {
		if _, err := engine.New("brawl", cfg, nil); err == nil {
			t.Errorf("accepted config %v", cfg)
		}
	}
}

func TestStrikeDamageAndMeter(t *testing.T) {
	m := newMatch(t, nil)
	res := mustApply(t, m, "ryu", "strike")

	if got := m.st.Fighters[1].HP; got != maxHP-strikeDamage {
		t.Errorf("defender HP = %d, want %d", got, maxHP-strikeDamage)
	}
	if got := m.st.Fighters[0].Meter; got != meterOnStrike {
		t.Errorf("attacker meter = %d, want %d", got, meterOnStrike)
	}
	if got := m.st.Fighters[1].Meter; got != meterOnHit {
		t.Errorf("defender meter = %d, want %d", got, meterOnHit)
	}
	if res.NewState.Turn != 1 {
		t.Errorf("turn = %d after strike, want 1", res.NewState.Turn)
	}
}

func TestGuardChipsDamage(t *testing.T) {
	m := newMatch(t, nil)
	mustApply(t, m, "ryu", "guard")
	res := mustApply(t, m, "ken", "strike")

	chip := strikeDamage * 20 / 100
	if got := m.st.Fighters[0].HP; got != maxHP-chip {
		t.Errorf("guarding fighter HP = %d, want %d", got, maxHP-chip)
	}
	chipped := false
	for _, ev := range res.Events {
		if ev.Type == "chip_damage" {
			chipped = true
		}
	}
	if !chipped {
		t.Error("no chip_damage event emitted")
	}

	// Guard lasts until the guarder's own next action.
	mustApply(t, m, "ryu", "charge")
	if m.st.Fighters[0].Guarding {
		t.Error("guard persisted past the guarder's next action")
	}
	mustApply(t, m, "ken", "strike")
	if got := m.st.Fighters[0].HP; got != maxHP-chip-strikeDamage {
		t.Errorf("unguarded HP = %d, want full damage taken", got)
	}
}

// TestGrabBreaksGuardAndStuns: a grab against a guard lands full grab
// damage, breaks the guard, and the stun consumes the victim's next
// turn so the grabber acts again.
func TestGrabBreaksGuardAndStuns(t *testing.T) {
	m := newMatch(t, nil)
	mustApply(t, m, "ryu", "guard")
	res := mustApply(t, m, "ken", "grab")

	if got := m.st.Fighters[0].HP; got != maxHP-grabDamage {
		t.Errorf("grabbed fighter HP = %d, want %d", got, maxHP-grabDamage)
	}
	if m.st.Fighters[0].Guarding {
		t.Error("guard survived the grab")
	}
	if res.NewState.Turn != 1 {
		t.Fatalf("turn = %d, want grabber to act again", res.NewState.Turn)
	}
	skipped := false
	for _, ev := range res.Events {
		if ev.Type == "turn_skipped" && ev.ActorID == "ryu" {
			skipped = true
		}
	}
	if !skipped {
		t.Error("no turn_skipped event for the stunned fighter")
	}

	if res := m.ApplyAction("ryu", act("strike")); res.Success {
		t.Error("stunned fighter acted out of turn")
	}
	mustApply(t, m, "ken", "strike")
	// The stun is spent: play alternates again.
	mustApply(t, m, "ryu", "strike")
}

func TestGrabOnUnguardedPokes(t *testing.T) {
	m := newMatch(t, nil)
	mustApply(t, m, "ryu", "grab")
	if got := m.st.Fighters[1].HP; got != maxHP-pokeDamage {
		t.Errorf("poked HP = %d, want %d", got, maxHP-pokeDamage)
	}
	if m.st.Fighters[1].Stunned {
		t.Error("grab stunned an unguarded opponent")
	}
}

// TestSpecialRequiresFullMeter: the gate is checked before any
// mutation, so a short-meter special changes nothing.
func TestSpecialRequiresFullMeter(t *testing.T) {
	m := newMatch(t, nil)
	m.st.Fighters[0].Meter = 49

	before := m.Snapshot()
	res := m.ApplyAction("ryu", act("special"))
	if res.Success {
		t.Fatal("special accepted below the meter requirement")
	}
	if res.Kind != engine.FailIllegal {
		t.Errorf("kind = %s, want %s", res.Kind, engine.FailIllegal)
	}
	if after := m.Snapshot(); !bytes.Equal(before.Data, after.Data) {
		t.Error("rejected special mutated state")
	}

	m.st.Fighters[0].Meter = 50
	mustApply(t, m, "ryu", "special")
	if got := m.st.Fighters[1].HP; got != maxHP-specialDamage {
		t.Errorf("HP after special = %d, want %d", got, maxHP-specialDamage)
	}
	if m.st.Fighters[0].Meter != 0 {
		t.Errorf("meter = %d after special, want 0", m.st.Fighters[0].Meter)
	}
}

func TestChargeCapsAtMax(t *testing.T) {
	m := newMatch(t, engine.Config{"superMeterMax": 20})
	mustApply(t, m, "ryu", "charge")
	mustApply(t, m, "ken", "charge")
	mustApply(t, m, "ryu", "charge")
	if got := m.st.Fighters[0].Meter; got != 20 {
		t.Errorf("meter = %d, want capped at 20", got)
	}
}

func TestRoundResetAndLoserActsFirst(t *testing.T) {
	m := newMatch(t, nil)
	m.st.Fighters[1].HP = strikeDamage
	res := mustApply(t, m, "ryu", "strike")

	if m.IsOver() {
		t.Fatal("match over after one round of a best-of-three")
	}
	if m.st.Round != 2 || m.st.RoundWins != [2]int{1, 0} {
		t.Errorf("round=%d wins=%v", m.st.Round, m.st.RoundWins)
	}
	for i, f := range m.st.Fighters {
		if f.HP != maxHP || f.Meter != 0 {
			t.Errorf("fighter %d not reset: %+v", i, f)
		}
	}
	if res.NewState.Turn != 1 {
		t.Errorf("turn = %d, want the round loser to act first", res.NewState.Turn)
	}
}

func TestMatchEndAndTerminalStability(t *testing.T) {
	m := newMatch(t, engine.Config{"roundsToWin": 1})
	m.st.Fighters[1].HP = 5
	mustApply(t, m, "ryu", "strike")

	if !m.IsOver() {
		t.Fatal("single-round match not over at zero HP")
	}
	if w, ok := m.Winner(); !ok || w != "ryu" {
		t.Errorf("winner = %q, %v; want ryu", w, ok)
	}
	if got := m.Scores(); got["ryu"] != 1 || got["ken"] != 0 {
		t.Errorf("scores = %v", got)
	}

	res := m.ApplyAction("ken", act("strike"))
	if res.Success || res.Kind != engine.FailTerminal {
		t.Errorf("post-terminal action: success=%v kind=%s", res.Success, res.Kind)
	}
	if w, _ := m.Winner(); w != "ryu" {
		t.Error("winner changed after terminal rejection")
	}
}

func TestRejectionsDoNotMutate(t *testing.T) {
	m := newMatch(t, nil)
	before := m.Snapshot()

	rejects := []struct {
		player string
		typ    string
	}{
		{"ken", "strike"},    // out of turn
		{"ryu", "uppercut"},  // unknown action
		{"ryu", "special"},   // empty meter
		{"casper", "strike"}, // unknown player
	}
	for _, r := range rejects {
		if res := m.ApplyAction(r.player, act(r.typ)); res.Success {
			t.Fatalf("expected rejection for %s by %s", r.typ, r.player)
		}
		if after := m.Snapshot(); !bytes.Equal(before.Data, after.Data) {
			t.Fatalf("state changed after rejected %s", r.typ)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := newMatch(t, nil)
	mustApply(t, m, "ryu", "strike")
	mustApply(t, m, "ken", "guard")

	snap := m.Snapshot()
	restored := &Module{superMax: 50, chipPct: 20, roundsToWin: 2}
	if err := restored.Restore([]string{"ryu", "ken"}, snap.Data); err != nil {
		t.Fatal(err)
	}
	if got := restored.Snapshot(); !bytes.Equal(snap.Data, got.Data) {
		t.Errorf("round-trip mismatch:\n%s\n%s", snap.Data, got.Data)
	}
}
