package euchre

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/moltblox/gamekit/internal/cards"
	"github.com/moltblox/gamekit/internal/engine"
)

var seats = []string{"north", "east", "south", "west"}

func newMatch(t *testing.T, cfg engine.Config) *Module {
	t.Helper()
	eng, err := engine.New("euchre", cfg, engine.NewStream("table", "seed", 1))
	if err != nil {
		t.Fatal(err)
	}
	m := eng.(*Module)
	if err := m.Initialize(seats); err != nil {
		t.Fatal(err)
	}
	return m
}

func playCard(idx int) engine.ActionRequest {
	return engine.ActionRequest{Type: "play", Payload: engine.Payload{"card": idx}}
}

func mustApply(t *testing.T, m *Module, player string, act engine.ActionRequest) engine.ActionResult {
	t.Helper()
	res := m.ApplyAction(player, act)
	if !res.Success {
		t.Fatalf("%s %s %v rejected: %s", player, act.Type, act.Payload, res.Error)
	}
	return res
}

func TestFactoryRequiresRand(t *testing.T) {
	if _, err := engine.New("euchre", nil, nil); err == nil {
		t.Error("factory accepted a nil randomness source")
	}
}

func TestInitialDeal(t *testing.T) {
	m := newMatch(t, nil)
	for seat, hand := range m.st.Hands {
		if len(hand) != handSize {
			t.Errorf("seat %d dealt %d cards, want %d", seat, len(hand), handSize)
		}
	}
	if len(m.st.Kitty) != 4 {
		t.Errorf("kitty has %d cards, want 4", len(m.st.Kitty))
	}
	if m.st.Turned != m.st.Kitty[0] {
		t.Error("turned card is not the top of the kitty")
	}
	if m.st.Phase != phaseCalling1 {
		t.Errorf("phase = %q, want %q", m.st.Phase, phaseCalling1)
	}
	if m.st.TurnIdx != 1 {
		t.Errorf("eldest hand = seat %d, want 1 (left of dealer)", m.st.TurnIdx)
	}
}

func TestOrderUpPickupAndDiscard(t *testing.T) {
	m := newMatch(t, nil)
	turned := m.st.Turned

	res := mustApply(t, m, "east", engine.ActionRequest{Type: "order_up"})
	if res.NewState.Phase != phaseDiscarding {
		t.Fatalf("phase = %q, want %q", res.NewState.Phase, phaseDiscarding)
	}
	if res.NewState.Turn != m.st.Dealer {
		t.Fatalf("turn = %d, want dealer %d", res.NewState.Turn, m.st.Dealer)
	}
	if m.st.Trump != turned.Suit {
		t.Errorf("trump = %q, want turned suit %q", m.st.Trump, turned.Suit)
	}
	if got := len(m.st.Hands[m.st.Dealer]); got != handSize+1 {
		t.Fatalf("dealer hand = %d cards after pickup, want %d", got, handSize+1)
	}

	// A card play is refused until the dealer buries.
	if res := m.ApplyAction("north", playCard(0)); res.Success {
		t.Fatal("play accepted during the discard sub-phase")
	}

	buried := m.st.Hands[0][2]
	res = mustApply(t, m, "north", engine.ActionRequest{
		Type:    "discard",
		Payload: engine.Payload{"card": 2},
	})
	if res.NewState.Phase != phasePlaying {
		t.Fatalf("phase = %q after discard, want %q", res.NewState.Phase, phasePlaying)
	}
	if len(m.st.Hands[0]) != handSize {
		t.Errorf("dealer hand = %d cards after burying, want %d", len(m.st.Hands[0]), handSize)
	}
	if m.st.Kitty[0] != buried {
		t.Error("buried card did not replace the picked-up turned card")
	}
	if res.NewState.Turn != 1 {
		t.Errorf("first lead = seat %d, want 1", res.NewState.Turn)
	}
}

// TestMustFollowSuit: the hand holds a card of the led suit, so an
// off-suit play is rejected without mutating state.
func TestMustFollowSuit(t *testing.T) {
	m := newMatch(t, nil)
	m.st = state{
		Phase:      phasePlaying,
		Dealer:     0,
		Trump:      cards.Spades,
		Maker:      2,
		SkipSeat:   noSeat,
		WinnerTeam: noSeat,
		TurnIdx:    1,
		Trick:      []play{{Seat: 0, Card: cards.Card{Rank: "A", Suit: cards.Hearts}}},
	}
	m.st.Hands[1] = []cards.Card{
		{Rank: "K", Suit: cards.Hearts},
		{Rank: "10", Suit: cards.Clubs},
	}

	before := m.Snapshot()
	res := m.ApplyAction("east", playCard(1))
	if res.Success {
		t.Fatal("off-suit play accepted while holding the led suit")
	}
	if res.Kind != engine.FailIllegal {
		t.Errorf("kind = %s, want %s", res.Kind, engine.FailIllegal)
	}
	if after := m.Snapshot(); !bytes.Equal(before.Data, after.Data) {
		t.Error("rejected play mutated state")
	}

	mustApply(t, m, "east", playCard(0))
}

// TestLeftBowerFollowsTrump: with trump led, the left bower counts as
// a trump card, so holding it forbids an off-suit discard.
func TestLeftBowerFollowsTrump(t *testing.T) {
	m := newMatch(t, nil)
	m.st = state{
		Phase:      phasePlaying,
		Trump:      cards.Spades,
		Maker:      0,
		SkipSeat:   noSeat,
		WinnerTeam: noSeat,
		TurnIdx:    1,
		Trick:      []play{{Seat: 0, Card: cards.Card{Rank: "A", Suit: cards.Spades}}},
	}
	m.st.Hands[1] = []cards.Card{
		{Rank: "J", Suit: cards.Clubs}, // left bower: effectively a spade
		{Rank: "Q", Suit: cards.Hearts},
	}

	if res := m.ApplyAction("east", playCard(1)); res.Success {
		t.Fatal("discard accepted while holding the left bower against a trump lead")
	}
	mustApply(t, m, "east", playCard(0))
}

func TestBowersDecideTrick(t *testing.T) {
	m := newMatch(t, nil)
	m.st = state{
		Phase:      phasePlaying,
		Trump:      cards.Hearts,
		Maker:      0,
		SkipSeat:   noSeat,
		WinnerTeam: noSeat,
		TurnIdx:    0,
	}
	m.st.Hands = [4][]cards.Card{
		{{Rank: "A", Suit: cards.Hearts}},
		{{Rank: "J", Suit: cards.Diamonds}}, // left bower
		{{Rank: "J", Suit: cards.Hearts}},   // right bower
		{{Rank: "K", Suit: cards.Hearts}},
	}

	mustApply(t, m, "north", playCard(0))
	mustApply(t, m, "east", playCard(0))
	mustApply(t, m, "south", playCard(0))
	res := mustApply(t, m, "west", playCard(0))

	if m.st.TricksWon != [2]int{1, 0} {
		t.Errorf("tricks won = %v, want the right bower's team ahead", m.st.TricksWon)
	}
	if res.NewState.Turn != 2 {
		t.Errorf("next lead = seat %d, want trick winner 2", res.NewState.Turn)
	}
	if len(m.st.LastTrick) != 4 {
		t.Errorf("last trick holds %d plays, want 4", len(m.st.LastTrick))
	}
}

func TestStuckDealerMustCall(t *testing.T) {
	m := newMatch(t, nil)
	for _, p := range []string{"east", "south", "west", "north"} {
		mustApply(t, m, p, engine.ActionRequest{Type: "pass"})
	}
	if m.st.Phase != phaseCalling2 {
		t.Fatalf("phase = %q after four passes, want %q", m.st.Phase, phaseCalling2)
	}
	for _, p := range []string{"east", "south", "west"} {
		mustApply(t, m, p, engine.ActionRequest{Type: "pass"})
	}

	res := m.ApplyAction("north", engine.ActionRequest{Type: "pass"})
	if res.Success || res.Kind != engine.FailIllegal {
		t.Fatalf("stuck dealer passed: success=%v kind=%s", res.Success, res.Kind)
	}

	// The turned-down suit stays barred even for the stuck dealer.
	res = m.ApplyAction("north", engine.ActionRequest{
		Type:    "call",
		Payload: engine.Payload{"suit": string(m.st.Turned.Suit)},
	})
	if res.Success {
		t.Fatal("turned-down suit accepted in round 2")
	}

	var other cards.Suit
	for _, s := range []cards.Suit{cards.Spades, cards.Hearts, cards.Diamonds, cards.Clubs} {
		if s != m.st.Turned.Suit {
			other = s
			break
		}
	}
	res = mustApply(t, m, "north", engine.ActionRequest{
		Type:    "call",
		Payload: engine.Payload{"suit": string(other)},
	})
	if res.NewState.Phase != phasePlaying {
		t.Errorf("phase = %q after forced call, want %q", res.NewState.Phase, phasePlaying)
	}
	if m.st.Trump != other {
		t.Errorf("trump = %q, want %q", m.st.Trump, other)
	}
}

func TestDealerPassRedealsWithoutStick(t *testing.T) {
	m := newMatch(t, engine.Config{"stickTheDealer": false})
	for _, p := range []string{"east", "south", "west", "north"} {
		mustApply(t, m, p, engine.ActionRequest{Type: "pass"})
	}
	for _, p := range []string{"east", "south", "west"} {
		mustApply(t, m, p, engine.ActionRequest{Type: "pass"})
	}

	res := mustApply(t, m, "north", engine.ActionRequest{Type: "pass"})
	if res.NewState.Phase != phaseCalling1 {
		t.Fatalf("phase = %q after declined deal, want fresh %q", res.NewState.Phase, phaseCalling1)
	}
	for seat, hand := range m.st.Hands {
		if len(hand) != handSize {
			t.Errorf("seat %d has %d cards after redeal, want %d", seat, len(hand), handSize)
		}
	}
}

func TestGoingAloneSkipsPartner(t *testing.T) {
	m := newMatch(t, nil)
	mustApply(t, m, "east", engine.ActionRequest{
		Type:    "order_up",
		Payload: engine.Payload{"alone": true},
	})
	if m.st.SkipSeat != 3 {
		t.Fatalf("skip seat = %d, want the maker's partner 3", m.st.SkipSeat)
	}
	mustApply(t, m, "north", engine.ActionRequest{
		Type:    "discard",
		Payload: engine.Payload{"card": 0},
	})

	// Three active seats: east leads, south and north follow, west
	// never gets the turn.
	order := []int{}
	for !m.IsOver() && m.st.TrickNum == 0 {
		seat := m.st.TurnIdx
		order = append(order, seat)
		hand := m.st.Hands[seat]
		idx := 0
		lead := cards.Suit("")
		if len(m.st.Trick) > 0 {
			lead = cards.EffectiveSuit(m.st.Trick[0].Card, m.st.Trump)
		}
		for i := range hand {
			if cards.FollowsSuit(hand[i], hand, lead, m.st.Trump) {
				idx = i
				break
			}
		}
		mustApply(t, m, seats[seat], playCard(idx))
	}
	if len(order) != 3 {
		t.Fatalf("trick took %d plays, want 3 with a seat sitting out", len(order))
	}
	for _, seat := range order {
		if seat == 3 {
			t.Error("sat-out partner took a turn")
		}
	}
}

func TestHandScoring(t *testing.T) {
	tests := []struct {
		name      string
		maker     int
		alone     bool
		tricksWon [2]int
		wantTeam  int
		wantPts   int
	}{
		{"majority", 0, false, [2]int{3, 2}, 0, 1},
		{"march", 0, false, [2]int{5, 0}, 0, 2},
		{"lone march", 0, true, [2]int{5, 0}, 0, 4},
		{"euchred", 0, false, [2]int{2, 3}, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMatch(t, engine.Config{"pointsToWin": 100})
			m.st.Maker = tt.maker
			m.st.Alone = tt.alone
			m.st.TricksWon = tt.tricksWon
			m.st.TrickNum = handSize

			m.scoreHand()
			want := [2]int{}
			want[tt.wantTeam] = tt.wantPts
			if m.st.TeamScores != want {
				t.Errorf("team scores = %v, want %v", m.st.TeamScores, want)
			}
			if m.st.Ended {
				t.Error("match ended below the points target")
			}
			// A fresh deal follows with the deal rotated.
			if m.st.Phase != phaseCalling1 || m.st.Dealer != 1 {
				t.Errorf("after scoring: phase=%q dealer=%d", m.st.Phase, m.st.Dealer)
			}
		})
	}
}

func TestMatchEndAndTerminalStability(t *testing.T) {
	m := newMatch(t, engine.Config{"pointsToWin": 1})
	m.st.Maker = 1
	m.st.TricksWon = [2]int{0, 3}
	m.st.TrickNum = handSize
	m.scoreHand()

	if !m.IsOver() {
		t.Fatal("match not over at the points target")
	}
	if w, ok := m.Winner(); !ok || w != "east" {
		t.Errorf("winner = %q, %v; want east (winning team's lead seat)", w, ok)
	}
	wantScores := map[string]float64{"north": 0, "east": 1, "south": 0, "west": 1}
	for id, v := range m.Scores() {
		if wantScores[id] != v {
			t.Errorf("score[%s] = %v, want %v", id, v, wantScores[id])
		}
	}

	res := m.ApplyAction("east", engine.ActionRequest{Type: "pass"})
	if res.Success || res.Kind != engine.FailTerminal {
		t.Errorf("post-terminal action: success=%v kind=%s", res.Success, res.Kind)
	}
}

// TestViewMasksHiddenInformation: each viewer sees their own cards;
// every other hand and the kitty are masked card-for-card, and the
// turned card stays public.
func TestViewMasksHiddenInformation(t *testing.T) {
	m := newMatch(t, nil)
	view := m.ViewFor("south")

	var st state
	if err := json.Unmarshal(view.Data, &st); err != nil {
		t.Fatal(err)
	}
	for i, c := range st.Hands[2] {
		if c.IsHidden() {
			t.Errorf("own card %d masked", i)
		}
	}
	for _, seat := range []int{0, 1, 3} {
		if len(st.Hands[seat]) != handSize {
			t.Errorf("seat %d hand length leaked as %d", seat, len(st.Hands[seat]))
		}
		for i, c := range st.Hands[seat] {
			if !c.IsHidden() {
				t.Errorf("seat %d card %d visible to another player", seat, i)
			}
		}
	}
	for i, c := range st.Kitty {
		if !c.IsHidden() {
			t.Errorf("kitty card %d visible", i)
		}
	}
	if st.Turned.IsHidden() {
		t.Error("turned card masked; it is public")
	}

	// Projection never touches the authoritative state.
	var full state
	if err := json.Unmarshal(m.Snapshot().Data, &full); err != nil {
		t.Fatal(err)
	}
	for seat := range full.Hands {
		for i, c := range full.Hands[seat] {
			if c.IsHidden() {
				t.Errorf("authoritative hand %d card %d masked after projection", seat, i)
			}
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := newMatch(t, nil)
	mustApply(t, m, "east", engine.ActionRequest{Type: "order_up"})
	mustApply(t, m, "north", engine.ActionRequest{
		Type:    "discard",
		Payload: engine.Payload{"card": 1},
	})

	snap := m.Snapshot()
	restored := &Module{rng: engine.NewStream("other", "seed", 9), pointsToWin: 10, stickTheDealer: true}
	if err := restored.Restore(seats, snap.Data); err != nil {
		t.Fatal(err)
	}
	if got := restored.Snapshot(); !bytes.Equal(snap.Data, got.Data) {
		t.Errorf("round-trip mismatch:\n%s\n%s", snap.Data, got.Data)
	}
}
