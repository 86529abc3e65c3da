package euchre

import (
	"github.com/moltblox/gamekit/internal/cards"
	"github.com/moltblox/gamekit/internal/engine"
)

// ApplyAction implements engine.Engine. The only mutator.
func (m *Module) ApplyAction(playerID string, action engine.ActionRequest) engine.ActionResult {
	m.events = nil
	if m.st.Ended {
		return engine.Terminalf("game already ended")
	}
	seat := m.seatOf(playerID)
	if seat == noSeat {
		return engine.Invalidf("unknown player %q", playerID)
	}
	if seat != m.st.TurnIdx {
		return engine.Illegalf("not your turn")
	}

	switch action.Type {
	case "order_up":
		return m.applyOrderUp(seat, action.Payload)
	case "call":
		return m.applyCall(seat, action.Payload)
	case "pass":
		return m.applyPass(seat)
	case "discard":
		return m.applyDiscard(seat, action.Payload)
	case "play":
		return m.applyPlay(seat, action.Payload)
	default:
		return engine.Invalidf("unknown action type %q", action.Type)
	}
}

// applyOrderUp: calling round 1 only. The turned card's suit becomes
// trump and the dealer picks it up.
func (m *Module) applyOrderUp(seat int, payload engine.Payload) engine.ActionResult {
	if m.st.Phase != phaseCalling1 {
		return engine.Illegalf("cannot order up in phase %s", m.st.Phase)
	}
	alone, _ := payload.Bool("alone")
	m.setMaker(seat, m.st.Turned.Suit, alone)

	if m.st.SkipSeat == m.st.Dealer {
		// The pickup seat is sitting out: the turned card stays down
		// and play begins immediately.
		m.st.TurnedDown = true
		m.beginPlay()
	} else {
		m.st.Hands[m.st.Dealer] = append(m.st.Hands[m.st.Dealer], m.st.Turned)
		m.st.Phase = phaseDiscarding
		m.st.TurnIdx = m.st.Dealer
	}
	m.st.Moves++
	return engine.OK(m.envelope(m.st), m.events)
}

// applyCall: calling round 2 only. Any suit except the turned-down
// card's suit.
func (m *Module) applyCall(seat int, payload engine.Payload) engine.ActionResult {
	if m.st.Phase != phaseCalling2 {
		return engine.Illegalf("cannot call trump in phase %s", m.st.Phase)
	}
	suitName, ok := payload.String("suit")
	if !ok {
		return engine.Invalidf("call requires string field %q", "suit")
	}
	suit := cards.Suit(suitName)
	switch suit {
	case cards.Spades, cards.Hearts, cards.Diamonds, cards.Clubs:
	default:
		return engine.Invalidf("unknown suit %q", suitName)
	}
	if suit == m.st.Turned.Suit {
		return engine.Illegalf("turned-down suit cannot be named")
	}
	alone, _ := payload.Bool("alone")
	m.setMaker(seat, suit, alone)
	m.beginPlay()
	m.st.Moves++
	return engine.OK(m.envelope(m.st), m.events)
}

func (m *Module) setMaker(seat int, trump cards.Suit, alone bool) {
	m.st.Trump = trump
	m.st.Maker = seat
	m.st.Alone = alone
	if alone {
		m.st.SkipSeat = partnerOf(seat)
		m.emit("went_alone", m.players[seat], map[string]any{
			"skipped": m.players[m.st.SkipSeat],
		})
	}
	m.emit("trump_called", m.players[seat], map[string]any{
		"suit":  string(trump),
		"alone": alone,
	})
}

func (m *Module) beginPlay() {
	m.st.Phase = phasePlaying
	m.st.TurnIdx = m.leftOf(m.st.Dealer)
	if m.st.TurnIdx == m.st.SkipSeat {
		m.st.TurnIdx = m.leftOf(m.st.TurnIdx)
	}
}

// applyPass: legal in both calling rounds. When every seat declines
// round 2, the stuck-dealer rule forces the dealer to name trump, or
// (when disabled) the whole hand is re-dealt.
func (m *Module) applyPass(seat int) engine.ActionResult {
	switch m.st.Phase {
	case phaseCalling1:
		m.emit("passed", m.players[seat], nil)
		if seat == m.st.Dealer {
			// Everyone declined the turned card.
			m.st.TurnedDown = true
			m.st.Phase = phaseCalling2
			m.st.TurnIdx = m.leftOf(m.st.Dealer)
		} else {
			m.st.TurnIdx = m.leftOf(seat)
		}
	case phaseCalling2:
		if seat == m.st.Dealer {
			if m.stickTheDealer {
				return engine.Illegalf("dealer must name trump")
			}
			m.emit("passed", m.players[seat], nil)
			m.emit("redeal", m.players[m.st.Dealer], nil)
			m.deal()
			m.st.Moves++
			return engine.OK(m.envelope(m.st), m.events)
		}
		m.emit("passed", m.players[seat], nil)
		m.st.TurnIdx = m.leftOf(seat)
	default:
		return engine.Illegalf("cannot pass in phase %s", m.st.Phase)
	}
	m.st.Moves++
	return engine.OK(m.envelope(m.st), m.events)
}

// applyDiscard: the dealer buries one card after picking up the
// turned card.
func (m *Module) applyDiscard(seat int, payload engine.Payload) engine.ActionResult {
	if m.st.Phase != phaseDiscarding {
		return engine.Illegalf("cannot discard in phase %s", m.st.Phase)
	}
	idx, ok := payload.Int("card")
	if !ok {
		return engine.Invalidf("discard requires integer field %q", "card")
	}
	hand := m.st.Hands[seat]
	if idx < 0 || idx >= len(hand) {
		return engine.Invalidf("card index %d out of range for hand of %d", idx, len(hand))
	}
	buried := hand[idx]
	m.st.Hands[seat] = cards.Remove(hand, idx)
	m.st.Kitty[0] = buried // replaces the picked-up turned card
	m.emit("discarded", m.players[seat], nil)
	m.beginPlay()
	m.st.Moves++
	return engine.OK(m.envelope(m.st), m.events)
}

// applyPlay validates follow-suit against the effective suit (left
// bower counts as trump) and resolves the trick when the last active
// seat has played.
func (m *Module) applyPlay(seat int, payload engine.Payload) engine.ActionResult {
	if m.st.Phase != phasePlaying {
		return engine.Illegalf("cannot play a card in phase %s", m.st.Phase)
	}
	idx, ok := payload.Int("card")
	if !ok {
		return engine.Invalidf("play requires integer field %q", "card")
	}
	hand := m.st.Hands[seat]
	if idx < 0 || idx >= len(hand) {
		return engine.Invalidf("card index %d out of range for hand of %d", idx, len(hand))
	}
	c := hand[idx]

	lead := cards.Suit("")
	if len(m.st.Trick) > 0 {
		lead = cards.EffectiveSuit(m.st.Trick[0].Card, m.st.Trump)
	}
	if !cards.FollowsSuit(c, hand, lead, m.st.Trump) {
		return engine.Illegalf("must follow suit")
	}

	m.st.Hands[seat] = cards.Remove(hand, idx)
	m.st.Trick = append(m.st.Trick, play{Seat: seat, Card: c})
	m.st.Moves++
	m.emit("card_played", m.players[seat], map[string]any{
		"rank": c.Rank, "suit": string(c.Suit),
	})

	active := 4
	if m.st.SkipSeat != noSeat {
		active = 3
	}
	if len(m.st.Trick) < active {
		m.st.TurnIdx = m.nextSeat(seat)
		return engine.OK(m.envelope(m.st), m.events)
	}
	m.resolveTrick()
	return engine.OK(m.envelope(m.st), m.events)
}

func (m *Module) resolveTrick() {
	lead := cards.EffectiveSuit(m.st.Trick[0].Card, m.st.Trump)
	played := make([]cards.Card, len(m.st.Trick))
	for i, p := range m.st.Trick {
		played[i] = p.Card
	}
	winner := m.st.Trick[cards.TrickWinner(played, lead, m.st.Trump)].Seat

	m.st.TricksWon[teamOf(winner)]++
	m.st.TrickNum++
	m.st.LastTrick = m.st.Trick
	m.st.Trick = nil
	m.emit("trick_taken", m.players[winner], map[string]any{
		"trick": m.st.TrickNum,
	})

	if m.st.TrickNum < handSize {
		// Trick winner leads next.
		m.st.TurnIdx = winner
		return
	}
	m.scoreHand()
}

// scoreHand applies euchre's asymmetric hand scoring: 1 for the
// makers' majority, 2 for a march, 4 for a lone march, 2 to the
// defenders on a euchre. The match continues with a fresh deal while
// cumulative team scores persist.
func (m *Module) scoreHand() {
	makers := teamOf(m.st.Maker)
	defenders := 1 - makers
	taken := m.st.TricksWon[makers]

	var team, points int
	switch {
	case taken == handSize && m.st.Alone:
		team, points = makers, 4
	case taken == handSize:
		team, points = makers, 2
	case taken >= 3:
		team, points = makers, 1
	default:
		team, points = defenders, 2
		m.emit("euchred", m.players[m.st.Maker], nil)
	}
	m.st.TeamScores[team] += points
	m.st.HandNum++
	m.emit("hand_scored", "", map[string]any{
		"team":   team,
		"points": points,
	})

	if m.st.TeamScores[team] >= m.pointsToWin {
		m.st.Ended = true
		m.st.WinnerTeam = team
		m.emit("match_won", m.players[team], map[string]any{
			"score": m.st.TeamScores[team],
		})
		return
	}
	m.st.Dealer = m.leftOf(m.st.Dealer)
	m.deal()
	m.emit("dealt", m.players[m.st.Dealer], map[string]any{
		"hand": m.st.HandNum,
	})
}
