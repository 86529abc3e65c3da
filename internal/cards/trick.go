package cards

// EffectiveSuit returns the suit a card counts as for follow-suit and
// strength purposes. The jack of the suit sharing trump's color (the
// left bower) counts as trump, not its printed suit.
func EffectiveSuit(c Card, trump Suit) Suit {
	if trump == "" {
		return c.Suit
	}
	if c.Rank == "J" && c.Suit != trump && SameColor(c.Suit, trump) {
		return trump
	}
	return c.Suit
}

// HoldsSuit reports whether hand contains any card whose effective
// suit matches want.
func HoldsSuit(hand []Card, want, trump Suit) bool {
	for _, c := range hand {
		if EffectiveSuit(c, trump) == want {
			return true
		}
	}
	return false
}

// FollowsSuit reports whether playing c is legal against the given
// lead: the card's effective suit must match the lead suit unless the
// hand holds no card of that suit.
func FollowsSuit(c Card, hand []Card, lead, trump Suit) bool {
	if lead == "" {
		return true
	}
	if EffectiveSuit(c, trump) == lead {
		return true
	}
	return !HoldsSuit(hand, lead, trump)
}

// TrickStrength scores a card within one trick so that right bower >
// left bower > other trump by rank > lead suit by rank > off-suit
// (worthless). Higher wins.
func TrickStrength(c Card, lead, trump Suit) int {
	eff := EffectiveSuit(c, trump)
	switch {
	case trump != "" && c.Rank == "J" && c.Suit == trump:
		return 400 // right bower
	case trump != "" && c.Rank == "J" && eff == trump:
		return 399 // left bower
	case eff == trump:
		return 300 + RankValue(c.Rank)
	case eff == lead:
		return 100 + RankValue(c.Rank)
	default:
		return 0
	}
}

// TrickWinner returns the index of the strongest play. plays are in
// play order; lead is the first card's effective suit.
func TrickWinner(plays []Card, lead, trump Suit) int {
	best, bestScore := 0, -1
	for i, c := range plays {
		if s := TrickStrength(c, lead, trump); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}
