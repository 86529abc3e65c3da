package cards

// HandPolicy selects a per-viewer hand visibility rule.
type HandPolicy int

const (
	// ShowAll leaves every hand visible (perfect information).
	ShowAll HandPolicy = iota
	// HideOthers shows only the viewer's own hand; everyone else's
	// cards become Hidden sentinels. Conventional trick-taking
	// visibility.
	HideOthers
	// HideOwn masks only the viewer's own hand and shows everyone
	// else's, as in cooperative deduction games where you may see
	// others' cards but never your own.
	HideOwn
	// HideAllHands masks every hand regardless of viewer.
	HideAllHands
)

// ProjectHands returns a copy of hands filtered for the given viewer
// seat. Counts are preserved: a concealed hand keeps its length with
// every card replaced by the Hidden sentinel, so no projection leaks
// more than the game's rules intend.
func ProjectHands(hands [][]Card, viewer int, policy HandPolicy) [][]Card {
	out := make([][]Card, len(hands))
	for seat, hand := range hands {
		conceal := false
		switch policy {
		case HideOthers:
			conceal = seat != viewer
		case HideOwn:
			conceal = seat == viewer
		case HideAllHands:
			conceal = true
		}
		out[seat] = ProjectHand(hand, conceal)
	}
	return out
}

// ProjectHand copies one hand, masking every card when conceal is set.
func ProjectHand(hand []Card, conceal bool) []Card {
	out := make([]Card, len(hand))
	for i, c := range hand {
		if conceal {
			out[i] = Hidden
		} else {
			out[i] = c
		}
	}
	return out
}

// MaskDeck returns n Hidden sentinels: the always-hidden draw pile.
func MaskDeck(n int) []Card {
	out := make([]Card, n)
	for i := range out {
		out[i] = Hidden
	}
	return out
}
