// Package cards provides deck, ranking, and trick primitives shared
// by card-game rule modules, plus the per-viewer hand projections used
// for fog of war.
package cards

import "github.com/moltblox/gamekit/internal/engine"

// Suit is a single-character suit code: S, H, D, C.
type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
)

// Card is one playing card. The zero value is not a valid card; Hidden
// is the sentinel used in viewer projections.
type Card struct {
	Rank string `json:"rank"`
	Suit Suit   `json:"suit"`
}

// Hidden is the concealed-card sentinel. Projections substitute it for
// any card the viewer is not allowed to see.
var Hidden = Card{Rank: "?", Suit: "?"}

// IsHidden reports whether c is the concealed sentinel.
func (c Card) IsHidden() bool { return c == Hidden }

func (c Card) String() string { return c.Rank + string(c.Suit) }

var suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Ranks in ascending strength for plain-suit comparison.
var standardRanks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// euchreRanks is the 24-card deck subset, 9 low through A high.
var euchreRanks = []string{"9", "10", "J", "Q", "K", "A"}

// RankValue returns the plain (no-trump) strength of a rank, A high.
func RankValue(rank string) int {
	for i, r := range standardRanks {
		if r == rank {
			return i + 2
		}
	}
	return 0
}

// StandardDeck returns the full 52-card deck in fixed order.
func StandardDeck() []Card {
	return buildDeck(standardRanks)
}

// EuchreDeck returns the 24-card deck (9 through A) in fixed order.
func EuchreDeck() []Card {
	return buildDeck(euchreRanks)
}

func buildDeck(ranks []string) []Card {
	deck := make([]Card, 0, len(ranks)*len(suits))
	for _, r := range ranks {
		for _, s := range suits {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// ShuffleDeck permutes deck in place using the injected source.
func ShuffleDeck(rng engine.Rand, deck []Card) {
	engine.Shuffle(rng, len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// SameColor reports whether two suits share a color.
func SameColor(a, b Suit) bool {
	red := func(s Suit) bool { return s == Hearts || s == Diamonds }
	return red(a) == red(b)
}

// Remove deletes the card at idx from hand, preserving order.
func Remove(hand []Card, idx int) []Card {
	return append(hand[:idx:idx], hand[idx+1:]...)
}
