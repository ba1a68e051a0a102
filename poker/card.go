package poker

import "fmt"

// Suit of a card. The wire format uses the single letter.
type Suit string

const (
	Hearts   Suit = "H"
	Clubs    Suit = "C"
	Diamonds Suit = "D"
	Spades   Suit = "S"
)

var suits = []Suit{Hearts, Clubs, Diamonds, Spades}

// suitOrder is the deterministic last tie-break between suits, lowest
// first. The order is a business rule, not a law of the game; only this
// table encodes it.
var suitOrder = map[Suit]int{
	Diamonds: 1,
	Clubs:    2,
	Hearts:   3,
	Spades:   4,
}

// Ranks run 2..14. 11=J, 12=Q, 13=K, 14=A.
const (
	MinRank = 2
	AceRank = 14
)

// Card is an immutable (suit, rank) value.
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

func NewCard(suit Suit, rank int) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the compact form used on the wire, e.g. "S11".
func (c Card) String() string {
	return fmt.Sprintf("%s%d", c.Suit, c.Rank)
}

func (c Card) suitValue() int {
	return suitOrder[c.Suit]
}

func PrintCards(cards []Card) string {
	out := "["
	for i, c := range cards {
		if i > 0 {
			out += " "
		}
		out += c.String()
	}
	return out + "]"
}
