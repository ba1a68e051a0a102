package poker

import "sort"

// HandCategory classifies a 3-card hand. Higher is stronger.
type HandCategory int

const (
	HighCard HandCategory = iota
	Pair
	Flush
	Straight
	StraightFlush
	Trio
)

var categoryNames = map[HandCategory]string{
	HighCard:      "HIGH_CARD",
	Pair:          "PAIR",
	Flush:         "FLUSH",
	Straight:      "STRAIGHT",
	StraightFlush: "STRAIGHT_FLUSH",
	Trio:          "TRIO",
}

func (c HandCategory) String() string {
	return categoryNames[c]
}

func (c HandCategory) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *HandCategory) UnmarshalJSON(b []byte) error {
	name := string(b)
	if len(name) >= 2 && name[0] == '"' {
		name = name[1 : len(name)-1]
	}
	for cat, n := range categoryNames {
		if n == name {
			*c = cat
			return nil
		}
	}
	*c = HighCard
	return nil
}

// HandRank is the comparable strength of a 3-card hand. Cards holds
// the hand sorted by descending rank (suit order breaks equal ranks)
// and drives the positional tie-breaks in Compare.
type HandRank struct {
	Category HandCategory `json:"category"`
	Primary  int          `json:"primary"`
	Cards    []Card       `json:"cards"`
}

// Evaluate ranks a 3-card hand. Pure function: same hand, same rank,
// regardless of input card order.
//
// Category precedence (high to low): TRIO, STRAIGHT_FLUSH, STRAIGHT,
// FLUSH, PAIR, HIGH_CARD. The Ace-low run {A,2,3} counts as a straight
// valued at 3, not 14.
func Evaluate(hand []Card) HandRank {
	if len(hand) != 3 {
		panic("Evaluate requires exactly 3 cards")
	}

	sorted := make([]Card, 3)
	copy(sorted, hand)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Rank != sorted[j].Rank {
			return sorted[i].Rank > sorted[j].Rank
		}
		return sorted[i].suitValue() > sorted[j].suitValue()
	})

	hi, mid, lo := sorted[0].Rank, sorted[1].Rank, sorted[2].Rank

	isTrio := hi == mid && mid == lo
	isFlush := sorted[0].Suit == sorted[1].Suit && sorted[1].Suit == sorted[2].Suit
	isRun := hi == mid+1 && mid == lo+1
	// A,2,3 plays as the lowest run
	isAceLowRun := hi == AceRank && mid == 3 && lo == 2

	straightHigh := hi
	if isAceLowRun {
		straightHigh = 3
	}

	switch {
	case isTrio:
		return HandRank{Category: Trio, Primary: hi, Cards: sorted}
	case (isRun || isAceLowRun) && isFlush:
		return HandRank{Category: StraightFlush, Primary: straightHigh, Cards: sorted}
	case isRun || isAceLowRun:
		return HandRank{Category: Straight, Primary: straightHigh, Cards: sorted}
	case isFlush:
		return HandRank{Category: Flush, Primary: hi, Cards: sorted}
	case hi == mid || mid == lo:
		pairRank := mid
		return HandRank{Category: Pair, Primary: pairRank, Cards: sorted}
	default:
		return HandRank{Category: HighCard, Primary: hi, Cards: sorted}
	}
}
