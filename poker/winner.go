package poker

import "math/rand"

// Winner labels for a round outcome.
const (
	WinnerA   = "PLAYER_A"
	WinnerB   = "PLAYER_B"
	WinnerTie = "TIE"
)

// Result of comparing the two dealt hands.
type Result struct {
	Winner string   `json:"winner"`
	HandA  HandRank `json:"handA"`
	HandB  HandRank `json:"handB"`
}

// DealHands builds a fresh shuffled deck and deals two disjoint 3-card
// hands: the first three cards to side A, the next three to side B.
func DealHands(source rand.Source) (handA []Card, handB []Card) {
	deck := NewDeck(source)
	handA = deck.Draw(3)
	handB = deck.Draw(3)
	return handA, handB
}

// Compare orders two hand ranks: 1 if a beats b, -1 if b beats a,
// 0 on a true tie. The comparison is a total order: category first,
// then primary value, then the three cards by descending rank
// position-by-position, then suits position-by-position. Pure function
// of the two ranks.
func Compare(a, b HandRank) int {
	if a.Category != b.Category {
		if a.Category > b.Category {
			return 1
		}
		return -1
	}
	if a.Primary != b.Primary {
		if a.Primary > b.Primary {
			return 1
		}
		return -1
	}
	for i := 0; i < 3; i++ {
		if a.Cards[i].Rank != b.Cards[i].Rank {
			if a.Cards[i].Rank > b.Cards[i].Rank {
				return 1
			}
			return -1
		}
	}
	for i := 0; i < 3; i++ {
		sa, sb := a.Cards[i].suitValue(), b.Cards[i].suitValue()
		if sa != sb {
			if sa > sb {
				return 1
			}
			return -1
		}
	}
	return 0
}

// DetermineWinner evaluates both hands and decides the round winner.
func DetermineWinner(handA, handB []Card) Result {
	rankA := Evaluate(handA)
	rankB := Evaluate(handB)

	winner := WinnerTie
	switch Compare(rankA, rankB) {
	case 1:
		winner = WinnerA
	case -1:
		winner = WinnerB
	}
	return Result{Winner: winner, HandA: rankA, HandB: rankB}
}
