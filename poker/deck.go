package poker

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

var fullDeck *Deck

func init() {
	fullDeck = &Deck{cards: initializeFullCards()}
}

// Deck is an ordered sequence of the 52 distinct cards. A deck is
// created fresh per round, shuffled once and discarded after dealing.
type Deck struct {
	cards   []Card
	randGen *rand.Rand
}

func newSeed() rand.Source {
	var b [8]byte
	_, err := crypto_rand.Read(b[:])
	if err != nil {
		panic("cannot seed math/rand package with cryptographically secure random number generator")
	}
	return rand.NewSource(int64(binary.LittleEndian.Uint64(b[:])))
}

// NewDeck returns a shuffled deck. Pass a source to get a
// reproducible order in tests; nil seeds from crypto/rand.
func NewDeck(source rand.Source) *Deck {
	if source == nil {
		source = newSeed()
	}
	deck := &Deck{randGen: rand.New(source)}
	deck.Shuffle()
	return deck
}

func NewDeckNoShuffle() *Deck {
	deck := &Deck{}
	deck.cards = make([]Card, len(fullDeck.cards))
	copy(deck.cards, fullDeck.cards)
	return deck
}

// Shuffle resets the deck to the full 52 cards and applies a uniform
// Fisher-Yates permutation.
func (deck *Deck) Shuffle() *Deck {
	deck.cards = make([]Card, len(fullDeck.cards))
	copy(deck.cards, fullDeck.cards)

	randGen := deck.randGen
	if randGen == nil {
		randGen = rand.New(newSeed())
	}
	randGen.Shuffle(len(deck.cards), func(i, j int) {
		deck.cards[i], deck.cards[j] = deck.cards[j], deck.cards[i]
	})
	return deck
}

// Draw removes and returns the top n cards.
func (deck *Deck) Draw(n int) []Card {
	if n > len(deck.cards) {
		panic(fmt.Sprintf("cannot draw %d cards, only %d left", n, len(deck.cards)))
	}
	cards := make([]Card, n)
	copy(cards, deck.cards[:n])
	deck.cards = deck.cards[n:]
	return cards
}

func (deck *Deck) Empty() bool {
	return len(deck.cards) == 0
}

func (deck *Deck) Size() int {
	return len(deck.cards)
}

func initializeFullCards() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range suits {
		for rank := MinRank; rank <= AceRank; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}
