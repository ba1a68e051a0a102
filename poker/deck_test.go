package poker

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullDeckHas52DistinctCards(t *testing.T) {
	deck := NewDeckNoShuffle()
	require.Equal(t, 52, deck.Size())

	seen := make(map[Card]bool)
	for _, c := range deck.Draw(52) {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.True(t, deck.Empty())
}

func TestShuffledDeckStillDistinct(t *testing.T) {
	deck := NewDeck(nil)
	seen := make(map[Card]bool)
	for _, c := range deck.Draw(52) {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestDealHandsAreDisjoint(t *testing.T) {
	for i := 0; i < 200; i++ {
		handA, handB := DealHands(nil)
		require.Len(t, handA, 3)
		require.Len(t, handB, 3)

		seen := make(map[Card]bool)
		for _, c := range append(append([]Card{}, handA...), handB...) {
			assert.False(t, seen[c], "card %s dealt twice", c)
			seen[c] = true
		}
	}
}

func TestSeededDeckIsReproducible(t *testing.T) {
	first := NewDeck(rand.NewSource(7)).Draw(6)
	second := NewDeck(rand.NewSource(7)).Draw(6)
	assert.Equal(t, first, second)
}

func TestDrawConsumesCards(t *testing.T) {
	deck := NewDeck(nil)
	top := deck.Draw(3)
	next := deck.Draw(3)
	assert.Equal(t, 46, deck.Size())
	for _, c := range next {
		assert.NotContains(t, top, c)
	}
}
