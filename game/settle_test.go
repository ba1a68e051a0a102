package game

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"primeplay.com/abgame/cache"
	"primeplay.com/abgame/poker"
	"primeplay.com/abgame/store"
)

// pairWinOutcome: pair of jacks beats pair of fives, side A wins.
func pairWinOutcome(roundID int64) *RoundOutcome {
	return &RoundOutcome{
		RoundID: roundID,
		Winner:  poker.WinnerA,
		HandA: poker.Evaluate([]poker.Card{
			poker.NewCard(poker.Spades, 11),
			poker.NewCard(poker.Hearts, 11),
			poker.NewCard(poker.Clubs, 9),
		}),
		HandB: poker.Evaluate([]poker.Card{
			poker.NewCard(poker.Clubs, 5),
			poker.NewCard(poker.Diamonds, 5),
			poker.NewCard(poker.Clubs, 4),
		}),
	}
}

func highCardWinOutcome(roundID int64) *RoundOutcome {
	return &RoundOutcome{
		RoundID: roundID,
		Winner:  poker.WinnerA,
		HandA: poker.Evaluate([]poker.Card{
			poker.NewCard(poker.Spades, 14),
			poker.NewCard(poker.Hearts, 9),
			poker.NewCard(poker.Clubs, 5),
		}),
		HandB: poker.Evaluate([]poker.Card{
			poker.NewCard(poker.Clubs, 13),
			poker.NewCard(poker.Diamonds, 8),
			poker.NewCard(poker.Clubs, 4),
		}),
	}
}

func tieOutcome(roundID int64) *RoundOutcome {
	return &RoundOutcome{
		RoundID: roundID,
		Winner:  poker.WinnerTie,
		HandA: poker.Evaluate([]poker.Card{
			poker.NewCard(poker.Spades, 9),
			poker.NewCard(poker.Hearts, 9),
			poker.NewCard(poker.Clubs, 6),
		}),
		HandB: poker.Evaluate([]poker.Card{
			poker.NewCard(poker.Diamonds, 9),
			poker.NewCard(poker.Clubs, 9),
			poker.NewCard(poker.Hearts, 6),
		}),
	}
}

func betEntry(userID string, stakes map[BetTarget]string) *BetEntry {
	parsed := make(map[BetTarget]decimal.Decimal, len(stakes))
	for target, amt := range stakes {
		parsed[target] = dec(amt)
	}
	return &BetEntry{
		SessionID:   "sid-" + userID,
		UserID:      userID,
		UserName:    userID,
		OperatorID:  "op-1",
		GameID:      "abgame",
		Token:       "token-" + userID,
		Stakes:      parsed,
		DebitTxnIDs: []string{"debit-" + userID},
	}
}

func newTestSettler(t *testing.T) (*Settler, *cache.MemoryCache, *store.MemoryStore, *fakeWallet, *fakeReceiver) {
	t.Helper()
	cacheClient := cache.NewMemoryCache()
	st := store.NewMemoryStore()
	w := &fakeWallet{}
	receiver := newFakeReceiver()
	settler := NewSettler(NewSettingsHolder(DefaultSettings()), cacheClient, st, w, receiver, NewRoundLocks())
	return settler, cacheClient, st, w, receiver
}

func seedAggregate(t *testing.T, cacheClient *cache.MemoryCache, roundID int64, bets RoundBets) {
	t.Helper()
	require.NoError(t, cacheClient.Set(context.Background(), RoundKey(roundID), bets, 0))
}

func TestComputePayoutMainWin(t *testing.T) {
	settings := DefaultSettings()
	stakes := map[BetTarget]decimal.Decimal{TargetMainA: dec("100")}

	breakdown, total := ComputePayout(stakes, pairWinOutcome(1), settings)

	assert.True(t, total.Equal(dec("198")), "gross payout is stake * odds, got %s", total)
	require.Len(t, breakdown, 1)
	assert.True(t, breakdown[0].Odds.Equal(dec("1.98")))
	assert.True(t, breakdown[0].Payout.Equal(dec("198")))
}

func TestComputePayoutLosingMainPaysNothing(t *testing.T) {
	settings := DefaultSettings()
	stakes := map[BetTarget]decimal.Decimal{TargetMainB: dec("100")}

	breakdown, total := ComputePayout(stakes, pairWinOutcome(1), settings)

	assert.True(t, total.IsZero())
	require.Len(t, breakdown, 1)
	assert.True(t, breakdown[0].Odds.IsZero())
}

func TestComputePayoutSideWinUsesWinningCategory(t *testing.T) {
	settings := DefaultSettings()
	stakes := map[BetTarget]decimal.Decimal{TargetSideA: dec("100")}

	// winning hand is a pair, PAIR carries odds 1
	_, total := ComputePayout(stakes, pairWinOutcome(1), settings)
	assert.True(t, total.Equal(dec("100")))
}

func TestComputePayoutSideBetOnLosingSidePaysNothing(t *testing.T) {
	settings := DefaultSettings()
	stakes := map[BetTarget]decimal.Decimal{TargetSideB: dec("100")}

	_, total := ComputePayout(stakes, pairWinOutcome(1), settings)
	assert.True(t, total.IsZero())
}

func TestComputePayoutZeroOddsCategoryPaysNothing(t *testing.T) {
	settings := DefaultSettings()
	stakes := map[BetTarget]decimal.Decimal{TargetSideA: dec("100")}

	// HIGH_CARD has no entry in the side odds table
	_, total := ComputePayout(stakes, highCardWinOutcome(1), settings)
	assert.True(t, total.IsZero())
}

func TestComputePayoutTie(t *testing.T) {
	settings := DefaultSettings()
	stakes := map[BetTarget]decimal.Decimal{
		TargetMainA: dec("100"),
		TargetMainB: dec("100"),
		TargetSideA: dec("50"),
		TargetSideB: dec("50"),
	}

	_, total := ComputePayout(stakes, tieOutcome(1), settings)

	// no main bet wins on a tie; both side bets settle against hand
	// A's category (PAIR, odds 1)
	assert.True(t, total.Equal(dec("100")), "got %s", total)
}

func TestComputePayoutClampedToCap(t *testing.T) {
	settings := DefaultSettings()
	stakes := map[BetTarget]decimal.Decimal{TargetMainA: dec("600000")}

	_, total := ComputePayout(stakes, pairWinOutcome(1), settings)

	// 600000 * 1.98 exceeds the cap
	assert.True(t, total.Equal(settings.MaxPayoutCap))
}

func TestSettleRoundCreditsWinnerAndClearsAggregate(t *testing.T) {
	settler, cacheClient, st, w, receiver := newTestSettler(t)
	const roundID = int64(500)

	seedAggregate(t, cacheClient, roundID, RoundBets{
		"user-1": betEntry("user-1", map[BetTarget]string{TargetMainA: "100"}),
	})

	settler.SettleRound(roundID, pairWinOutcome(roundID))

	require.Equal(t, 1, w.creditCount())
	assert.True(t, w.credits[0].Amount.Equal(dec("198")))
	assert.Equal(t, "debit-user-1", w.credits[0].RefTxnID)

	require.Len(t, st.Settlements, 1)
	assert.Equal(t, "WIN", st.Settlements[0].Status)
	assert.True(t, st.Settlements[0].WinAmount.Equal(dec("198")))

	var roundBets RoundBets
	found, err := cacheClient.Get(context.Background(), RoundKey(roundID), &roundBets)
	require.NoError(t, err)
	assert.False(t, found, "aggregate must be cleared after settlement")

	events := receiver.playerEvents("sid-user-1")
	require.NotEmpty(t, events)
	assert.Equal(t, EventSettlement, events[len(events)-1].Type)
}

func TestSettleRoundLoserRecordedWithoutCredit(t *testing.T) {
	settler, cacheClient, st, w, receiver := newTestSettler(t)
	const roundID = int64(501)

	seedAggregate(t, cacheClient, roundID, RoundBets{
		"user-1": betEntry("user-1", map[BetTarget]string{TargetMainB: "100"}),
	})

	settler.SettleRound(roundID, pairWinOutcome(roundID))

	assert.Equal(t, 0, w.creditCount())
	require.Len(t, st.Settlements, 1)
	assert.Equal(t, "LOSS", st.Settlements[0].Status)
	assert.True(t, st.Settlements[0].WinAmount.IsZero())
	assert.NotEmpty(t, receiver.playerEvents("sid-user-1"), "losers still get a settlement event")
}

func TestSettleRoundIdempotent(t *testing.T) {
	settler, cacheClient, st, w, _ := newTestSettler(t)
	const roundID = int64(502)

	seedAggregate(t, cacheClient, roundID, RoundBets{
		"user-1": betEntry("user-1", map[BetTarget]string{TargetMainA: "100"}),
	})

	settler.SettleRound(roundID, pairWinOutcome(roundID))
	settler.SettleRound(roundID, pairWinOutcome(roundID))

	assert.Equal(t, 1, w.creditCount(), "second invocation must be a no-op")
	assert.Len(t, st.Settlements, 1)
}

func TestSettleRoundNoBetsIsNoOp(t *testing.T) {
	settler, _, st, w, receiver := newTestSettler(t)

	settler.SettleRound(503, pairWinOutcome(503))

	assert.Equal(t, 0, w.creditCount())
	assert.Empty(t, st.Settlements)
	assert.Empty(t, receiver.broadcastTypes())
}

func TestSettleRoundCreditFailureDoesNotBlockOthers(t *testing.T) {
	settler, cacheClient, st, w, _ := newTestSettler(t)
	w.refuseCredit = true
	const roundID = int64(504)

	seedAggregate(t, cacheClient, roundID, RoundBets{
		"user-1": betEntry("user-1", map[BetTarget]string{TargetMainA: "100"}),
		"user-2": betEntry("user-2", map[BetTarget]string{TargetMainA: "50"}),
	})

	settler.SettleRound(roundID, pairWinOutcome(roundID))

	// both settlement records are written despite the wallet fault
	assert.Len(t, st.Settlements, 2)

	var roundBets RoundBets
	found, err := cacheClient.Get(context.Background(), RoundKey(roundID), &roundBets)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSettleRoundReleasesRoundLock(t *testing.T) {
	cacheClient := cache.NewMemoryCache()
	st := store.NewMemoryStore()
	locks := NewRoundLocks()
	settler := NewSettler(NewSettingsHolder(DefaultSettings()), cacheClient, st, &fakeWallet{}, newFakeReceiver(), locks)

	// a round nobody bet on must not retain its lock entry
	settler.SettleRound(600, pairWinOutcome(600))
	assert.Empty(t, locks.locks)

	seedAggregate(t, cacheClient, 601, RoundBets{
		"user-1": betEntry("user-1", map[BetTarget]string{TargetMainA: "100"}),
	})
	settler.SettleRound(601, pairWinOutcome(601))
	assert.Empty(t, locks.locks)
}

func TestSettleRoundUpdatesCachedBalance(t *testing.T) {
	settler, cacheClient, _, _, receiver := newTestSettler(t)
	const roundID = int64(505)

	session := &Session{SessionID: "sid-user-1", UserID: "user-1", Balance: dec("900"), OperatorID: "op-1"}
	require.NoError(t, cacheClient.Set(context.Background(), session.SessionID, session, 0))

	seedAggregate(t, cacheClient, roundID, RoundBets{
		"user-1": betEntry("user-1", map[BetTarget]string{TargetMainA: "100"}),
	})

	settler.SettleRound(roundID, pairWinOutcome(roundID))

	var updated Session
	found, err := cacheClient.Get(context.Background(), session.SessionID, &updated)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, updated.Balance.Equal(dec("1098")), "win amount credited to the cached balance, got %s", updated.Balance)

	types := make([]string, 0)
	for _, e := range receiver.playerEvents("sid-user-1") {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, EventInfo)
	assert.Contains(t, types, EventSettlement)
}
