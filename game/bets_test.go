package game

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"primeplay.com/abgame/cache"
	"primeplay.com/abgame/store"
)

const testSessionID = "session-1"

func newTestEngine(t *testing.T, rounds *fakeRounds) (*BetEngine, *cache.MemoryCache, *store.MemoryStore, *fakeWallet) {
	t.Helper()
	cacheClient := cache.NewMemoryCache()
	st := store.NewMemoryStore()
	w := &fakeWallet{}
	engine := NewBetEngine(rounds, NewSettingsHolder(DefaultSettings()), cacheClient, st, w, NewRoundLocks())

	session := &Session{
		SessionID:  testSessionID,
		UserID:     "user-1",
		UserName:   "tester",
		Balance:    dec("1000"),
		OperatorID: "op-1",
		GameID:     "abgame",
		Token:      "token-1",
	}
	require.NoError(t, cacheClient.Set(context.Background(), testSessionID, session, 0))
	return engine, cacheClient, st, w
}

func TestPlaceBetAccepted(t *testing.T) {
	rounds := &fakeRounds{roundID: 100, phase: PhasePlaceBet}
	engine, cacheClient, st, w := newTestEngine(t, rounds)

	session, err := engine.PlaceBet(context.Background(), testSessionID, 100, "A-100")
	require.NoError(t, err)

	assert.True(t, session.Balance.Equal(dec("900")), "balance should drop by the stake")
	require.Len(t, w.debits, 1)
	assert.True(t, w.debits[0].Amount.Equal(dec("100")))

	var roundBets RoundBets
	found, err := cacheClient.Get(context.Background(), RoundKey(100), &roundBets)
	require.NoError(t, err)
	require.True(t, found)
	require.Contains(t, roundBets, "user-1")
	assert.True(t, roundBets["user-1"].Stakes[TargetMainA].Equal(dec("100")))

	require.Len(t, st.Bets, 1)
	assert.Equal(t, "user-1", st.Bets[0].UserID)
}

func TestPlaceBetAccumulatesAcrossSubmissions(t *testing.T) {
	rounds := &fakeRounds{roundID: 100, phase: PhasePlaceBet}
	engine, cacheClient, _, w := newTestEngine(t, rounds)

	_, err := engine.PlaceBet(context.Background(), testSessionID, 100, "A-100,+A-50")
	require.NoError(t, err)
	_, err = engine.PlaceBet(context.Background(), testSessionID, 100, "A-25")
	require.NoError(t, err)

	var roundBets RoundBets
	_, err = cacheClient.Get(context.Background(), RoundKey(100), &roundBets)
	require.NoError(t, err)
	entry := roundBets["user-1"]
	assert.True(t, entry.Stakes[TargetMainA].Equal(dec("125")), "repeated submissions accumulate")
	assert.True(t, entry.Stakes[TargetSideA].Equal(dec("50")))
	assert.Len(t, entry.DebitTxnIDs, 2, "each submission is debited on its own")
	assert.Len(t, w.debits, 2)
}

func TestPlaceBetPhaseRejections(t *testing.T) {
	testCases := []struct {
		name     string
		phase    GamePhase
		expected BetRejectedError
	}{
		{name: "before betting opens", phase: PhaseStarted, expected: ErrBetsNotOpen},
		{name: "during collect", phase: PhaseCollectBet, expected: ErrBetsClosed},
		{name: "during reveal", phase: PhaseShowCards, expected: ErrBetsClosed},
		{name: "after round end", phase: PhaseEnded, expected: ErrBetsClosed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rounds := &fakeRounds{roundID: 100, phase: tc.phase}
			engine, _, _, w := newTestEngine(t, rounds)

			_, err := engine.PlaceBet(context.Background(), testSessionID, 100, "A-100")
			assert.Equal(t, tc.expected, err)
			assert.Empty(t, w.debits, "rejected bets must not be debited")
		})
	}
}

func TestPlaceBetStaleRoundRejected(t *testing.T) {
	rounds := &fakeRounds{roundID: 101, phase: PhasePlaceBet}
	engine, _, _, w := newTestEngine(t, rounds)

	// stale round id is rejected regardless of phase
	_, err := engine.PlaceBet(context.Background(), testSessionID, 100, "A-100")
	assert.Equal(t, ErrInvalidRound, err)
	assert.Empty(t, w.debits)
}

func TestPlaceBetInvalidPayloadRejectedAtomically(t *testing.T) {
	testCases := []string{
		"",
		"A-",
		"A-abc",
		"X-100",
		"A-100,X-50",
		"A-100,B--5",
		"A--10",
	}
	for _, betData := range testCases {
		t.Run(betData, func(t *testing.T) {
			rounds := &fakeRounds{roundID: 100, phase: PhasePlaceBet}
			engine, cacheClient, _, w := newTestEngine(t, rounds)

			_, err := engine.PlaceBet(context.Background(), testSessionID, 100, betData)
			assert.Equal(t, ErrInvalidPayload, err)
			assert.Empty(t, w.debits)

			var roundBets RoundBets
			found, _ := cacheClient.Get(context.Background(), RoundKey(100), &roundBets)
			assert.False(t, found, "no partial acceptance on invalid payload")
		})
	}
}

func TestPlaceBetStakeWindow(t *testing.T) {
	testCases := []struct {
		name    string
		betData string
		wantErr error
	}{
		{name: "below minimum", betData: "A-10", wantErr: ErrInvalidAmount},
		{name: "above maximum", betData: "A-200001", wantErr: ErrInvalidAmount},
		{name: "at minimum", betData: "A-25", wantErr: nil},
		{name: "split across targets counts in aggregate", betData: "A-10,B-15", wantErr: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rounds := &fakeRounds{roundID: 100, phase: PhasePlaceBet}
			engine, cacheClient, _, _ := newTestEngine(t, rounds)

			// give the session enough balance for the large case
			session := &Session{SessionID: testSessionID, UserID: "user-1", Balance: dec("500000"), OperatorID: "op-1"}
			require.NoError(t, cacheClient.Set(context.Background(), testSessionID, session, 0))

			_, err := engine.PlaceBet(context.Background(), testSessionID, 100, tc.betData)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tc.wantErr, err)
			}
		})
	}
}

func TestPlaceBetInsufficientBalance(t *testing.T) {
	rounds := &fakeRounds{roundID: 100, phase: PhasePlaceBet}
	engine, _, _, w := newTestEngine(t, rounds)

	_, err := engine.PlaceBet(context.Background(), testSessionID, 100, "A-2000")
	assert.Equal(t, ErrInsufficientBalance, err)
	assert.Empty(t, w.debits)
}

func TestPlaceBetNoSession(t *testing.T) {
	rounds := &fakeRounds{roundID: 100, phase: PhasePlaceBet}
	engine, _, _, _ := newTestEngine(t, rounds)

	_, err := engine.PlaceBet(context.Background(), "unknown-session", 100, "A-100")
	assert.Equal(t, ErrNoSession, err)
}

func TestPlaceBetDebitRefusedNothingPersisted(t *testing.T) {
	rounds := &fakeRounds{roundID: 100, phase: PhasePlaceBet}
	engine, cacheClient, st, w := newTestEngine(t, rounds)
	w.refuseDebit = true

	_, err := engine.PlaceBet(context.Background(), testSessionID, 100, "A-100")
	assert.Equal(t, ErrDebitRefused, err)

	var roundBets RoundBets
	found, _ := cacheClient.Get(context.Background(), RoundKey(100), &roundBets)
	assert.False(t, found)
	assert.Empty(t, st.Bets)

	// the cached balance must be untouched
	var session Session
	_, err = cacheClient.Get(context.Background(), testSessionID, &session)
	require.NoError(t, err)
	assert.True(t, session.Balance.Equal(dec("1000")))
}

func TestPlaceBetConcurrentSubmissionsNeverLoseUpdates(t *testing.T) {
	rounds := &fakeRounds{roundID: 100, phase: PhasePlaceBet}
	engine, cacheClient, st, w := newTestEngine(t, rounds)

	const submissions = 8
	var wg sync.WaitGroup
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.PlaceBet(context.Background(), testSessionID, 100, "A-100")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var roundBets RoundBets
	found, err := cacheClient.Get(context.Background(), RoundKey(100), &roundBets)
	require.NoError(t, err)
	require.True(t, found)
	entry := roundBets["user-1"]
	assert.True(t, entry.Stakes[TargetMainA].Equal(dec("800")),
		"every concurrent merge must land in the aggregate, got %s", entry.Stakes[TargetMainA])
	assert.Len(t, entry.DebitTxnIDs, submissions)
	assert.Len(t, w.debits, submissions)
	assert.Len(t, st.Bets, submissions)
}

func TestParseBetSpecAcceptsLongTargetNames(t *testing.T) {
	stakes, err := ParseBetSpec("PLAYER_A-100,SIDE_B-50")
	require.NoError(t, err)
	assert.True(t, stakes[TargetMainA].Equal(dec("100")))
	assert.True(t, stakes[TargetSideB].Equal(dec("50")))
}

func TestParseBetSpecAccumulatesRepeatedTargets(t *testing.T) {
	stakes, err := ParseBetSpec("A-10,A-15")
	require.NoError(t, err)
	assert.True(t, stakes[TargetMainA].Equal(dec("25")))
}
