package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"primeplay.com/abgame/cache"
	"primeplay.com/abgame/store"
	"primeplay.com/abgame/wallet"
)

var betLogger = log.With().Str("logger_name", "game::bets").Logger()
var failedBetLogger = log.With().Str("logger_name", "game::failed_bets").Logger()

// RoundState is the narrow read-only view of the lobby the betting
// engine needs.
type RoundState interface {
	CurrentRoundID() int64
	CurrentPhase() GamePhase
}

// BetEngine validates and admits wagers during PLACE_BET, debits the
// wallet and merges accepted wagers into the round aggregate.
type BetEngine struct {
	rounds   RoundState
	settings *SettingsHolder
	cache    cache.Cache
	store    store.Store
	wallet   wallet.Wallet
	locks    *RoundLocks
}

func NewBetEngine(
	rounds RoundState,
	settings *SettingsHolder,
	cacheClient cache.Cache,
	st store.Store,
	w wallet.Wallet,
	locks *RoundLocks,
) *BetEngine {
	return &BetEngine{
		rounds:   rounds,
		settings: settings,
		cache:    cacheClient,
		store:    st,
		wallet:   w,
		locks:    locks,
	}
}

// PlaceBet admits one wager submission. Validation short-circuits on
// the first failure: session, phase, round id, payload, stake window,
// balance. On success the stake is debited upstream before anything is
// persisted; a refused or timed-out debit rejects the wager.
//
// Returns the session with the updated balance for the acceptance ack.
func (e *BetEngine) PlaceBet(ctx context.Context, sessionID string, roundID int64, betData string) (*Session, error) {
	var session Session
	found, err := e.cache.Get(ctx, sessionID, &session)
	if err != nil {
		failedBetLogger.Error().Str("session", sessionID).Msg(fmt.Sprintf("Session lookup failed: %v", err))
		return nil, ErrNoSession
	}
	if !found {
		return nil, ErrNoSession
	}

	phase := e.rounds.CurrentPhase()
	if phase < PhasePlaceBet {
		return nil, e.reject(&session, betData, ErrBetsNotOpen)
	}
	if phase > PhasePlaceBet {
		return nil, e.reject(&session, betData, ErrBetsClosed)
	}

	currentRound := e.rounds.CurrentRoundID()
	if roundID != currentRound {
		return nil, e.reject(&session, betData, ErrInvalidRound)
	}

	stakes, err := ParseBetSpec(betData)
	if err != nil {
		return nil, e.reject(&session, betData, ErrInvalidPayload)
	}

	total := decimal.Zero
	for _, amt := range stakes {
		total = total.Add(amt)
	}
	settings := e.settings.Current()
	if total.LessThan(settings.MinStake) || total.GreaterThan(settings.MaxStake) {
		return nil, e.reject(&session, betData, ErrInvalidAmount)
	}
	if total.GreaterThan(session.Balance) {
		return nil, e.reject(&session, betData, ErrInsufficientBalance)
	}

	receipt, err := e.wallet.Debit(ctx, &wallet.TxnRequest{
		UserID:     session.UserID,
		OperatorID: session.OperatorID,
		GameID:     session.GameID,
		Token:      session.Token,
		RoundID:    RoundKey(roundID),
		Amount:     total,
		IP:         session.IP,
	})
	if err != nil {
		failedBetLogger.Error().
			Str("user", session.UserID).
			Int64("round", roundID).
			Msg(fmt.Sprintf("Debit rejected: %v", err))
		return nil, ErrDebitRefused
	}

	session.Balance = session.Balance.Sub(total)
	if err := e.cache.Set(ctx, sessionID, &session, 0); err != nil {
		betLogger.Error().Str("session", sessionID).Msg(fmt.Sprintf("Unable to update cached balance: %v", err))
	}

	if err := e.mergeWager(ctx, roundID, &session, stakes, receipt.TxnID); err != nil {
		// The debit went through; the wager must not be lost silently.
		failedBetLogger.Error().
			Str("user", session.UserID).
			Int64("round", roundID).
			Msg(fmt.Sprintf("ALERT: accepted wager could not be merged into aggregate: %v", err))
		return nil, BetRejectedError{Reason: "unable to place bet"}
	}

	e.auditBet(ctx, roundID, &session, stakes, total)

	betLogger.Info().
		Str("user", session.UserID).
		Int64("round", roundID).
		Str("amount", total.StringFixed(2)).
		Msg("Bet accepted")
	return &session, nil
}

// mergeWager folds the new stakes into the participant's aggregate
// entry attribute by attribute under the round lock. Repeated
// submissions accumulate per target; a whole-map overwrite would drop
// concurrent merges.
func (e *BetEngine) mergeWager(ctx context.Context, roundID int64, session *Session, stakes map[BetTarget]decimal.Decimal, txnID string) error {
	key := RoundKey(roundID)
	lock := e.locks.Get(key)
	lock.Lock()
	defer lock.Unlock()

	roundBets := RoundBets{}
	if _, err := e.cache.Get(ctx, key, &roundBets); err != nil {
		return err
	}
	entry, ok := roundBets[session.UserID]
	if !ok {
		entry = &BetEntry{
			SessionID:  session.SessionID,
			UserID:     session.UserID,
			UserName:   session.UserName,
			OperatorID: session.OperatorID,
			GameID:     session.GameID,
			Token:      session.Token,
			IP:         session.IP,
			Stakes:     make(map[BetTarget]decimal.Decimal),
		}
		roundBets[session.UserID] = entry
	}
	for target, amt := range stakes {
		entry.Stakes[target] = entry.Stakes[target].Add(amt)
	}
	entry.DebitTxnIDs = append(entry.DebitTxnIDs, txnID)
	entry.SessionID = session.SessionID

	return e.cache.Set(ctx, key, roundBets, 0)
}

func (e *BetEngine) auditBet(ctx context.Context, roundID int64, session *Session, stakes map[BetTarget]decimal.Decimal, total decimal.Decimal) {
	values, err := json.Marshal(stakes)
	if err != nil {
		betLogger.Error().Msg(fmt.Sprintf("Unable to marshal bet values: %v", err))
		return
	}
	record := &store.BetRecord{
		UserID:     session.UserID,
		RoundID:    RoundKey(roundID),
		OperatorID: session.OperatorID,
		BetAmount:  total,
		BetValues:  string(values),
	}
	if err := e.store.SaveBet(ctx, record); err != nil {
		// The wager is live in the aggregate; the missing audit row is
		// an operational fault, not a rejection.
		betLogger.Error().
			Str("user", session.UserID).
			Int64("round", roundID).
			Msg(fmt.Sprintf("Unable to persist bet audit record: %v", err))
	}
}

// reject writes the failed-bet audit entry and returns the rejection.
func (e *BetEngine) reject(session *Session, betData string, rejection BetRejectedError) error {
	failedBetLogger.Error().
		Str("user", session.UserID).
		Str("bet", betData).
		Str("reason", rejection.Reason).
		Msg("Bet rejected")
	return rejection
}

// ParseBetSpec parses "<target>-<amount>[,<target>-<amount>...]" into
// per-target stakes. Any malformed token, unknown target or negative
// amount invalidates the whole submission; repeated targets
// accumulate.
func ParseBetSpec(betData string) (map[BetTarget]decimal.Decimal, error) {
	if strings.TrimSpace(betData) == "" {
		return nil, fmt.Errorf("empty bet payload")
	}
	stakes := make(map[BetTarget]decimal.Decimal)
	for _, token := range strings.Split(betData, ",") {
		idx := strings.LastIndex(token, "-")
		if idx <= 0 || idx == len(token)-1 {
			return nil, fmt.Errorf("malformed bet token %q", token)
		}
		symbol := strings.TrimSpace(token[:idx])
		target, ok := betSymbols[symbol]
		if !ok {
			return nil, fmt.Errorf("unknown bet target %q", symbol)
		}
		amt, err := decimal.NewFromString(strings.TrimSpace(token[idx+1:]))
		if err != nil {
			return nil, fmt.Errorf("invalid stake in token %q", token)
		}
		if amt.IsNegative() {
			return nil, fmt.Errorf("negative stake in token %q", token)
		}
		stakes[target] = stakes[target].Add(amt)
	}
	return stakes, nil
}
