package game

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"primeplay.com/abgame/cache"
	"primeplay.com/abgame/poker"
	"primeplay.com/abgame/store"
	"primeplay.com/abgame/wallet"
)

var settlementLogger = log.With().Str("logger_name", "game::settlement").Logger()
var failedSettlementLogger = log.With().Str("logger_name", "game::failed_settlements").Logger()

// SettledBet is the per-target payout breakdown stored with each
// settlement record.
type SettledBet struct {
	Target BetTarget       `json:"target"`
	Stake  decimal.Decimal `json:"stake"`
	Odds   decimal.Decimal `json:"odds"`
	Payout decimal.Decimal `json:"payout"`
}

// Settler computes and applies payouts once the round outcome is
// known. Settlement is idempotent per round: the aggregate's presence
// in the cache is the guard, and deleting it is the commit point.
type Settler struct {
	settings *SettingsHolder
	cache    cache.Cache
	store    store.Store
	wallet   wallet.Wallet
	receiver MessageReceiver
	locks    *RoundLocks
}

func NewSettler(
	settings *SettingsHolder,
	cacheClient cache.Cache,
	st store.Store,
	w wallet.Wallet,
	receiver MessageReceiver,
	locks *RoundLocks,
) *Settler {
	return &Settler{
		settings: settings,
		cache:    cacheClient,
		store:    st,
		wallet:   w,
		receiver: receiver,
		locks:    locks,
	}
}

// SettleRound settles every participant of the round and clears the
// aggregate. Safe to invoke again for the same round: once the
// aggregate is gone this is a no-op. Runs off the phase timer
// goroutine; a panic here must not reach the round loop.
func (s *Settler) SettleRound(roundID int64, outcome *RoundOutcome) {
	defer func() {
		if err := recover(); err != nil {
			failedSettlementLogger.Error().
				Int64("round", roundID).
				Msg(fmt.Sprintf("Settlement aborted due to panic: %s\nStack Trace:\n%s", err, string(debug.Stack())))
		}
	}()

	key := RoundKey(roundID)
	lock := s.locks.Get(key)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	roundBets := RoundBets{}
	found, err := s.cache.Get(ctx, key, &roundBets)
	if err != nil {
		failedSettlementLogger.Error().Int64("round", roundID).Msg(fmt.Sprintf("Unable to load round aggregate: %v", err))
		return
	}
	if !found || len(roundBets) == 0 {
		settlementLogger.Info().Int64("round", roundID).Msg("No bets found for round")
		s.locks.Release(key)
		return
	}

	settings := s.settings.Current()
	for _, entry := range roundBets {
		s.settleParticipant(ctx, entry, roundID, outcome, settings)
	}

	// Deleting the aggregate commits the settlement. It is the last
	// step after all persistence writes: a crash before this line is
	// safe to retry, a crash after makes the retry a no-op.
	if err := s.cache.Del(ctx, key); err != nil {
		failedSettlementLogger.Error().Int64("round", roundID).Msg(fmt.Sprintf("ALERT: unable to clear settled aggregate: %v", err))
		return
	}
	s.locks.Release(key)
	settlementLogger.Info().Int64("round", roundID).Int("participants", len(roundBets)).Msg("Round settled")
}

// settleParticipant classifies each staked target, applies the odds,
// clamps the gross payout and applies the credit. Failures here are
// isolated: one participant's fault never blocks the others.
func (s *Settler) settleParticipant(ctx context.Context, entry *BetEntry, roundID int64, outcome *RoundOutcome, settings *GameSettings) {
	breakdown, totalWin := ComputePayout(entry.Stakes, outcome, settings)

	status := "LOSS"
	if totalWin.IsPositive() {
		status = "WIN"

		refTxn := ""
		if len(entry.DebitTxnIDs) > 0 {
			refTxn = entry.DebitTxnIDs[0]
		}
		_, err := s.wallet.Credit(ctx, &wallet.TxnRequest{
			UserID:     entry.UserID,
			OperatorID: entry.OperatorID,
			GameID:     entry.GameID,
			Token:      entry.Token,
			RoundID:    RoundKey(roundID),
			Amount:     totalWin,
			IP:         entry.IP,
			RefTxnID:   refTxn,
		})
		if err != nil {
			// Logged as a fault; the settlement record is still
			// written and the other participants proceed.
			failedSettlementLogger.Error().
				Str("user", entry.UserID).
				Int64("round", roundID).
				Msg(fmt.Sprintf("Credit failed: %v", err))
		}

		s.updateCachedBalance(ctx, entry, totalWin)
	}

	s.persistSettlement(ctx, entry, roundID, outcome, breakdown, totalWin, status)

	s.receiver.SendMessageToPlayer(entry.SessionID, &Event{Type: EventSettlement, Payload: &SettlementPayload{
		RoundID:   roundID,
		Status:    status,
		WinAmount: totalWin,
		Winner:    outcome.Winner,
	}})
}

func (s *Settler) updateCachedBalance(ctx context.Context, entry *BetEntry, winAmount decimal.Decimal) {
	var session Session
	found, err := s.cache.Get(ctx, entry.SessionID, &session)
	if err != nil || !found {
		// Player disconnected; their balance lives upstream now.
		return
	}
	session.Balance = session.Balance.Add(winAmount)
	if err := s.cache.Set(ctx, entry.SessionID, &session, 0); err != nil {
		settlementLogger.Error().Str("user", entry.UserID).Msg(fmt.Sprintf("Unable to update cached balance: %v", err))
		return
	}
	s.receiver.SendMessageToPlayer(entry.SessionID, InfoEvent(&session))
}

func (s *Settler) persistSettlement(
	ctx context.Context,
	entry *BetEntry,
	roundID int64,
	outcome *RoundOutcome,
	breakdown []SettledBet,
	totalWin decimal.Decimal,
	status string,
) {
	betValues, _ := json.Marshal(entry.Stakes)
	settledBets, _ := json.Marshal(breakdown)
	result, _ := json.Marshal(outcome)

	record := &store.SettlementRecord{
		UserID:      entry.UserID,
		RoundID:     RoundKey(roundID),
		OperatorID:  entry.OperatorID,
		BetAmount:   entry.TotalStake(),
		WinAmount:   totalWin,
		BetValues:   string(betValues),
		SettledBets: string(settledBets),
		RoundResult: string(result),
		Status:      status,
	}
	if err := s.store.SaveSettlement(ctx, record); err != nil {
		failedSettlementLogger.Error().
			Str("user", entry.UserID).
			Int64("round", roundID).
			Msg(fmt.Sprintf("Unable to persist settlement record: %v", err))
	}
}

// ComputePayout classifies every staked target against the outcome and
// returns the per-target breakdown plus the clamped gross total.
//
// A main bet wins when its side wins the round. A side bet wins when
// its side wins and the winning hand's category carries nonzero odds.
// On a TIE no main bet wins; side bets on both sides settle against
// hand A's category (both hands share it on a true tie, category being
// the first comparison dimension).
func ComputePayout(stakes map[BetTarget]decimal.Decimal, outcome *RoundOutcome, settings *GameSettings) ([]SettledBet, decimal.Decimal) {
	winCategory := winningCategory(outcome)

	breakdown := make([]SettledBet, 0, len(stakes))
	total := decimal.Zero
	for target, stake := range stakes {
		if !stake.IsPositive() {
			continue
		}
		odds := decimal.Zero
		if target.IsMain() {
			if string(target) == outcome.Winner {
				odds = settings.MainOdds[string(target)]
			}
		} else if sideTargetWins(target, outcome.Winner) {
			odds = settings.SideOdds[winCategory.String()]
		}
		payout := stake.Mul(odds)
		breakdown = append(breakdown, SettledBet{Target: target, Stake: stake, Odds: odds, Payout: payout})
		total = total.Add(payout)
	}

	if total.GreaterThan(settings.MaxPayoutCap) {
		total = settings.MaxPayoutCap
	}
	return breakdown, total
}

func winningCategory(outcome *RoundOutcome) poker.HandCategory {
	if outcome.Winner == poker.WinnerB {
		return outcome.HandB.Category
	}
	return outcome.HandA.Category
}

func sideTargetWins(target BetTarget, winner string) bool {
	switch winner {
	case poker.WinnerA:
		return target == TargetSideA
	case poker.WinnerB:
		return target == TargetSideB
	case poker.WinnerTie:
		return target == TargetSideA || target == TargetSideB
	}
	return false
}
