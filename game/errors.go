package game

import "fmt"

// BetRejectedError is returned for every wager the engine refuses.
// Reason is sent to the player verbatim.
type BetRejectedError struct {
	Reason string
}

func (e BetRejectedError) Error() string {
	return e.Reason
}

// Rejection reasons. "not accepting bets" and "bets closed" are
// deliberately distinct so a client can tell whether it was early or
// late.
var (
	ErrNoSession           = BetRejectedError{Reason: "player details not found in cache"}
	ErrBetsNotOpen         = BetRejectedError{Reason: "not accepting bets for this round"}
	ErrBetsClosed          = BetRejectedError{Reason: "bets closed for this round"}
	ErrInvalidRound        = BetRejectedError{Reason: "invalid roundId"}
	ErrInvalidPayload      = BetRejectedError{Reason: "invalid bet payload"}
	ErrInvalidAmount       = BetRejectedError{Reason: "invalid bet amount"}
	ErrInsufficientBalance = BetRejectedError{Reason: "insufficient balance"}
	ErrDebitRefused        = BetRejectedError{Reason: "bet cancelled by upstream server"}
)

// UnsettledRoundError flags a round aggregate still present when the
// next round opens. This is an operational fault with real-money
// impact; it is alerted, never auto-corrected.
type UnsettledRoundError struct {
	RoundID int64
}

func (e UnsettledRoundError) Error() string {
	return fmt.Sprintf("round %d still has an unsettled bet aggregate", e.RoundID)
}
