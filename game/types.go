package game

import (
	"fmt"

	"github.com/shopspring/decimal"
	"primeplay.com/abgame/poker"
)

// GamePhase is the stage of the round loop. Phase codes are part of
// the client protocol; they must match the numeric order below.
type GamePhase int

const (
	PhaseStarted GamePhase = iota
	PhasePlaceBet
	PhaseCollectBet
	PhaseShowCards
	PhaseEnded
)

var phaseNames = map[GamePhase]string{
	PhaseStarted:    "STARTED",
	PhasePlaceBet:   "PLACE_BET",
	PhaseCollectBet: "COLLECT_BET",
	PhaseShowCards:  "SHOW_CARDS",
	PhaseEnded:      "ENDED",
}

func (p GamePhase) String() string {
	return phaseNames[p]
}

func (p GamePhase) Code() int {
	return int(p)
}

// BetTarget is one of the four legal things a wager can back: a side
// winning the round outright (main bet) or the winning side's hand
// category (side bet).
type BetTarget string

const (
	TargetMainA BetTarget = "PLAYER_A"
	TargetMainB BetTarget = "PLAYER_B"
	TargetSideA BetTarget = "SIDE_A"
	TargetSideB BetTarget = "SIDE_B"
)

// betSymbols maps the compact wire symbols to targets. Clients send
// "A-100" or "+A-50"; the long names are accepted as well.
var betSymbols = map[string]BetTarget{
	"A":        TargetMainA,
	"B":        TargetMainB,
	"+A":       TargetSideA,
	"+B":       TargetSideB,
	"PLAYER_A": TargetMainA,
	"PLAYER_B": TargetMainB,
	"SIDE_A":   TargetSideA,
	"SIDE_B":   TargetSideB,
}

func (t BetTarget) IsMain() bool {
	return t == TargetMainA || t == TargetMainB
}

// RoundOutcome is created once per round when the cards are shown and
// never mutated afterwards.
type RoundOutcome struct {
	RoundID int64          `json:"roundId"`
	Winner  string         `json:"winner"` // PLAYER_A | PLAYER_B | TIE
	HandA   poker.HandRank `json:"handA"`
	HandB   poker.HandRank `json:"handB"`
}

// Session is the cached per-connection participant state: identity
// snapshot plus the live balance mirror.
type Session struct {
	SessionID  string          `json:"sid"`
	UserID     string          `json:"urId"`
	UserName   string          `json:"urNm"`
	Balance    decimal.Decimal `json:"bl"`
	OperatorID string          `json:"operatorId"`
	GameID     string          `json:"gmId"`
	Token      string          `json:"token"`
	IP         string          `json:"ip"`
}

// BetEntry is one participant's slot in the round aggregate: the
// accumulated stakes per target, the debit receipts and the identity
// snapshot needed to settle without the player being connected.
type BetEntry struct {
	SessionID   string                        `json:"sid"`
	UserID      string                        `json:"urId"`
	UserName    string                        `json:"urNm"`
	OperatorID  string                        `json:"operatorId"`
	GameID      string                        `json:"gmId"`
	Token       string                        `json:"token"`
	IP          string                        `json:"ip"`
	Stakes      map[BetTarget]decimal.Decimal `json:"stakes"`
	DebitTxnIDs []string                      `json:"debitTxnIds"`
}

func (e *BetEntry) TotalStake() decimal.Decimal {
	total := decimal.Zero
	for _, amt := range e.Stakes {
		total = total.Add(amt)
	}
	return total
}

// RoundBets is the per-round aggregate keyed by user id. Its presence
// in the cache is the sole signal that the round has unsettled bets.
type RoundBets map[string]*BetEntry

// RoundKey is the cache key of a round's aggregate.
func RoundKey(roundID int64) string {
	return fmt.Sprintf("%d", roundID)
}
