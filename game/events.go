package game

import "github.com/shopspring/decimal"

// Event is one message on the per-connection channel or the round
// broadcast channel.
type Event struct {
	Type    string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Event types sent to clients.
const (
	EventGameStatus  = "game_status"
	EventCountdown   = "countdown"
	EventRoundResult = "round_result"
	EventGameState   = "game_state"
	EventInfo        = "info"
	EventBetResult   = "bet_result"
	EventBetError    = "betError"
	EventSettlement  = "settlement"
	EventLastWin     = "lastWin"
)

// MessageReceiver fans events out to the connected participants. The
// NATS implementation publishes on the game subjects; tests use an
// in-process hub.
type MessageReceiver interface {
	BroadcastGameMessage(event *Event)
	SendMessageToPlayer(sessionID string, event *Event)
}

// StatusPayload announces a phase transition.
type StatusPayload struct {
	RoundID    int64  `json:"roundId"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
}

// CountdownPayload is emitted once per second within a phase. During
// SHOW_CARDS the dealt hands ride along with every tick.
type CountdownPayload struct {
	RoundID    int64         `json:"roundId"`
	StatusCode int           `json:"statusCode"`
	Seconds    int           `json:"seconds"`
	Outcome    *RoundOutcome `json:"outcome,omitempty"`
}

// GameStatePayload is the connect-time snapshot for late joiners.
type GameStatePayload struct {
	RoundID     int64          `json:"roundId"`
	Status      string         `json:"status"`
	StatusCode  int            `json:"statusCode"`
	RoundResult *RoundOutcome  `json:"roundResult,omitempty"`
	PrevResults []RoundOutcome `json:"prevRoundResults"`
}

// InfoPayload mirrors the cached balance back to the player.
type InfoPayload struct {
	UserID     string          `json:"urId"`
	UserName   string          `json:"urNm"`
	Balance    decimal.Decimal `json:"bl"`
	OperatorID string          `json:"operatorId"`
}

// SettlementPayload tells one participant how the round ended for
// them.
type SettlementPayload struct {
	RoundID   int64           `json:"roundId"`
	Status    string          `json:"status"` // WIN | LOSS
	WinAmount decimal.Decimal `json:"winAmt"`
	Winner    string          `json:"winner"`
}

func InfoEvent(s *Session) *Event {
	return &Event{Type: EventInfo, Payload: &InfoPayload{
		UserID:     s.UserID,
		UserName:   s.UserName,
		Balance:    s.Balance,
		OperatorID: s.OperatorID,
	}}
}
