package game

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"primeplay.com/abgame/cache"
	"primeplay.com/abgame/poker"
	"primeplay.com/abgame/store"
)

var lobbyLogger = log.With().Str("logger_name", "game::lobby").Logger()

// LobbyConfig holds the phase durations (seconds) and the result
// history bound.
type LobbyConfig struct {
	GameCode          string `yaml:"game_code"`
	PlaceBetSeconds   int    `yaml:"place_bet_seconds"`
	CollectBetSeconds int    `yaml:"collect_bet_seconds"`
	ShowCardsSeconds  int    `yaml:"show_cards_seconds"`
	EndedSeconds      int    `yaml:"ended_seconds"`
	HistorySize       int    `yaml:"history_size"`
}

func DefaultLobbyConfig() LobbyConfig {
	return LobbyConfig{
		GameCode:          "abgame",
		PlaceBetSeconds:   15,
		CollectBetSeconds: 6,
		ShowCardsSeconds:  8,
		EndedSeconds:      6,
		HistorySize:       3,
	}
}

// Lobby drives the perpetual round loop: STARTED -> PLACE_BET ->
// COLLECT_BET -> SHOW_CARDS -> ENDED -> next round. It owns the
// current round identity, phase, outcome and the bounded result
// history; other components only see them through the read accessors.
type Lobby struct {
	config   LobbyConfig
	clock    Clock
	receiver MessageReceiver
	cache    cache.Cache
	store    store.Store
	settler  *Settler

	chEnd chan bool

	// roundState guards the mutable round context
	roundState
}

func NewLobby(
	config LobbyConfig,
	clock Clock,
	receiver MessageReceiver,
	cacheClient cache.Cache,
	st store.Store,
	settler *Settler,
) *Lobby {
	l := &Lobby{
		config:   config,
		clock:    clock,
		receiver: receiver,
		cache:    cacheClient,
		store:    st,
		settler:  settler,
		chEnd:    make(chan bool, 1),
	}
	l.initRoundState()
	l.backfillHistory()
	return l
}

// backfillHistory loads the most recent persisted round outcomes so
// clients connecting right after a restart still see continuity.
func (l *Lobby) backfillHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	records, err := l.store.RecentRounds(ctx, l.config.HistorySize)
	if err != nil {
		lobbyLogger.Error().Msg(fmt.Sprintf("Unable to backfill round history: %v", err))
		return
	}
	// records come newest first; history is kept oldest first
	for i := len(records) - 1; i >= 0; i-- {
		var outcome RoundOutcome
		if err := json.Unmarshal([]byte(records[i].Result), &outcome); err != nil {
			lobbyLogger.Error().Msg(fmt.Sprintf("Skipping unparsable round record %d: %v", records[i].RoundID, err))
			continue
		}
		l.pushHistory(outcome, l.config.HistorySize)
	}
	lobbyLogger.Info().Msg(fmt.Sprintf("Backfilled %d round results", len(records)))
}

// Run loops rounds until Stop is called. A panic in one round is
// logged and the loop continues with a fresh round; per-participant
// failures can never take the round loop down.
func (l *Lobby) Run() {
	for {
		select {
		case <-l.chEnd:
			lobbyLogger.Info().Msg("Round loop stopped")
			return
		default:
			l.runRound()
		}
	}
}

func (l *Lobby) Stop() {
	l.chEnd <- true
}

func (l *Lobby) runRound() {
	defer func() {
		if err := recover(); err != nil {
			lobbyLogger.Error().
				Msg(fmt.Sprintf("Round aborted due to panic: %s\nStack Trace:\n%s", err, string(debug.Stack())))
		}
	}()

	prevRoundID := l.CurrentRoundID()

	// STARTED: mint the round id, clear the previous outcome.
	roundID := l.startRound(l.clock.Now())
	l.checkLeftoverAggregate(prevRoundID)
	l.broadcastStatus(roundID, PhaseStarted)

	// PLACE_BET: betting is admissible.
	l.setPhase(PhasePlaceBet)
	l.broadcastStatus(roundID, PhasePlaceBet)
	l.countdown(roundID, PhasePlaceBet, l.config.PlaceBetSeconds, nil)

	// COLLECT_BET: no new wagers, admitted ones stand.
	l.setPhase(PhaseCollectBet)
	l.broadcastStatus(roundID, PhaseCollectBet)
	l.countdown(roundID, PhaseCollectBet, l.config.CollectBetSeconds, nil)

	// SHOW_CARDS: deal once, publish, kick off settlement. The timer
	// does not wait for settlement; it proceeds on its own schedule.
	handA, handB := poker.DealHands(nil)
	result := poker.DetermineWinner(handA, handB)
	outcome := &RoundOutcome{
		RoundID: roundID,
		Winner:  result.Winner,
		HandA:   result.HandA,
		HandB:   result.HandB,
	}
	l.setOutcome(outcome)
	l.setPhase(PhaseShowCards)
	l.broadcastStatus(roundID, PhaseShowCards)
	l.receiver.BroadcastGameMessage(&Event{Type: EventRoundResult, Payload: outcome})
	go l.settler.SettleRound(roundID, outcome)
	l.countdown(roundID, PhaseShowCards, l.config.ShowCardsSeconds, outcome)

	// ENDED: cooldown, then persist the outcome into bounded history.
	l.setPhase(PhaseEnded)
	l.broadcastStatus(roundID, PhaseEnded)
	l.receiver.BroadcastGameMessage(&Event{Type: EventRoundResult, Payload: outcome})
	l.countdown(roundID, PhaseEnded, l.config.EndedSeconds, nil)

	l.persistRound(outcome)
	l.pushHistory(*outcome, l.config.HistorySize)
}

func (l *Lobby) countdown(roundID int64, phase GamePhase, seconds int, outcome *RoundOutcome) {
	for i := seconds; i > 0; i-- {
		l.receiver.BroadcastGameMessage(&Event{Type: EventCountdown, Payload: &CountdownPayload{
			RoundID:    roundID,
			StatusCode: phase.Code(),
			Seconds:    i,
			Outcome:    outcome,
		}})
		l.clock.Sleep(time.Second)
	}
}

func (l *Lobby) broadcastStatus(roundID int64, phase GamePhase) {
	l.receiver.BroadcastGameMessage(&Event{Type: EventGameStatus, Payload: &StatusPayload{
		RoundID:    roundID,
		Status:     phase.String(),
		StatusCode: phase.Code(),
	}})
}

// checkLeftoverAggregate alerts when the previous round's bet
// aggregate is still in the cache as the next round starts. Settlement
// should have cleared it; a leftover means unsettled real-money bets
// that need manual reconciliation, not silent cleanup.
func (l *Lobby) checkLeftoverAggregate(prevRoundID int64) {
	if prevRoundID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var leftover RoundBets
	found, err := l.cache.Get(ctx, RoundKey(prevRoundID), &leftover)
	if err != nil {
		lobbyLogger.Error().Msg(fmt.Sprintf("Unable to verify aggregate cleanup for round %d: %v", prevRoundID, err))
		return
	}
	if found && len(leftover) > 0 {
		err := UnsettledRoundError{RoundID: prevRoundID}
		lobbyLogger.Error().
			Int64("round", prevRoundID).
			Int("participants", len(leftover)).
			Msg(fmt.Sprintf("ALERT: %v", err))
	}
}

func (l *Lobby) persistRound(outcome *RoundOutcome) {
	data, err := json.Marshal(outcome)
	if err != nil {
		lobbyLogger.Error().Msg(fmt.Sprintf("Unable to marshal outcome for round %d: %v", outcome.RoundID, err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.store.SaveRound(ctx, &store.RoundRecord{RoundID: outcome.RoundID, Result: string(data)}); err != nil {
		lobbyLogger.Error().Msg(fmt.Sprintf("Unable to persist round %d: %v", outcome.RoundID, err))
	}
}

// GameState snapshots the lobby for a late-joining client. The current
// outcome is only included from SHOW_CARDS onward.
func (l *Lobby) GameState() *GameStatePayload {
	roundID, phase, outcome := l.snapshot()
	return &GameStatePayload{
		RoundID:     roundID,
		Status:      phase.String(),
		StatusCode:  phase.Code(),
		RoundResult: outcome,
		PrevResults: l.History(),
	}
}
