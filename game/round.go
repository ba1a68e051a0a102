package game

import (
	"sync"
	"time"
)

// roundState is the single round-context object owned by the lobby:
// current round id, phase, outcome and bounded history. All other
// components read it through the accessors below; nothing shares the
// raw fields.
type roundState struct {
	mu          sync.RWMutex
	roundID     int64
	lastRoundID int64
	phase       GamePhase
	outcome     *RoundOutcome
	history     []RoundOutcome
}

func (r *roundState) initRoundState() {
	r.phase = PhaseStarted
}

// startRound mints a new time-derived round id, strictly greater than
// every id handed out before, and clears the outcome reference.
func (r *roundState) startRound(now time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := now.UnixMilli()
	if id <= r.lastRoundID {
		id = r.lastRoundID + 1
	}
	r.lastRoundID = id
	r.roundID = id
	r.phase = PhaseStarted
	r.outcome = nil
	return id
}

func (r *roundState) setPhase(phase GamePhase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = phase
}

func (r *roundState) setOutcome(outcome *RoundOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcome = outcome
}

func (r *roundState) CurrentRoundID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roundID
}

func (r *roundState) CurrentPhase() GamePhase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase
}

// CurrentOutcome is only non-nil from SHOW_CARDS until the next round
// starts.
func (r *roundState) CurrentOutcome() *RoundOutcome {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outcome
}

// History returns the retained outcomes, oldest first.
func (r *roundState) History() []RoundOutcome {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoundOutcome, len(r.history))
	copy(out, r.history)
	return out
}

// pushHistory appends with FIFO eviction; recency matters, access
// pattern does not.
func (r *roundState) pushHistory(outcome RoundOutcome, bound int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bound <= 0 {
		return
	}
	if len(r.history) >= bound {
		r.history = r.history[1:]
	}
	r.history = append(r.history, outcome)
}

func (r *roundState) snapshot() (int64, GamePhase, *RoundOutcome) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	outcome := r.outcome
	if r.phase < PhaseShowCards {
		outcome = nil
	}
	return r.roundID, r.phase, outcome
}
