package game

import "sync"

// RoundLocks serializes access to one round's bet aggregate. Wager
// merges and the settlement read-and-clear for the same round must
// never interleave; a whole-aggregate last-writer-wins write would
// lose bets.
type RoundLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRoundLocks() *RoundLocks {
	return &RoundLocks{locks: make(map[string]*sync.Mutex)}
}

func (r *RoundLocks) Get(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lock, ok := r.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	r.locks[key] = lock
	return lock
}

// Release drops the lock entry once a round is fully settled.
func (r *RoundLocks) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, key)
}
