package game

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"primeplay.com/abgame/wallet"
)

// fakeRounds stands in for the lobby's round accessors.
type fakeRounds struct {
	roundID int64
	phase   GamePhase
}

func (f *fakeRounds) CurrentRoundID() int64 {
	return f.roundID
}

func (f *fakeRounds) CurrentPhase() GamePhase {
	return f.phase
}

// fakeWallet records debit/credit calls and can be told to refuse.
type fakeWallet struct {
	mu           sync.Mutex
	refuseDebit  bool
	refuseCredit bool
	debits       []*wallet.TxnRequest
	credits      []*wallet.TxnRequest
}

func (f *fakeWallet) Debit(ctx context.Context, req *wallet.TxnRequest) (*wallet.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuseDebit {
		return nil, wallet.ErrRefused
	}
	f.debits = append(f.debits, req)
	return &wallet.Receipt{TxnID: "debit-txn"}, nil
}

func (f *fakeWallet) Credit(ctx context.Context, req *wallet.TxnRequest) (*wallet.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuseCredit {
		return nil, wallet.ErrRefused
	}
	f.credits = append(f.credits, req)
	return &wallet.Receipt{TxnID: "credit-txn"}, nil
}

func (f *fakeWallet) creditCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.credits)
}

// fakeReceiver collects every emitted event.
type fakeReceiver struct {
	mu        sync.Mutex
	broadcast []*Event
	direct    map[string][]*Event
}

func newFakeReceiver() *fakeReceiver {
	return &fakeReceiver{direct: make(map[string][]*Event)}
}

func (f *fakeReceiver) BroadcastGameMessage(event *Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast = append(f.broadcast, event)
}

func (f *fakeReceiver) SendMessageToPlayer(sessionID string, event *Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct[sessionID] = append(f.direct[sessionID], event)
}

func (f *fakeReceiver) broadcastTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.broadcast))
	for _, e := range f.broadcast {
		types = append(types, e.Type)
	}
	return types
}

func (f *fakeReceiver) playerEvents(sessionID string) []*Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Event{}, f.direct[sessionID]...)
}

// fakeClock never sleeps; Now advances by a fixed step per call so
// round ids stay distinct.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 4, 21, 10, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
