package store

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps records in memory. Used by tests and by local
// development runs without a database.
type MemoryStore struct {
	mu          sync.Mutex
	Bets        []BetRecord
	Settlements []SettlementRecord
	Rounds      []RoundRecord
	Settings    string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveBet(ctx context.Context, bet *BetRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Bets = append(m.Bets, *bet)
	return nil
}

func (m *MemoryStore) SaveSettlement(ctx context.Context, stmt *SettlementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Settlements = append(m.Settlements, *stmt)
	return nil
}

func (m *MemoryStore) SaveRound(ctx context.Context, round *RoundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rounds = append(m.Rounds, *round)
	return nil
}

func (m *MemoryStore) RecentRounds(ctx context.Context, limit int) ([]RoundRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rounds []RoundRecord
	for i := len(m.Rounds) - 1; i >= 0 && len(rounds) < limit; i-- {
		rounds = append(rounds, m.Rounds[i])
	}
	return rounds, nil
}

func (m *MemoryStore) ActiveSettings(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Settings, nil
}

func (m *MemoryStore) LastWin(ctx context.Context, userID string, operatorID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Settlements) - 1; i >= 0; i-- {
		rec := m.Settlements[i]
		if rec.UserID == userID && rec.OperatorID == operatorID && rec.WinAmount.IsPositive() {
			return rec.WinAmount, nil
		}
	}
	return decimal.Zero, nil
}

func (m *MemoryStore) SettlementHistory(ctx context.Context, userID string, operatorID string, limit int) ([]SettlementRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []SettlementRecord
	for i := len(m.Settlements) - 1; i >= 0 && len(records) < limit; i-- {
		rec := m.Settlements[i]
		if rec.UserID == userID && rec.OperatorID == operatorID {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (m *MemoryStore) SettlementByRound(ctx context.Context, userID string, operatorID string, roundID string) (*SettlementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Settlements {
		rec := m.Settlements[i]
		if rec.UserID == userID && rec.OperatorID == operatorID && rec.RoundID == roundID {
			return &rec, nil
		}
	}
	return nil, nil
}
