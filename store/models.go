package store

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BetRecord is the append-only audit row for an accepted wager.
type BetRecord struct {
	gorm.Model

	UserID     string          `gorm:"index;size:50" json:"user_id"`
	RoundID    string          `gorm:"index;size:100" json:"round_id"`
	OperatorID string          `gorm:"index;size:50" json:"operator_id"`
	BetAmount  decimal.Decimal `gorm:"column:bet_amt;type:decimal(18,2)" json:"bet_amt"`
	BetValues  string          `gorm:"type:json" json:"bet_values"`
}

func (BetRecord) TableName() string {
	return "bet_results"
}

// SettlementRecord is written exactly once per participant per round.
type SettlementRecord struct {
	gorm.Model

	UserID      string          `gorm:"index;size:50" json:"user_id"`
	RoundID     string          `gorm:"index;size:100" json:"round_id"`
	OperatorID  string          `gorm:"index;size:50" json:"operator_id"`
	BetAmount   decimal.Decimal `gorm:"column:bet_amt;type:decimal(18,2)" json:"bet_amt"`
	WinAmount   decimal.Decimal `gorm:"column:win_amt;type:decimal(18,2)" json:"win_amt"`
	BetValues   string          `gorm:"type:json" json:"bet_values"`
	SettledBets string          `gorm:"type:json" json:"settled_bets"`
	RoundResult string          `gorm:"type:json" json:"round_result"`
	Status      string          `gorm:"size:8" json:"status"` // WIN | LOSS
}

func (SettlementRecord) TableName() string {
	return "settlements"
}

// RoundRecord keeps the outcome of a finished round for history
// backfill and reporting.
type RoundRecord struct {
	ID        uint      `gorm:"primaryKey"`
	RoundID   int64     `gorm:"uniqueIndex" json:"round_id"`
	Result    string    `gorm:"type:json" json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

func (RoundRecord) TableName() string {
	return "rounds"
}

// SettingsRecord holds a game settings document; the active row is
// loaded at process start.
type SettingsRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Settings  string    `gorm:"type:json" json:"settings"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (SettingsRecord) TableName() string {
	return "game_settings"
}
