// Package store is the relational persistence layer: append-only
// writes for accepted bets, settlements and round outcomes, plus the
// read paths used at startup (history backfill, active settings) and
// by the reporting endpoints.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var storeLogger = log.With().Str("logger_name", "store::store").Logger()

type Store interface {
	SaveBet(ctx context.Context, bet *BetRecord) error
	SaveSettlement(ctx context.Context, stmt *SettlementRecord) error
	SaveRound(ctx context.Context, round *RoundRecord) error

	RecentRounds(ctx context.Context, limit int) ([]RoundRecord, error)
	ActiveSettings(ctx context.Context) (string, error)
	LastWin(ctx context.Context, userID string, operatorID string) (decimal.Decimal, error)
	SettlementHistory(ctx context.Context, userID string, operatorID string, limit int) ([]SettlementRecord, error)
	SettlementByRound(ctx context.Context, userID string, operatorID string, roundID string) (*SettlementRecord, error)
}

type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects to Postgres, retrying with backoff so the
// game process survives the database coming up after it.
func NewGormStore(dsn string, maxAttempts int) (*GormStore, error) {
	var db *gorm.DB
	var err error
	backoff := time.Second
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err == nil {
			break
		}
		storeLogger.Error().Msg(fmt.Sprintf("Unable to connect to postgres (attempt %d/%d): %v", attempt, maxAttempts, err))
		time.Sleep(backoff)
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect to postgres")
	}

	if err := db.AutoMigrate(
		&BetRecord{},
		&SettlementRecord{},
		&RoundRecord{},
		&SettingsRecord{},
	); err != nil {
		return nil, errors.Wrap(err, "Unable to migrate tables")
	}
	storeLogger.Info().Msg("Connected to postgres")
	return &GormStore{db: db}, nil
}

func (s *GormStore) SaveBet(ctx context.Context, bet *BetRecord) error {
	return s.db.WithContext(ctx).Create(bet).Error
}

func (s *GormStore) SaveSettlement(ctx context.Context, stmt *SettlementRecord) error {
	return s.db.WithContext(ctx).Create(stmt).Error
}

func (s *GormStore) SaveRound(ctx context.Context, round *RoundRecord) error {
	return s.db.WithContext(ctx).Create(round).Error
}

func (s *GormStore) RecentRounds(ctx context.Context, limit int) ([]RoundRecord, error) {
	var rounds []RoundRecord
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&rounds).Error
	return rounds, err
}

// ActiveSettings returns the JSON document of the active settings row,
// or "" when no row is active.
func (s *GormStore) ActiveSettings(ctx context.Context) (string, error) {
	var rec SettingsRecord
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at desc").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.Settings, nil
}

func (s *GormStore) LastWin(ctx context.Context, userID string, operatorID string) (decimal.Decimal, error) {
	var rec SettlementRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND operator_id = ? AND win_amt > 0", userID, operatorID).
		Order("created_at desc").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return rec.WinAmount, nil
}

func (s *GormStore) SettlementHistory(ctx context.Context, userID string, operatorID string, limit int) ([]SettlementRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var records []SettlementRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND operator_id = ?", userID, operatorID).
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (s *GormStore) SettlementByRound(ctx context.Context, userID string, operatorID string, roundID string) (*SettlementRecord, error) {
	var rec SettlementRecord
	err := s.db.WithContext(ctx).
		Where("round_id = ? AND user_id = ? AND operator_id = ?", roundID, userID, operatorID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
