package game

import (
	"context"
	"fmt"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"primeplay.com/abgame/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var settingsLogger = log.With().Str("logger_name", "game::settings").Logger()

// GameSettings is the stake window and payout odds configuration.
// Odds are gross multipliers: a winning stake pays stake * odds
// (stake returned plus profit).
type GameSettings struct {
	MinStake     decimal.Decimal            `json:"min_amt"`
	MaxStake     decimal.Decimal            `json:"max_amt"`
	MaxPayoutCap decimal.Decimal            `json:"max_co"`
	MainOdds     map[string]decimal.Decimal `json:"main_mult"`
	SideOdds     map[string]decimal.Decimal `json:"side_mult"`
}

// DefaultSettings is the built-in fallback when no active settings
// row exists in the store.
func DefaultSettings() *GameSettings {
	return &GameSettings{
		MinStake:     decimal.NewFromInt(25),
		MaxStake:     decimal.NewFromInt(200000),
		MaxPayoutCap: decimal.NewFromInt(1000000),
		MainOdds: map[string]decimal.Decimal{
			"PLAYER_A": decimal.RequireFromString("1.98"),
			"PLAYER_B": decimal.RequireFromString("1.98"),
		},
		SideOdds: map[string]decimal.Decimal{
			"PAIR":           decimal.NewFromInt(1),
			"FLUSH":          decimal.NewFromInt(4),
			"STRAIGHT":       decimal.NewFromInt(6),
			"STRAIGHT_FLUSH": decimal.NewFromInt(35),
			"TRIO":           decimal.NewFromInt(45),
		},
	}
}

// SettingsHolder makes the settings safe for unsynchronized concurrent
// reads with an atomic swap on reload.
type SettingsHolder struct {
	v atomic.Value
}

func NewSettingsHolder(settings *GameSettings) *SettingsHolder {
	h := &SettingsHolder{}
	h.v.Store(settings)
	return h
}

func (h *SettingsHolder) Current() *GameSettings {
	return h.v.Load().(*GameSettings)
}

func (h *SettingsHolder) Swap(settings *GameSettings) {
	h.v.Store(settings)
}

// Reload fetches the active settings document from the store and
// swaps it in, falling back to the built-in defaults when no row is
// active. Returns the settings now in effect.
func (h *SettingsHolder) Reload(ctx context.Context, st store.Store) (*GameSettings, error) {
	doc, err := st.ActiveSettings(ctx)
	if err != nil {
		return nil, err
	}
	if doc == "" {
		settings := DefaultSettings()
		h.Swap(settings)
		settingsLogger.Info().Msg("No active settings row, using built-in defaults")
		return settings, nil
	}
	settings := DefaultSettings()
	if err := json.Unmarshal([]byte(doc), settings); err != nil {
		return nil, fmt.Errorf("unable to parse active settings document: %v", err)
	}
	h.Swap(settings)
	settingsLogger.Info().Msg("Game settings loaded")
	return settings, nil
}
