// Package wallet talks to the upstream accounts service that owns the
// real player balances. Debits are synchronous webhook calls; credits
// are handed to the cashout queue. Both return a receipt or a
// definitive refusal, and the caller must not repeat a call for the
// same (participant, round, direction) once either is received.
package wallet

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrRefused means the upstream processed the request and said no.
// A timeout or transport failure is returned as a different error but
// is treated by bet admission exactly like a refusal.
var ErrRefused = errors.New("transaction refused by upstream server")

// TxnRequest identifies one debit or credit against a player account.
type TxnRequest struct {
	UserID     string
	OperatorID string
	GameID     string
	Token      string
	RoundID    string
	Amount     decimal.Decimal
	IP         string
	// RefTxnID links a credit back to the debit receipt of the same round.
	RefTxnID string
}

// Receipt acknowledges an accepted transaction.
type Receipt struct {
	TxnID string `json:"txn_id"`
}

type Wallet interface {
	Debit(ctx context.Context, req *TxnRequest) (*Receipt, error)
	Credit(ctx context.Context, req *TxnRequest) (*Receipt, error)
}

// UserDetail is the authenticated player identity snapshot returned by
// the accounts service during connection auth.
type UserDetail struct {
	UserID     string          `json:"user_id"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
	OperatorID string          `json:"operatorId"`
}
