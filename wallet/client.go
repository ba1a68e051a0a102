package wallet

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var walletLogger = log.With().Str("logger_name", "wallet::client").Logger()
var failedTxnLogger = log.With().Str("logger_name", "wallet::failed_txn").Logger()

const (
	txnTypeDebit  = 0
	txnTypeCredit = 1

	balancePath    = "/service/operator/user/balance/v2"
	userDetailPath = "/service/user/detail"

	// CashoutSubject carries credit requests to the ledger worker.
	CashoutSubject = "accounts.games.cashout"
)

// Client implements Wallet against the accounts service: debits go as
// a synchronous webhook POST with a bounded timeout, credits are
// published to the cashout subject and picked up by the ledger worker.
type Client struct {
	baseURL    string
	gameName   string
	httpClient *http.Client
	nc         *natsgo.Conn
}

func NewClient(baseURL string, gameName string, nc *natsgo.Conn, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		gameName:   gameName,
		httpClient: &http.Client{Timeout: timeout},
		nc:         nc,
	}
}

type webhookPayload struct {
	TxnID       string  `json:"txn_id"`
	IP          string  `json:"ip,omitempty"`
	GameID      string  `json:"game_id"`
	UserID      string  `json:"user_id"`
	Amount      string  `json:"amount"`
	Description string  `json:"description"`
	BetID       string  `json:"bet_id,omitempty"`
	TxnType     int     `json:"txn_type"`
	TxnRefID    string  `json:"txn_ref_id,omitempty"`
	OperatorID  string  `json:"operatorId,omitempty"`
	Token       string  `json:"token,omitempty"`
}

type webhookResponse struct {
	Status bool `json:"status"`
}

func (c *Client) Debit(ctx context.Context, req *TxnRequest) (*Receipt, error) {
	payload := &webhookPayload{
		TxnID:       uuid.NewString(),
		IP:          req.IP,
		GameID:      req.GameID,
		UserID:      req.UserID,
		Amount:      req.Amount.StringFixed(2),
		Description: fmt.Sprintf("%s debited for %s game for Round %s", req.Amount.StringFixed(2), c.gameName, req.RoundID),
		BetID:       req.RoundID,
		TxnType:     txnTypeDebit,
	}

	accepted, err := c.post(ctx, payload, req.Token)
	if err != nil {
		failedTxnLogger.Error().
			Str("user", req.UserID).
			Str("round", req.RoundID).
			Msg(fmt.Sprintf("Debit failed: %v", err))
		return nil, errors.Wrap(err, "Unable to debit player account")
	}
	if !accepted {
		return nil, ErrRefused
	}
	return &Receipt{TxnID: payload.TxnID}, nil
}

// Credit publishes the cashout to the ledger queue. A successful
// publish is the receipt; the ledger worker applies it idempotently
// using the txn id.
func (c *Client) Credit(ctx context.Context, req *TxnRequest) (*Receipt, error) {
	payload := &webhookPayload{
		TxnID:       uuid.NewString(),
		GameID:      req.GameID,
		UserID:      req.UserID,
		Amount:      req.Amount.StringFixed(2),
		Description: fmt.Sprintf("%s credited for %s game for Round %s", req.Amount.StringFixed(2), c.gameName, req.RoundID),
		TxnType:     txnTypeCredit,
		TxnRefID:    req.RefTxnID,
		OperatorID:  req.OperatorID,
		Token:       req.Token,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to marshal cashout payload")
	}
	if err := c.nc.Publish(CashoutSubject, data); err != nil {
		failedTxnLogger.Error().
			Str("user", req.UserID).
			Str("round", req.RoundID).
			Msg(fmt.Sprintf("Credit publish failed: %v", err))
		return nil, errors.Wrap(err, "Unable to publish credit to cashout queue")
	}
	return &Receipt{TxnID: payload.TxnID}, nil
}

// UserDetail authenticates a connection token with the accounts
// service and returns the player identity and balance.
func (c *Client) UserDetail(ctx context.Context, token string) (*UserDetail, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userDetailPath, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("token", token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to fetch user detail")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("User detail request failed with status %d", resp.StatusCode)
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var detail struct {
		Status bool       `json:"status"`
		User   UserDetail `json:"user"`
	}
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, errors.Wrap(err, "Unable to parse user detail response")
	}
	if !detail.Status {
		return nil, errors.New("invalid token or user not found")
	}
	return &detail.User, nil
}

func (c *Client) post(ctx context.Context, payload *webhookPayload, token string) (bool, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+balancePath, bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("token", token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	walletLogger.Debug().Msg(fmt.Sprintf("Balance webhook %s responded %d", payload.TxnID, resp.StatusCode))

	var wr webhookResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return false, errors.Wrap(err, "Unable to parse balance webhook response")
	}
	return wr.Status, nil
}
