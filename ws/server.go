// Package ws owns the per-connection event channel: one websocket per
// participant carrying phase ticks, results, bet acks and settlement
// notices. Broadcast traffic arrives over the NATS subjects; the
// connection just forwards it.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"

	"primeplay.com/abgame/cache"
	"primeplay.com/abgame/game"
	"primeplay.com/abgame/nats"
	"primeplay.com/abgame/store"
	"primeplay.com/abgame/wallet"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var wsLogger = log.With().Str("logger_name", "ws::server").Logger()

const (
	// sendQueueSize bounds the per-connection outbound buffer. A slow
	// consumer loses broadcast ticks, never its private events order.
	sendQueueSize = 64

	// inbound message budget per connection
	msgRatePerSec = 5
	msgBurst      = 10
)

// Accounts authenticates a connection token. Implemented by the
// wallet client; faked in tests.
type Accounts interface {
	UserDetail(ctx context.Context, token string) (*wallet.UserDetail, error)
}

type Server struct {
	lobby    *game.Lobby
	engine   *game.BetEngine
	cache    cache.Cache
	store    store.Store
	accounts Accounts
	nc       *natsgo.Conn
	gameCode string
}

func NewServer(
	lobby *game.Lobby,
	engine *game.BetEngine,
	cacheClient cache.Cache,
	st store.Store,
	accounts Accounts,
	nc *natsgo.Conn,
	gameCode string,
) *Server {
	return &Server{
		lobby:    lobby,
		engine:   engine,
		cache:    cacheClient,
		store:    st,
		accounts: accounts,
		nc:       nc,
		gameCode: gameCode,
	}
}

// HandleConnection upgrades the request, authenticates the token with
// the accounts service and runs the connection until it drops. A
// failure in here only ever takes down this one connection.
func (s *Server) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	gameID := c.Query("game_id")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	authCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	detail, err := s.accounts.UserDetail(authCtx, token)
	cancel()
	if err != nil {
		wsLogger.Error().Msg(fmt.Sprintf("Authentication failed: %v", err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to authenticate user"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		wsLogger.Error().Msg(fmt.Sprintf("Websocket upgrade failed: %v", err))
		return
	}

	sessionID := uuid.NewString()
	session := &game.Session{
		SessionID:  sessionID,
		UserID:     detail.UserID,
		UserName:   detail.Name,
		Balance:    detail.Balance,
		OperatorID: detail.OperatorID,
		GameID:     gameID,
		Token:      token,
		IP:         clientIP(c),
	}

	ctx, cancelConn := context.WithCancel(context.Background())
	defer cancelConn()

	if err := s.cache.Set(ctx, sessionID, session, 0); err != nil {
		wsLogger.Error().Msg(fmt.Sprintf("Unable to cache session: %v", err))
		conn.Close(websocket.StatusInternalError, "session setup failed")
		return
	}

	player := &playerConn{
		server:    s,
		conn:      conn,
		sessionID: sessionID,
		userID:    detail.UserID,
		send:      make(chan []byte, sendQueueSize),
	}
	player.run(ctx, cancelConn, session)
}

type playerConn struct {
	server    *Server
	conn      *websocket.Conn
	sessionID string
	userID    string
	send      chan []byte
}

func (p *playerConn) run(ctx context.Context, cancel context.CancelFunc, session *game.Session) {
	s := p.server

	allSub, err := s.nc.Subscribe(nats.GetGame2AllPlayersSubject(s.gameCode), p.forward)
	if err != nil {
		wsLogger.Error().Msg(fmt.Sprintf("Unable to subscribe to broadcast subject: %v", err))
		p.conn.Close(websocket.StatusInternalError, "subscription failed")
		return
	}
	playerSub, err := s.nc.Subscribe(nats.GetGame2PlayerSubject(s.gameCode, p.sessionID), p.forward)
	if err != nil {
		allSub.Unsubscribe()
		wsLogger.Error().Msg(fmt.Sprintf("Unable to subscribe to player subject: %v", err))
		p.conn.Close(websocket.StatusInternalError, "subscription failed")
		return
	}

	defer func() {
		allSub.Unsubscribe()
		playerSub.Unsubscribe()
		s.cache.Del(context.Background(), p.sessionID)
		p.conn.Close(websocket.StatusNormalClosure, "")
		wsLogger.Info().Str("user", p.userID).Msg("Connection closed")
	}()

	go p.writeLoop(ctx)

	p.sendEvent(game.InfoEvent(session))
	p.sendEvent(&game.Event{Type: game.EventGameState, Payload: s.lobby.GameState()})
	p.sendLastWin(ctx, session)

	p.readLoop(ctx, cancel)
}

func (p *playerConn) sendLastWin(ctx context.Context, session *game.Session) {
	lastWin, err := p.server.store.LastWin(ctx, session.UserID, session.OperatorID)
	if err != nil {
		wsLogger.Error().Msg(fmt.Sprintf("Unable to fetch last win: %v", err))
		return
	}
	if lastWin.IsPositive() {
		p.sendEvent(&game.Event{Type: game.EventLastWin, Payload: gin.H{"lastWin": lastWin.StringFixed(2)}})
	}
}

// forward pushes a NATS event onto the outbound queue. Queue overrun
// drops the message for this connection only.
func (p *playerConn) forward(msg *natsgo.Msg) {
	select {
	case p.send <- msg.Data:
	default:
		wsLogger.Warn().Str("user", p.userID).Msg("Outbound queue full, dropping event")
	}
}

func (p *playerConn) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-p.send:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := p.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (p *playerConn) readLoop(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	limiter := rate.NewLimiter(rate.Limit(msgRatePerSec), msgBurst)
	for {
		_, data, err := p.conn.Read(ctx)
		if err != nil {
			return
		}
		if !limiter.Allow() {
			p.sendEvent(&game.Event{Type: game.EventBetError, Payload: "too many messages"})
			continue
		}
		p.handleMessage(ctx, string(data))
	}
}

// handleMessage dispatches one inbound line. The only player-to-game
// message is the bet: PLACE_BET:<roundId>:<target>-<amount>[,...]
// ("PB" is accepted as the legacy short form).
func (p *playerConn) handleMessage(ctx context.Context, raw string) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		p.sendEvent(&game.Event{Type: game.EventBetError, Payload: "invalid event"})
		return
	}
	event, roundIDStr, betData := parts[0], parts[1], parts[2]
	switch event {
	case "PLACE_BET", "PB":
		roundID, err := strconv.ParseInt(roundIDStr, 10, 64)
		if err != nil {
			p.sendEvent(&game.Event{Type: game.EventBetError, Payload: game.ErrInvalidRound.Reason})
			return
		}
		session, err := p.server.engine.PlaceBet(ctx, p.sessionID, roundID, betData)
		if err != nil {
			reason := "unable to place bet"
			if rejected, ok := err.(game.BetRejectedError); ok {
				reason = rejected.Reason
			}
			p.sendEvent(&game.Event{Type: game.EventBetError, Payload: reason})
			return
		}
		p.sendEvent(game.InfoEvent(session))
		p.sendEvent(&game.Event{Type: game.EventBetResult, Payload: gin.H{"message": "bet has been accepted successfully"}})
	default:
		p.sendEvent(&game.Event{Type: game.EventBetError, Payload: "invalid event"})
	}
}

func (p *playerConn) sendEvent(event *game.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		wsLogger.Error().Msg(fmt.Sprintf("Unable to marshal event %s: %v", event.Type, err))
		return
	}
	select {
	case p.send <- data:
	default:
		wsLogger.Warn().Str("user", p.userID).Msg("Outbound queue full, dropping event")
	}
}

func clientIP(c *gin.Context) string {
	forwarded := c.Request.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return c.ClientIP()
}
