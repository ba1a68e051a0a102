// Package nats fans game events out to the connected participants.
// The lobby and the settler publish through the Broadcaster; each
// websocket connection holds subscriptions for the broadcast subject
// and its own player subject.
package nats

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"primeplay.com/abgame/game"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var natsLogger = log.With().Str("logger_name", "nats::broadcast").Logger()

// Connect dials the NATS server.
func Connect(url string) (*natsgo.Conn, error) {
	nc, err := natsgo.Connect(url)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("Unable to connect to NATS at %s", url))
	}
	natsLogger.Info().Msg(fmt.Sprintf("Connected to NATS at %s", url))
	return nc, nil
}

// Broadcaster implements game.MessageReceiver on top of NATS.
type Broadcaster struct {
	nc       *natsgo.Conn
	gameCode string
}

func NewBroadcaster(nc *natsgo.Conn, gameCode string) *Broadcaster {
	return &Broadcaster{nc: nc, gameCode: gameCode}
}

func (b *Broadcaster) BroadcastGameMessage(event *game.Event) {
	b.publish(GetGame2AllPlayersSubject(b.gameCode), event)
}

func (b *Broadcaster) SendMessageToPlayer(sessionID string, event *game.Event) {
	if sessionID == "" {
		return
	}
	b.publish(GetGame2PlayerSubject(b.gameCode, sessionID), event)
}

func (b *Broadcaster) publish(subject string, event *game.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		natsLogger.Error().Msg(fmt.Sprintf("Unable to marshal event %s: %v", event.Type, err))
		return
	}
	if err := b.nc.Publish(subject, data); err != nil {
		natsLogger.Error().Msg(fmt.Sprintf("Unable to publish to %s: %v", subject, err))
	}
}
