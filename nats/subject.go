package nats

import "fmt"

// Subjects used on the broadcast bus. Every connected participant
// subscribes to the game subject; player subjects carry the private
// events (bet acks, balance updates, settlement notices).

func GetGame2AllPlayersSubject(gameCode string) string {
	return fmt.Sprintf("game.%s.player.all", gameCode)
}

func GetGame2PlayerSubject(gameCode string, sessionID string) string {
	return fmt.Sprintf("game.%s.player.%s", gameCode, sessionID)
}
