package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

var environmentLogger = log.With().Str("logger_name", "util::env").Logger()

type gameEnvironment struct {
	RedisHost     string
	RedisPort     string
	RedisPW       string
	RedisDB       string
	PostgresHost  string
	PostgresPort  string
	PostgresDB    string
	PostgresUser  string
	PostgresPW    string
	PostgresSSL   string
	NatsURL       string
	AccountsURL   string
	GameName      string
	GameCode      string
	Port          string
	ConfigFile    string
	WalletTimeout string
}

// Env is a helper object for accessing environment variables.
var Env = &gameEnvironment{
	RedisHost:     "REDIS_HOST",
	RedisPort:     "REDIS_PORT",
	RedisPW:       "REDIS_PW",
	RedisDB:       "REDIS_DB",
	PostgresHost:  "POSTGRES_HOST",
	PostgresPort:  "POSTGRES_PORT",
	PostgresDB:    "POSTGRES_DB",
	PostgresUser:  "POSTGRES_USER",
	PostgresPW:    "POSTGRES_PASSWORD",
	PostgresSSL:   "POSTGRES_SSLMODE",
	NatsURL:       "NATS_URL",
	AccountsURL:   "ACCOUNTS_API_URL",
	GameName:      "GAME_NAME",
	GameCode:      "GAME_CODE",
	Port:          "PORT",
	ConfigFile:    "GAME_CONFIG_FILE",
	WalletTimeout: "WALLET_TIMEOUT_SEC",
}

func (g *gameEnvironment) getString(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (g *gameEnvironment) getInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid value %s for %s", valStr, key)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return val
}

func (g *gameEnvironment) GetRedisHost() string {
	return g.getString(g.RedisHost, "localhost")
}

func (g *gameEnvironment) GetRedisPort() int {
	return g.getInt(g.RedisPort, 6379)
}

func (g *gameEnvironment) GetRedisPW() string {
	return os.Getenv(g.RedisPW)
}

func (g *gameEnvironment) GetRedisDB() int {
	return g.getInt(g.RedisDB, 0)
}

func (g *gameEnvironment) GetPostgresConnStr() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		g.getString(g.PostgresHost, "localhost"),
		g.getInt(g.PostgresPort, 5432),
		g.getString(g.PostgresUser, "game"),
		os.Getenv(g.PostgresPW),
		g.getString(g.PostgresDB, "abgame"),
		g.getString(g.PostgresSSL, "disable"),
	)
}

func (g *gameEnvironment) GetNatsURL() string {
	return g.getString(g.NatsURL, "nats://localhost:4222")
}

// GetAccountsURL is the base URL of the upstream accounts/wallet
// service. There is no sane default; the process cannot run without it.
func (g *gameEnvironment) GetAccountsURL() string {
	url := os.Getenv(g.AccountsURL)
	if url == "" {
		msg := fmt.Sprintf("%s is not defined", g.AccountsURL)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return url
}

func (g *gameEnvironment) GetGameName() string {
	return g.getString(g.GameName, "AB Game")
}

func (g *gameEnvironment) GetGameCode() string {
	return g.getString(g.GameCode, "abgame")
}

func (g *gameEnvironment) GetPort() int {
	return g.getInt(g.Port, 3300)
}

func (g *gameEnvironment) GetConfigFile() string {
	return os.Getenv(g.ConfigFile)
}

func (g *gameEnvironment) GetWalletTimeoutSec() int {
	return g.getInt(g.WalletTimeout, 5)
}
