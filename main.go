package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"primeplay.com/abgame/cache"
	"primeplay.com/abgame/game"
	"primeplay.com/abgame/nats"
	"primeplay.com/abgame/rest"
	"primeplay.com/abgame/store"
	"primeplay.com/abgame/util"
	"primeplay.com/abgame/wallet"
	"primeplay.com/abgame/ws"
)

var mainLogger = log.With().Str("logger_name", "main::main").Logger()

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if err := godotenv.Load(); err != nil {
		mainLogger.Info().Msg("No .env file found, using process environment")
	}

	lobbyConfig, err := game.LoadLobbyConfig(util.Env.GetConfigFile())
	if err != nil {
		mainLogger.Fatal().Msg(fmt.Sprintf("Unable to load lobby config: %v", err))
	}
	lobbyConfig.GameCode = util.Env.GetGameCode()

	st, err := store.NewGormStore(util.Env.GetPostgresConnStr(), 10)
	if err != nil {
		mainLogger.Fatal().Msg(fmt.Sprintf("Unable to initialize store: %v", err))
	}

	redisAddr := fmt.Sprintf("%s:%d", util.Env.GetRedisHost(), util.Env.GetRedisPort())
	cacheClient, err := cache.NewRedisCache(redisAddr, util.Env.GetRedisPW(), util.Env.GetRedisDB())
	if err != nil {
		mainLogger.Fatal().Msg(fmt.Sprintf("Unable to initialize cache: %v", err))
	}

	nc, err := nats.Connect(util.Env.GetNatsURL())
	if err != nil {
		mainLogger.Fatal().Msg(fmt.Sprintf("Unable to connect to NATS: %v", err))
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	settings := game.NewSettingsHolder(game.DefaultSettings())
	if _, err := settings.Reload(startupCtx, st); err != nil {
		mainLogger.Error().Msg(fmt.Sprintf("Unable to load active settings, staying on defaults: %v", err))
	}

	walletClient := wallet.NewClient(
		util.Env.GetAccountsURL(),
		util.Env.GetGameName(),
		nc,
		time.Duration(util.Env.GetWalletTimeoutSec())*time.Second,
	)

	broadcaster := nats.NewBroadcaster(nc, lobbyConfig.GameCode)
	locks := game.NewRoundLocks()
	settler := game.NewSettler(settings, cacheClient, st, walletClient, broadcaster, locks)
	lobby := game.NewLobby(lobbyConfig, game.NewRealClock(), broadcaster, cacheClient, st, settler)
	engine := game.NewBetEngine(lobby, settings, cacheClient, st, walletClient, locks)

	go lobby.Run()

	router := gin.Default()
	wsServer := ws.NewServer(lobby, engine, cacheClient, st, walletClient, nc, lobbyConfig.GameCode)
	router.GET("/ws", wsServer.HandleConnection)
	rest.NewServer(util.Env.GetGameName(), lobby, settings, st).Register(router)

	addr := fmt.Sprintf(":%d", util.Env.GetPort())
	mainLogger.Info().Msg(fmt.Sprintf("%s game backend running on %s", util.Env.GetGameName(), addr))
	if err := router.Run(addr); err != nil {
		mainLogger.Fatal().Msg(fmt.Sprintf("HTTP server returned: %v", err))
	}
}
