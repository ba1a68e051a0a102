// Package rest serves the HTTP query surface: health, settings
// reload and the historical reporting endpoints backed by the store.
package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"primeplay.com/abgame/game"
	"primeplay.com/abgame/store"
)

var restLogger = log.With().Str("logger_name", "rest::rest").Logger()

type Server struct {
	gameName string
	lobby    *game.Lobby
	settings *game.SettingsHolder
	store    store.Store
}

func NewServer(gameName string, lobby *game.Lobby, settings *game.SettingsHolder, st store.Store) *Server {
	return &Server{
		gameName: gameName,
		lobby:    lobby,
		settings: settings,
		store:    st,
	}
}

// Register mounts the routes on the shared gin router.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/", s.health)

	api := r.Group("/api/v1")
	api.GET("/load-config", s.loadConfig)
	api.GET("/game-state", s.gameState)
	api.GET("/bet-history", s.betHistory)
	api.GET("/match-history", s.matchHistory)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("%s game backend says HI", s.gameName),
		"statusCode": http.StatusOK,
	})
}

// loadConfig re-reads the active settings row and swaps it in.
func (s *Server) loadConfig(c *gin.Context) {
	settings, err := s.settings.Reload(c.Request.Context(), s.store)
	if err != nil {
		restLogger.Error().Msg(fmt.Sprintf("Settings reload failed: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"statusCode": http.StatusInternalServerError, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"settings":   settings,
		"message":    "settings loaded successfully",
	})
}

func (s *Server) gameState(c *gin.Context) {
	c.JSON(http.StatusOK, s.lobby.GameState())
}

func (s *Server) betHistory(c *gin.Context) {
	userID := c.Query("user_id")
	operatorID := c.Query("operator_id")
	if userID == "" || operatorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"statusCode": http.StatusBadRequest, "error": "user_id and operator_id are required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	records, err := s.store.SettlementHistory(c.Request.Context(), userID, operatorID, limit)
	if err != nil {
		restLogger.Error().Msg(fmt.Sprintf("Bet history query failed: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"statusCode": http.StatusInternalServerError, "error": "unable to fetch bets history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"history":    records,
		"message":    "bets history fetched successfully",
	})
}

func (s *Server) matchHistory(c *gin.Context) {
	userID := c.Query("user_id")
	operatorID := c.Query("operator_id")
	roundID := c.Query("lobby_id")
	if userID == "" || operatorID == "" || roundID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": false, "error": "user_id, lobby_id and operator_id are required"})
		return
	}

	record, err := s.store.SettlementByRound(c.Request.Context(), userID, operatorID, roundID)
	if err != nil {
		restLogger.Error().Msg(fmt.Sprintf("Match history query failed: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": false, "error": "unable to fetch match history"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": false, "error": "no settlement found for round"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true, "data": record})
}
