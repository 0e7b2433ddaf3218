package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sleepertools/matchup-live/internal/api/handlers"
	"github.com/sleepertools/matchup-live/internal/services"
	"github.com/sleepertools/matchup-live/internal/websocket"
)

// SetupRoutes configures all API routes on the given router group.
func SetupRoutes(
	group *gin.RouterGroup,
	poller *services.PollerService,
	store *services.StoreService,
	cache *services.CacheService,
	hub *websocket.MatchupHub,
	leagues handlers.LeagueDirectory,
) {
	matchupHandler := handlers.NewMatchupHandler(poller, store)
	preferencesHandler := handlers.NewPreferencesHandler(store, cache)
	leaguesHandler := handlers.NewLeaguesHandler(leagues)
	healthHandler := handlers.NewHealthHandler(poller, hub)

	// Matchup endpoints
	group.GET("/matchup/live", matchupHandler.GetLive)
	group.GET("/matchup/winprob", matchupHandler.GetWinProbability)
	group.POST("/matchup/refresh", matchupHandler.Refresh)
	group.GET("/matchup/:username/history", matchupHandler.GetHistory)
	group.GET("/matchup/:username/events", matchupHandler.GetScoringEvents)

	// League selection
	group.GET("/leagues/:username", leaguesHandler.GetLeagues)

	// Preferences endpoints
	group.GET("/preferences/:username", preferencesHandler.GetPreferences)
	group.PUT("/preferences/:username", preferencesHandler.UpdatePreferences)

	// Health endpoints
	group.GET("/health", healthHandler.GetHealth)
	group.GET("/ready", healthHandler.GetReady)

	// WebSocket endpoint at root level is wired in main.go
}
