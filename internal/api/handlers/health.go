package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sleepertools/matchup-live/internal/services"
	"github.com/sleepertools/matchup-live/internal/websocket"
)

type HealthHandler struct {
	poller *services.PollerService
	hub    *websocket.MatchupHub
}

func NewHealthHandler(poller *services.PollerService, hub *websocket.MatchupHub) *HealthHandler {
	return &HealthHandler{
		poller: poller,
		hub:    hub,
	}
}

// GetHealth returns basic health status - always returns 200 if server is
// running. Used for liveness probes.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "matchup-live",
	})
}

// GetReady returns readiness status - 200 only once the first poll cycle
// has produced a snapshot.
func (h *HealthHandler) GetReady(c *gin.Context) {
	if h.poller.Latest() != nil {
		c.JSON(http.StatusOK, gin.H{
			"status":            "ready",
			"connected_clients": h.hub.GetConnectionCount(),
		})
		return
	}

	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status": "not_ready",
	})
}
