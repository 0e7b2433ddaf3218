package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sleepertools/matchup-live/internal/services"
	"github.com/sleepertools/matchup-live/pkg/utils"
)

// MatchupHandler serves the live matchup surface: the current snapshot,
// poll history, and the scoring feed.
type MatchupHandler struct {
	poller *services.PollerService
	store  *services.StoreService
}

func NewMatchupHandler(poller *services.PollerService, store *services.StoreService) *MatchupHandler {
	return &MatchupHandler{
		poller: poller,
		store:  store,
	}
}

// GetLive returns the most recent live matchup snapshot.
func (h *MatchupHandler) GetLive(c *gin.Context) {
	live := h.poller.Latest()
	if live == nil {
		utils.SendUpstreamError(c, "No matchup data yet, first poll cycle is still running")
		return
	}
	utils.SendSuccess(c, live)
}

// GetWinProbability returns just the win probability from the latest cycle.
func (h *MatchupHandler) GetWinProbability(c *gin.Context) {
	live := h.poller.Latest()
	if live == nil {
		utils.SendUpstreamError(c, "No matchup data yet, first poll cycle is still running")
		return
	}
	utils.SendSuccess(c, gin.H{
		"week":            live.Week,
		"win_probability": live.WinProbability,
		"my_score":        live.MyScore,
		"opp_score":       live.OppScore,
	})
}

// Refresh triggers an immediate poll cycle. If one is already in flight
// the trigger is a no-op.
func (h *MatchupHandler) Refresh(c *gin.Context) {
	go h.poller.Poll()
	c.JSON(202, gin.H{"status": "refresh scheduled"})
}

// GetHistory returns recent snapshots for charting score progression.
func (h *MatchupHandler) GetHistory(c *gin.Context) {
	if h.store == nil {
		utils.SendNotFound(c, "History is disabled")
		return
	}

	username := c.Param("username")
	leagueID := c.Query("league_id")
	limit := parseLimit(c.Query("limit"), 50)

	snapshots, err := h.store.RecentSnapshots(username, leagueID, limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to load history")
		return
	}
	utils.SendSuccess(c, snapshots)
}

// GetScoringEvents returns the recent scoring feed.
func (h *MatchupHandler) GetScoringEvents(c *gin.Context) {
	if h.store == nil {
		utils.SendNotFound(c, "Scoring feed history is disabled")
		return
	}

	username := c.Param("username")
	leagueID := c.Query("league_id")
	limit := parseLimit(c.Query("limit"), 50)

	events, err := h.store.RecentScoringEvents(username, leagueID, limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to load scoring events")
		return
	}
	utils.SendSuccess(c, events)
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return fallback
	}
	return limit
}
