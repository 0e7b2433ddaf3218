package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/sleepertools/matchup-live/internal/fantasy"
	"github.com/sleepertools/matchup-live/pkg/utils"
)

// LeagueDirectory is the slice of the Sleeper client the league picker
// needs: resolve a username, find the current season, list leagues.
type LeagueDirectory interface {
	GetUser(ctx context.Context, username string) (*fantasy.User, error)
	GetSeasonState(ctx context.Context) (*fantasy.SeasonState, error)
	GetUserLeagues(ctx context.Context, userID, season string) ([]fantasy.League, error)
}

// LeaguesHandler lets a client browse a user's leagues before choosing
// which matchup to track.
type LeaguesHandler struct {
	directory LeagueDirectory
}

func NewLeaguesHandler(directory LeagueDirectory) *LeaguesHandler {
	return &LeaguesHandler{directory: directory}
}

// GetLeagues lists the user's leagues for the current season.
// GET /api/v1/leagues/:username
func (h *LeaguesHandler) GetLeagues(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		utils.SendValidationError(c, "Username is required", "")
		return
	}

	ctx := c.Request.Context()

	user, err := h.directory.GetUser(ctx, username)
	if err != nil {
		utils.SendUpstreamError(c, "Failed to look up user")
		return
	}
	if user == nil {
		utils.SendNotFound(c, "User not found")
		return
	}

	state, err := h.directory.GetSeasonState(ctx)
	if err != nil {
		utils.SendUpstreamError(c, "Failed to fetch season state")
		return
	}

	leagues, err := h.directory.GetUserLeagues(ctx, user.UserID, state.Season)
	if err != nil {
		utils.SendUpstreamError(c, "Failed to fetch leagues")
		return
	}

	utils.SendSuccess(c, gin.H{
		"username": username,
		"season":   state.Season,
		"leagues":  leagues,
	})
}
