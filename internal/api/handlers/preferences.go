package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sleepertools/matchup-live/internal/models"
	"github.com/sleepertools/matchup-live/internal/services"
	"github.com/sleepertools/matchup-live/pkg/utils"
)

const preferencesCacheTTL = 5 * time.Minute

type PreferencesHandler struct {
	store *services.StoreService
	cache *services.CacheService
}

func NewPreferencesHandler(store *services.StoreService, cache *services.CacheService) *PreferencesHandler {
	return &PreferencesHandler{
		store: store,
		cache: cache,
	}
}

// GetPreferences returns the tracker preferences for a user.
// GET /api/v1/preferences/:username
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	if h.store == nil {
		utils.SendNotFound(c, "Preferences are disabled")
		return
	}

	username := c.Param("username")
	if username == "" {
		utils.SendValidationError(c, "Username is required", "")
		return
	}

	cacheKey := services.PreferencesCacheKey(username)
	if h.cache != nil {
		var cached models.TrackerPreferences
		if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
			utils.SendSuccess(c, cached)
			return
		}
	}

	prefs, err := h.store.GetPreferences(username)
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve preferences")
		return
	}

	if h.cache != nil {
		h.cache.Set(context.Background(), cacheKey, prefs, preferencesCacheTTL)
	}

	utils.SendSuccess(c, prefs)
}

// UpdatePreferences upserts the tracker preferences for a user.
// PUT /api/v1/preferences/:username
func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	if h.store == nil {
		utils.SendNotFound(c, "Preferences are disabled")
		return
	}

	username := c.Param("username")
	if username == "" {
		utils.SendValidationError(c, "Username is required", "")
		return
	}

	var prefs models.TrackerPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		utils.SendValidationError(c, "Invalid preferences payload", err.Error())
		return
	}
	prefs.Username = username

	if prefs.PollIntervalSeconds < 10 {
		utils.SendValidationError(c, "Poll interval must be at least 10 seconds", "")
		return
	}

	if err := h.store.SavePreferences(&prefs); err != nil {
		utils.SendInternalError(c, "Failed to save preferences")
		return
	}

	if h.cache != nil {
		h.cache.Delete(context.Background(), services.PreferencesCacheKey(username))
	}

	utils.SendSuccess(c, prefs)
}
