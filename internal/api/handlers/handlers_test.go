package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleepertools/matchup-live/internal/fantasy"
	"github.com/sleepertools/matchup-live/internal/services"
	"github.com/sleepertools/matchup-live/pkg/utils"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testContext(username string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if username != "" {
		c.Params = gin.Params{{Key: "username", Value: username}}
	}
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetPreferencesWithoutStore(t *testing.T) {
	handler := NewPreferencesHandler(nil, nil)
	c, w := testContext("stittsville")

	assert.NotPanics(t, func() { handler.GetPreferences(c) })

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, utils.ErrCodeNotFound, resp.Error.Code)
}

func TestUpdatePreferencesWithoutStore(t *testing.T) {
	handler := NewPreferencesHandler(nil, nil)
	c, w := testContext("stittsville")
	c.Request = httptest.NewRequest(http.MethodPut, "/", nil)

	assert.NotPanics(t, func() { handler.UpdatePreferences(c) })
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLiveBeforeFirstCycle(t *testing.T) {
	poller := services.NewPollerService(nil, nil, nil, nil, nil, nil, testLogger(), "u1", "L1", time.Minute)
	handler := NewMatchupHandler(poller, nil)
	c, w := testContext("")

	handler.GetLive(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, utils.ErrCodeUpstream, resp.Error.Code)
}

// stubDirectory serves canned Sleeper lookups for the league picker.
type stubDirectory struct {
	user    *fantasy.User
	state   *fantasy.SeasonState
	leagues []fantasy.League
	err     error
}

func (d *stubDirectory) GetUser(ctx context.Context, username string) (*fantasy.User, error) {
	return d.user, d.err
}

func (d *stubDirectory) GetSeasonState(ctx context.Context) (*fantasy.SeasonState, error) {
	return d.state, d.err
}

func (d *stubDirectory) GetUserLeagues(ctx context.Context, userID, season string) ([]fantasy.League, error) {
	return d.leagues, d.err
}

func TestGetLeagues(t *testing.T) {
	directory := &stubDirectory{
		user:  &fantasy.User{UserID: "u1", Username: "stittsville"},
		state: &fantasy.SeasonState{Season: "2025", Week: 3},
		leagues: []fantasy.League{
			{LeagueID: "L1", Name: "Dynasty", Season: "2025"},
			{LeagueID: "L2", Name: "Redraft", Season: "2025"},
		},
	}
	handler := NewLeaguesHandler(directory)
	c, w := testContext("stittsville")

	handler.GetLeagues(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2025", data["season"])
	assert.Len(t, data["leagues"], 2)
}

func TestGetLeaguesUpstreamFailure(t *testing.T) {
	handler := NewLeaguesHandler(&stubDirectory{err: errors.New("sleeper down")})
	c, w := testContext("stittsville")

	handler.GetLeagues(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, utils.ErrCodeUpstream, resp.Error.Code)
}

func TestGetLeaguesRequiresUsername(t *testing.T) {
	handler := NewLeaguesHandler(&stubDirectory{})
	c, w := testContext("")

	handler.GetLeagues(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
