package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sleepertools/matchup-live/internal/fantasy"
)

const espnScoreboardURL = "http://site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard"

// ESPNScoreboard implements fantasy.GameStatusProvider against the public
// ESPN scoreboard endpoint.
type ESPNScoreboard struct {
	httpClient *http.Client
	cache      fantasy.CacheStore
	logger     *logrus.Logger
	url        string
}

// NewESPNScoreboard creates a scoreboard client. The cache may be nil.
func NewESPNScoreboard(cache fantasy.CacheStore, logger *logrus.Logger) *ESPNScoreboard {
	return &ESPNScoreboard{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:  cache,
		logger: logger,
		url:    espnScoreboardURL,
	}
}

// SetURL overrides the scoreboard endpoint, for tests.
func (c *ESPNScoreboard) SetURL(url string) {
	c.url = url
}

type espnScoreboardResponse struct {
	Events []struct {
		ID        string `json:"id"`
		ShortName string `json:"shortName"`
		Status    struct {
			Type struct {
				State string `json:"state"`
			} `json:"type"`
		} `json:"status"`
		Competitions []struct {
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Team     struct {
					Abbreviation string `json:"abbreviation"`
				} `json:"team"`
			} `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

// GetGames fetches the current week's slate with each game's progress state.
func (c *ESPNScoreboard) GetGames(ctx context.Context) ([]fantasy.Game, error) {
	const cacheKey = "espn:scoreboard"

	if c.cache != nil {
		var cached []fantasy.Game
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("scoreboard returned status %d", resp.StatusCode)
	}

	var scoreboard espnScoreboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&scoreboard); err != nil {
		return nil, fmt.Errorf("failed to decode scoreboard: %w", err)
	}

	games := make([]fantasy.Game, 0, len(scoreboard.Events))
	for _, event := range scoreboard.Events {
		game := fantasy.Game{
			ID:        event.ID,
			ShortName: event.ShortName,
			State:     gameState(event.Status.Type.State),
		}
		if len(event.Competitions) > 0 {
			for _, competitor := range event.Competitions[0].Competitors {
				game.Teams = append(game.Teams, competitor.Team.Abbreviation)
			}
		}
		games = append(games, game)
	}

	if c.cache != nil && len(games) > 0 {
		if err := c.cache.Set(ctx, cacheKey, games, responseCacheTTL); err != nil {
			c.logger.Warnf("Failed to cache scoreboard: %v", err)
		}
	}

	return games, nil
}

// gameState maps ESPN's status state to ours. Unknown states count as not
// started so completion weighting stays conservative.
func gameState(state string) fantasy.GameState {
	switch state {
	case "in":
		return fantasy.GameInProgress
	case "post":
		return fantasy.GameFinal
	default:
		return fantasy.GameNotStarted
	}
}
