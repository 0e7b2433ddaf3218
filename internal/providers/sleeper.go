package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sleepertools/matchup-live/internal/fantasy"
)

const (
	sleeperBaseURL      = "https://api.sleeper.app/v1"
	sleeperStatsBaseURL = "https://api.sleeper.com"

	// Sleeper serves league data with low latency; responses are cached
	// briefly so one poll cycle never hits the same endpoint twice.
	responseCacheTTL = 30 * time.Second

	// The full player directory is ~5MB and changes rarely.
	playersCacheTTL = 15 * time.Minute
)

// SleeperClient implements fantasy.DataProvider against the Sleeper API.
type SleeperClient struct {
	httpClient  *http.Client
	cache       fantasy.CacheStore
	logger      *logrus.Logger
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	baseURL     string
	statsURL    string
}

// NewSleeperClient creates a new Sleeper API client. The cache may be nil,
// in which case every call goes to the network.
func NewSleeperClient(cache fantasy.CacheStore, logger *logrus.Logger) *SleeperClient {
	settings := gobreaker.Settings{
		Name:        "sleeper",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &SleeperClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:       cache,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 20), // Sleeper asks for <1000 req/min
		breaker:     gobreaker.NewCircuitBreaker(settings),
		baseURL:     sleeperBaseURL,
		statsURL:    sleeperStatsBaseURL,
	}
}

// SetBaseURL overrides the API endpoints, for tests.
func (c *SleeperClient) SetBaseURL(base string) {
	c.baseURL = base
	c.statsURL = base
}

func (c *SleeperClient) GetUser(ctx context.Context, username string) (*fantasy.User, error) {
	url := fmt.Sprintf("%s/user/%s", c.baseURL, username)
	var user fantasy.User
	if err := c.fetchCached(ctx, url, "sleeper:user:"+username, responseCacheTTL, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", username, err)
	}
	return &user, nil
}

func (c *SleeperClient) GetSeasonState(ctx context.Context) (*fantasy.SeasonState, error) {
	url := fmt.Sprintf("%s/state/nfl", c.baseURL)
	var state fantasy.SeasonState
	if err := c.fetchCached(ctx, url, "sleeper:state", responseCacheTTL, &state); err != nil {
		return nil, fmt.Errorf("failed to fetch season state: %w", err)
	}
	return &state, nil
}

func (c *SleeperClient) GetLeague(ctx context.Context, leagueID string) (*fantasy.League, error) {
	url := fmt.Sprintf("%s/league/%s", c.baseURL, leagueID)
	var league fantasy.League
	if err := c.fetchCached(ctx, url, "sleeper:league:"+leagueID, responseCacheTTL, &league); err != nil {
		return nil, fmt.Errorf("failed to fetch league %s: %w", leagueID, err)
	}
	return &league, nil
}

func (c *SleeperClient) GetLeagueRosters(ctx context.Context, leagueID string) ([]fantasy.Roster, error) {
	url := fmt.Sprintf("%s/league/%s/rosters", c.baseURL, leagueID)
	var rosters []fantasy.Roster
	if err := c.fetchCached(ctx, url, "sleeper:rosters:"+leagueID, responseCacheTTL, &rosters); err != nil {
		return nil, fmt.Errorf("failed to fetch rosters for league %s: %w", leagueID, err)
	}
	return rosters, nil
}

func (c *SleeperClient) GetLeagueUsers(ctx context.Context, leagueID string) ([]fantasy.LeagueUser, error) {
	url := fmt.Sprintf("%s/league/%s/users", c.baseURL, leagueID)
	var users []fantasy.LeagueUser
	if err := c.fetchCached(ctx, url, "sleeper:users:"+leagueID, responseCacheTTL, &users); err != nil {
		return nil, fmt.Errorf("failed to fetch users for league %s: %w", leagueID, err)
	}
	return users, nil
}

func (c *SleeperClient) GetLeagueMatchups(ctx context.Context, leagueID string, week int) ([]fantasy.Matchup, error) {
	url := fmt.Sprintf("%s/league/%s/matchups/%d", c.baseURL, leagueID, week)
	cacheKey := fmt.Sprintf("sleeper:matchups:%s:%d", leagueID, week)
	var matchups []fantasy.Matchup
	if err := c.fetchCached(ctx, url, cacheKey, responseCacheTTL, &matchups); err != nil {
		return nil, fmt.Errorf("failed to fetch matchups for league %s week %d: %w", leagueID, week, err)
	}
	return matchups, nil
}

func (c *SleeperClient) GetUserLeagues(ctx context.Context, userID, season string) ([]fantasy.League, error) {
	url := fmt.Sprintf("%s/user/%s/leagues/nfl/%s", c.baseURL, userID, season)
	cacheKey := fmt.Sprintf("sleeper:leagues:%s:%s", userID, season)
	var leagues []fantasy.League
	if err := c.fetchCached(ctx, url, cacheKey, responseCacheTTL, &leagues); err != nil {
		return nil, fmt.Errorf("failed to fetch leagues for user %s: %w", userID, err)
	}
	return leagues, nil
}

func (c *SleeperClient) GetAllPlayers(ctx context.Context) (map[string]*fantasy.Player, error) {
	url := fmt.Sprintf("%s/players/nfl", c.baseURL)
	var players map[string]*fantasy.Player
	if err := c.fetchCached(ctx, url, "sleeper:players", playersCacheTTL, &players); err != nil {
		return nil, fmt.Errorf("failed to fetch player directory: %w", err)
	}
	return players, nil
}

// weeklyStatBundle is the shape of the grouped stats/projections endpoints:
// one entry per week, keyed by week number as a string.
type weeklyStatBundle struct {
	Stats fantasy.StatLine `json:"stats"`
}

func (c *SleeperClient) GetPlayerProjection(ctx context.Context, playerID, season string, week int) (fantasy.StatLine, error) {
	url := fmt.Sprintf("%s/projections/nfl/player/%s?season_type=regular&season=%s&grouping=week",
		c.statsURL, playerID, season)
	cacheKey := fmt.Sprintf("sleeper:proj:%s:%s", playerID, season)
	return c.fetchWeekStats(ctx, url, cacheKey, week)
}

func (c *SleeperClient) GetPlayerStats(ctx context.Context, playerID, season string, week int) (fantasy.StatLine, error) {
	url := fmt.Sprintf("%s/stats/nfl/player/%s?season_type=regular&season=%s&grouping=week",
		c.statsURL, playerID, season)
	cacheKey := fmt.Sprintf("sleeper:stats:%s:%s", playerID, season)
	return c.fetchWeekStats(ctx, url, cacheKey, week)
}

// fetchWeekStats pulls a player's grouped weekly bundle and extracts one
// week's stat line. Weeks the player did not play come back as JSON null.
func (c *SleeperClient) fetchWeekStats(ctx context.Context, url, cacheKey string, week int) (fantasy.StatLine, error) {
	var grouped map[string]*weeklyStatBundle
	if err := c.fetchCached(ctx, url, cacheKey, responseCacheTTL, &grouped); err != nil {
		return nil, err
	}

	bundle, ok := grouped[strconv.Itoa(week)]
	if !ok || bundle == nil || bundle.Stats == nil {
		return nil, fmt.Errorf("no data for week %d", week)
	}
	return bundle.Stats, nil
}

// fetchCached serves a GET through the response cache, falling back to the
// network on a miss. Cache write failures are logged and ignored.
func (c *SleeperClient) fetchCached(ctx context.Context, url, cacheKey string, ttl time.Duration, target interface{}) error {
	if c.cache != nil {
		if err := c.cache.Get(ctx, cacheKey, target); err == nil {
			return nil
		}
	}

	if err := c.makeRequest(ctx, url, target); err != nil {
		return err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, target, ttl); err != nil {
			c.logger.Warnf("Failed to cache response for %s: %v", cacheKey, err)
		}
	}
	return nil
}

// makeRequest performs a GET with rate limiting, circuit breaking, and
// exponential backoff.
func (c *SleeperClient) makeRequest(ctx context.Context, url string, target interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doWithRetry(ctx, url)
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(body.([]byte), target)
}

func (c *SleeperClient) doWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			waitTime := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			c.logger.Warnf("Request failed (attempt %d), waiting %v: %v", attempt, waitTime, lastErr)
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			// Client errors other than 429 will not improve on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, lastErr
			}
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return data, nil
	}

	return nil, fmt.Errorf("request failed after retries: %w", lastErr)
}
