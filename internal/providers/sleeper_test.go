package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memStore is a minimal in-memory fantasy.CacheStore for provider tests.
type memStore struct {
	data map[string][]byte
	sets int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return assert.AnError
	}
	return json.Unmarshal(raw, dest)
}

func (m *memStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.sets++
	return nil
}

func newTestSleeperClient(handler http.Handler, store *memStore) (*SleeperClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewSleeperClient(nil, testLogger())
	if store != nil {
		client.cache = store
	}
	client.SetBaseURL(server.URL)
	return client, server
}

func TestSleeperGetUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/testuser", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user_id":"123","username":"testuser"}`))
	})

	client, server := newTestSleeperClient(mux, nil)
	defer server.Close()

	user, err := client.GetUser(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, "123", user.UserID)
	assert.Equal(t, "testuser", user.Username)
}

func TestSleeperGetSeasonState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/state/nfl", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"season":"2025","week":3,"season_type":"regular"}`))
	})

	client, server := newTestSleeperClient(mux, nil)
	defer server.Close()

	state, err := client.GetSeasonState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025", state.Season)
	assert.Equal(t, 3, state.Week)
}

func TestSleeperGetLeagueMatchups(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/league/L1/matchups/3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"roster_id":1,"matchup_id":5,"points":44.5,"starters":["p1"],"players_points":{"p1":44.5}},
			{"roster_id":2,"matchup_id":5,"points":39.0,"starters":["p2"],"players_points":{"p2":39.0}}
		]`))
	})

	client, server := newTestSleeperClient(mux, nil)
	defer server.Close()

	matchups, err := client.GetLeagueMatchups(context.Background(), "L1", 3)
	require.NoError(t, err)
	require.Len(t, matchups, 2)
	assert.Equal(t, 5, matchups[0].MatchupID)
	assert.InDelta(t, 44.5, matchups[0].PlayerPoints["p1"], 1e-9)
}

func TestSleeperResponseCache(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/league/L1", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"league_id":"L1","name":"Cached League"}`))
	})

	store := newMemStore()
	client, server := newTestSleeperClient(mux, store)
	defer server.Close()

	ctx := context.Background()
	_, err := client.GetLeague(ctx, "L1")
	require.NoError(t, err)

	league, err := client.GetLeague(ctx, "L1")
	require.NoError(t, err)

	assert.Equal(t, "Cached League", league.Name)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, store.sets)
}

func TestSleeperWeeklyStatsExtraction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats/nfl/player/p1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "regular", r.URL.Query().Get("season_type"))
		assert.Equal(t, "week", r.URL.Query().Get("grouping"))
		w.Write([]byte(`{
			"1": {"stats": {"rec": 4, "rec_yd": 52, "pts_ppr": 9.2}},
			"2": null,
			"3": {"stats": {"rec": 6, "rec_yd": 81, "rec_td": 1, "pts_ppr": 20.1}}
		}`))
	})

	client, server := newTestSleeperClient(mux, nil)
	defer server.Close()

	ctx := context.Background()

	line, err := client.GetPlayerStats(ctx, "p1", "2025", 3)
	require.NoError(t, err)
	assert.InDelta(t, 20.1, line["pts_ppr"], 1e-9)
	assert.InDelta(t, 6, line["rec"], 1e-9)

	// A bye or inactive week has no stats bundle.
	_, err = client.GetPlayerStats(ctx, "p1", "2025", 2)
	assert.Error(t, err)

	_, err = client.GetPlayerStats(ctx, "p1", "2025", 7)
	assert.Error(t, err)
}

func TestSleeperNotFoundNoRetry(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/user/ghost", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	})

	client, server := newTestSleeperClient(mux, nil)
	defer server.Close()

	_, err := client.GetUser(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, 1, hits)
}

func TestScoreboardStateMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events":[
			{"id":"g1","shortName":"SEA @ ARI","status":{"type":{"state":"post"}},
			 "competitions":[{"competitors":[{"homeAway":"home","team":{"abbreviation":"ARI"}},{"homeAway":"away","team":{"abbreviation":"SEA"}}]}]},
			{"id":"g2","shortName":"DET @ GB","status":{"type":{"state":"in"}},
			 "competitions":[{"competitors":[{"homeAway":"home","team":{"abbreviation":"GB"}},{"homeAway":"away","team":{"abbreviation":"DET"}}]}]},
			{"id":"g3","shortName":"KC @ BUF","status":{"type":{"state":""}},
			 "competitions":[]}
		]}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewESPNScoreboard(nil, testLogger())
	client.SetURL(server.URL)

	games, err := client.GetGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 3)

	assert.Equal(t, "SEA @ ARI", games[0].ShortName)
	assert.Equal(t, "post", string(games[0].State))
	assert.ElementsMatch(t, []string{"ARI", "SEA"}, games[0].Teams)
	assert.Equal(t, "in", string(games[1].State))
	// Unknown states downgrade to not started.
	assert.Equal(t, "pre", string(games[2].State))
	assert.Empty(t, games[2].Teams)
}

func TestScoreboardCaching(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"events":[{"id":"g1","shortName":"SEA @ ARI","status":{"type":{"state":"in"}},"competitions":[]}]}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewESPNScoreboard(newMemStore(), testLogger())
	client.SetURL(server.URL)

	ctx := context.Background()
	_, err := client.GetGames(ctx)
	require.NoError(t, err)
	_, err = client.GetGames(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
}
