package matchup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sleepertools/matchup-live/internal/fantasy"
	"github.com/sleepertools/matchup-live/internal/simulation"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// stubProvider serves canned league data.
type stubProvider struct {
	user        *fantasy.User
	state       *fantasy.SeasonState
	league      *fantasy.League
	rosters     []fantasy.Roster
	users       []fantasy.LeagueUser
	matchups    []fantasy.Matchup
	players     map[string]*fantasy.Player
	projections map[string]fantasy.StatLine
	stats       map[string]fantasy.StatLine
	err         error
}

func (p *stubProvider) GetUser(ctx context.Context, username string) (*fantasy.User, error) {
	return p.user, p.err
}

func (p *stubProvider) GetSeasonState(ctx context.Context) (*fantasy.SeasonState, error) {
	return p.state, p.err
}

func (p *stubProvider) GetLeague(ctx context.Context, leagueID string) (*fantasy.League, error) {
	return p.league, p.err
}

func (p *stubProvider) GetLeagueRosters(ctx context.Context, leagueID string) ([]fantasy.Roster, error) {
	return p.rosters, p.err
}

func (p *stubProvider) GetLeagueUsers(ctx context.Context, leagueID string) ([]fantasy.LeagueUser, error) {
	return p.users, p.err
}

func (p *stubProvider) GetLeagueMatchups(ctx context.Context, leagueID string, week int) ([]fantasy.Matchup, error) {
	return p.matchups, p.err
}

func (p *stubProvider) GetAllPlayers(ctx context.Context) (map[string]*fantasy.Player, error) {
	return p.players, p.err
}

func (p *stubProvider) GetPlayerProjection(ctx context.Context, playerID, season string, week int) (fantasy.StatLine, error) {
	if line, ok := p.projections[playerID]; ok {
		return line, nil
	}
	return nil, errors.New("no projection")
}

func (p *stubProvider) GetPlayerStats(ctx context.Context, playerID, season string, week int) (fantasy.StatLine, error) {
	if line, ok := p.stats[playerID]; ok {
		return line, nil
	}
	return nil, errors.New("no stats")
}

// stubScoreboard serves a fixed game slate.
type stubScoreboard struct {
	games []fantasy.Game
	err   error
}

func (s *stubScoreboard) GetGames(ctx context.Context) ([]fantasy.Game, error) {
	return s.games, s.err
}

// fakeStore is an in-memory fantasy.CacheStore with injectable failures.
type fakeStore struct {
	data    map[string][]byte
	sets    int
	failAll bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Get(ctx context.Context, key string, dest interface{}) error {
	if f.failAll {
		return errors.New("store unavailable")
	}
	raw, ok := f.data[key]
	if !ok {
		return errors.New("key not found")
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if f.failAll {
		return errors.New("store unavailable")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	f.sets++
	return nil
}

func newTestService(provider *stubProvider, scoreboard *stubScoreboard, store fantasy.CacheStore) *Service {
	logger := testLogger()
	return NewService(
		provider,
		scoreboard,
		simulation.NewEstimator(simulation.NewNormalSource(1)),
		NewProbabilityCache(store, logger),
		logger,
		Options{Simulations: 500, Volatility: 2},
	)
}
