package matchup

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sleepertools/matchup-live/internal/fantasy"
	"github.com/sleepertools/matchup-live/internal/gametracker"
	"github.com/sleepertools/matchup-live/internal/simulation"
)

// LiveMatchup is one poll cycle's full output: both rosters' aggregates, the
// cached or freshly simulated win probability, and presentation metadata.
type LiveMatchup struct {
	LeagueName     string                  `json:"league_name"`
	Week           int                     `json:"week"`
	MyTeamName     string                  `json:"my_team_name"`
	OppTeamName    string                  `json:"opp_team_name"`
	MyScore        float64                 `json:"my_score"`
	OppScore       float64                 `json:"opp_score"`
	MyAggregate    fantasy.RosterAggregate `json:"my_aggregate"`
	OppAggregate   fantasy.RosterAggregate `json:"opp_aggregate"`
	WinProbability float64                 `json:"win_probability"`
	Games          []fantasy.Game          `json:"games"`
}

// ComputeLive runs one full computation cycle for a resolved matchup
// context. The two rosters aggregate concurrently, then both feed the win
// probability estimate; the estimator never runs before both sides are in.
func (s *Service) ComputeLive(ctx context.Context, mc *Context) (*LiveMatchup, error) {
	games, err := s.scoreboard.GetGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}

	var wg sync.WaitGroup
	var myAgg, oppAgg fantasy.RosterAggregate

	wg.Add(2)
	go func() {
		defer wg.Done()
		myAgg = s.AggregateRoster(ctx, mc, mc.MyMatchup, games)
	}()
	go func() {
		defer wg.Done()
		oppAgg = s.AggregateRoster(ctx, mc, mc.OpponentMatchup, games)
	}()
	wg.Wait()

	winProb := s.winProbability(ctx, mc, myAgg, oppAgg, games)

	return &LiveMatchup{
		LeagueName:     mc.League.Name,
		Week:           mc.Week,
		MyTeamName:     mc.UserMap[mc.MyRoster.OwnerID],
		OppTeamName:    mc.UserMap[mc.OpponentRoster.OwnerID],
		MyScore:        mc.MyMatchup.Points,
		OppScore:       mc.OpponentMatchup.Points,
		MyAggregate:    myAgg,
		OppAggregate:   oppAgg,
		WinProbability: winProb,
		Games:          games,
	}, nil
}

// winProbability serves the matchup's win probability through the cache
// policy: stable forever while nothing is live, recomputed at most once per
// staleness window while any relevant game is in progress.
func (s *Service) winProbability(ctx context.Context, mc *Context, myAgg, oppAgg fantasy.RosterAggregate, games []fantasy.Game) float64 {
	matchupID := mc.MyMatchup.MatchupID
	anyLive := anyLiveGame(mc, games)

	if entry, ok := s.cache.Get(ctx, matchupID); ok && s.cache.Fresh(entry, anyLive) {
		return entry.Value
	}

	value := s.estimator.Estimate(simulation.MatchupInput{
		MyScore:               mc.MyMatchup.Points,
		MyRemainingProjected:  myAgg.TotalProjected,
		MyProgress:            gametracker.RosterProgress(mc.MyRoster.Starters, mc.AllPlayers, games),
		OppScore:              mc.OpponentMatchup.Points,
		OppRemainingProjected: oppAgg.TotalProjected,
		OppProgress:           gametracker.RosterProgress(mc.OpponentRoster.Starters, mc.AllPlayers, games),
	}, s.simulations, s.volatility)

	s.cache.Put(ctx, matchupID, value)

	s.logger.WithFields(logrus.Fields{
		"matchup_id": matchupID,
		"live":       anyLive,
		"win_prob":   value,
	}).Debug("Recomputed win probability")

	return value
}

// anyLiveGame reports whether any starter on either roster is in a game
// currently in progress.
func anyLiveGame(mc *Context, games []fantasy.Game) bool {
	for _, starters := range [][]string{mc.MyRoster.Starters, mc.OpponentRoster.Starters} {
		for _, playerID := range starters {
			player := mc.AllPlayers[playerID]
			if player == nil {
				continue
			}
			if gametracker.GameStateFor(player, games) == fantasy.GameInProgress {
				return true
			}
		}
	}
	return false
}
