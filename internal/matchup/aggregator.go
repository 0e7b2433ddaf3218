package matchup

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sleepertools/matchup-live/internal/fantasy"
	"github.com/sleepertools/matchup-live/internal/gametracker"
	"github.com/sleepertools/matchup-live/internal/scoring"
)

// maxStatFetches bounds concurrent per-player projection/stat lookups.
const maxStatFetches = 5

// Aggregate walks a matchup's starters in roster order and produces the
// completion-weighted actual/projected totals plus one PlayerContribution
// per starter. It is pure and idempotent: missing player records and absent
// stat bundles contribute zero rather than failing the roster.
func Aggregate(
	m *fantasy.Matchup,
	league *fantasy.League,
	allPlayers map[string]*fantasy.Player,
	games []fantasy.Game,
	projections map[string]fantasy.StatLine,
	stats map[string]fantasy.StatLine,
) fantasy.RosterAggregate {
	agg := fantasy.RosterAggregate{
		Players: make([]fantasy.PlayerContribution, 0, len(m.Starters)),
	}

	for i, playerID := range m.Starters {
		player := allPlayers[playerID]

		actualPoints := m.PlayerPoints[playerID]

		var projectedPoints float64
		if proj := projections[playerID]; proj != nil {
			projectedPoints = scoring.Points(proj, league.ScoringSettings, player)
		}

		state := gametracker.GameStateFor(player, games)
		actualWeight, projectedWeight := gametracker.CompletionWeight(state)
		if player == nil {
			// No directory record means no resolvable game either way;
			// the player is listed but contributes nothing.
			actualWeight, projectedWeight = 0, 0
		}

		agg.TotalActual += actualPoints * actualWeight
		agg.TotalProjected += projectedPoints * projectedWeight

		slot := "FLEX"
		if i < len(league.RosterPositions) {
			slot = league.RosterPositions[i]
		}

		agg.Players = append(agg.Players, fantasy.PlayerContribution{
			PlayerID:        playerID,
			Player:          player,
			ActualPoints:    actualPoints,
			ProjectedPoints: projectedPoints,
			Slot:            slot,
			GameState:       state,
			Stats:           stats[playerID],
		})
	}

	agg.TotalCombined = agg.TotalActual + agg.TotalProjected
	return agg
}

// AggregateRoster fetches projections and accrued stats for a matchup's
// starters and aggregates them against the live scoreboard.
func (s *Service) AggregateRoster(ctx context.Context, mc *Context, m *fantasy.Matchup, games []fantasy.Game) fantasy.RosterAggregate {
	projections := s.fetchStatLines(ctx, mc, m.Starters, s.provider.GetPlayerProjection)
	stats := s.fetchStatLines(ctx, mc, m.Starters, s.provider.GetPlayerStats)

	return Aggregate(m, mc.League, mc.AllPlayers, games, projections, stats)
}

// fetchStatLines pulls one stat bundle per starter with bounded fan-out.
// Individual failures are logged and treated as "no data" so a single bad
// payload cannot fail the aggregation.
func (s *Service) fetchStatLines(
	ctx context.Context,
	mc *Context,
	playerIDs []string,
	fetch func(ctx context.Context, playerID, season string, week int) (fantasy.StatLine, error),
) map[string]fantasy.StatLine {
	var mu sync.Mutex
	lines := make(map[string]fantasy.StatLine, len(playerIDs))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxStatFetches)

	for _, playerID := range playerIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			line, err := fetch(ctx, id, mc.Season, mc.Week)
			if err != nil {
				s.logger.WithFields(logrus.Fields{
					"player_id": id,
					"season":    mc.Season,
					"week":      mc.Week,
				}).Warnf("Failed to fetch stat line: %v", err)
				return
			}

			mu.Lock()
			lines[id] = line
			mu.Unlock()
		}(playerID)
	}

	wg.Wait()
	return lines
}
