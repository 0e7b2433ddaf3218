package gametracker

import (
	"strings"

	"github.com/sleepertools/matchup-live/internal/fantasy"
)

// teamAliases normalizes abbreviation mismatches between the Sleeper player
// directory and the ESPN scoreboard. Sleeper says WAS, ESPN says WSH, and so
// on for the handful of franchises the two providers disagree on.
var teamAliases = map[string]string{
	"WAS": "WSH",
	"JAC": "JAX",
}

// NormalizeTeam maps a roster-provider team abbreviation to the scoreboard
// provider's form.
func NormalizeTeam(team string) string {
	team = strings.ToUpper(team)
	if alias, ok := teamAliases[team]; ok {
		return alias
	}
	return team
}

// GameStateFor resolves the game a player's team is in for the current week
// and returns its state. Players without a resolvable game (bye weeks, free
// agents, abbreviation mismatches the alias table misses) report not-started.
func GameStateFor(player *fantasy.Player, games []fantasy.Game) fantasy.GameState {
	if game := findGame(player, games); game != nil {
		return game.State
	}
	return fantasy.GameNotStarted
}

// findGame scans the week's scoreboard for a game whose short descriptor
// contains the player's normalized team abbreviation. The scoreboard holds at
// most 16 games per week, so a linear scan is fine.
func findGame(player *fantasy.Player, games []fantasy.Game) *fantasy.Game {
	if player == nil || player.Team == "" {
		return nil
	}
	team := NormalizeTeam(player.Team)
	for i := range games {
		if strings.Contains(strings.ToUpper(games[i].ShortName), team) {
			return &games[i]
		}
	}
	return nil
}

// CompletionWeight returns how much of a player's contribution counts toward
// actual versus projected scoring for a given game state. The two weights
// always sum to 1.
func CompletionWeight(state fantasy.GameState) (actual, projected float64) {
	switch state {
	case fantasy.GameInProgress:
		return 0.5, 0.5
	case fantasy.GameFinal:
		return 1, 0
	default:
		return 0, 1
	}
}

// RosterProgress averages the actual-side completion weight across a
// roster's starters, yielding a 0..1 completion fraction for the roster as a
// whole. A single starter that cannot be matched to any game zeroes the whole
// roster's progress: an unknown game means we cannot trust the fraction, so
// we fail closed rather than hand out partial credit.
func RosterProgress(starters []string, allPlayers map[string]*fantasy.Player, games []fantasy.Game) float64 {
	if len(starters) == 0 {
		return 0
	}

	var total float64
	counted := 0
	for _, playerID := range starters {
		player := allPlayers[playerID]
		if player == nil {
			continue
		}

		game := findGame(player, games)
		if game == nil {
			return 0
		}

		actual, _ := CompletionWeight(game.State)
		total += actual
		counted++
	}

	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}
