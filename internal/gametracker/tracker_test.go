package gametracker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sleepertools/matchup-live/internal/fantasy"
)

func testGames() []fantasy.Game {
	return []fantasy.Game{
		{ID: "1", ShortName: "SEA @ ARI", State: fantasy.GameFinal},
		{ID: "2", ShortName: "DAL @ WSH", State: fantasy.GameInProgress},
		{ID: "3", ShortName: "KC @ BUF", State: fantasy.GameNotStarted},
	}
}

func TestCompletionWeightSumsToOne(t *testing.T) {
	states := []fantasy.GameState{fantasy.GameNotStarted, fantasy.GameInProgress, fantasy.GameFinal}
	for _, state := range states {
		actual, projected := CompletionWeight(state)
		assert.InDelta(t, 1.0, actual+projected, 1e-9, "weights for %s must sum to 1", state)
	}
}

func TestCompletionWeightPerState(t *testing.T) {
	tests := []struct {
		state     fantasy.GameState
		actual    float64
		projected float64
	}{
		{fantasy.GameNotStarted, 0, 1},
		{fantasy.GameInProgress, 0.5, 0.5},
		{fantasy.GameFinal, 1, 0},
	}

	for _, tt := range tests {
		actual, projected := CompletionWeight(tt.state)
		assert.Equal(t, tt.actual, actual)
		assert.Equal(t, tt.projected, projected)
	}
}

func TestGameStateFor(t *testing.T) {
	games := testGames()

	tests := []struct {
		name     string
		player   *fantasy.Player
		expected fantasy.GameState
	}{
		{"final game", &fantasy.Player{Team: "SEA"}, fantasy.GameFinal},
		{"live game", &fantasy.Player{Team: "DAL"}, fantasy.GameInProgress},
		{"pregame", &fantasy.Player{Team: "KC"}, fantasy.GameNotStarted},
		{"washington alias", &fantasy.Player{Team: "WAS"}, fantasy.GameInProgress},
		{"lowercase team", &fantasy.Player{Team: "sea"}, fantasy.GameFinal},
		{"no game this week", &fantasy.Player{Team: "DEN"}, fantasy.GameNotStarted},
		{"free agent", &fantasy.Player{Team: ""}, fantasy.GameNotStarted},
		{"nil player", nil, fantasy.GameNotStarted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GameStateFor(tt.player, games))
		})
	}
}

func TestRosterProgress(t *testing.T) {
	games := testGames()
	players := map[string]*fantasy.Player{
		"p1": {PlayerID: "p1", Team: "SEA"}, // final -> 1
		"p2": {PlayerID: "p2", Team: "WAS"}, // in progress -> 0.5
		"p3": {PlayerID: "p3", Team: "KC"},  // not started -> 0
		"p4": {PlayerID: "p4", Team: "DEN"}, // no game on the board
	}

	progress := RosterProgress([]string{"p1", "p2", "p3"}, players, games)
	assert.InDelta(t, 0.5, progress, 1e-9)

	// One unresolvable starter zeroes the whole roster.
	assert.Zero(t, RosterProgress([]string{"p1", "p2", "p4"}, players, games))

	// Unknown player records are skipped, not fatal.
	progress = RosterProgress([]string{"p1", "missing"}, players, games)
	assert.InDelta(t, 1.0, progress, 1e-9)

	assert.Zero(t, RosterProgress(nil, players, games))
	assert.Zero(t, RosterProgress([]string{"missing"}, players, games))
}
