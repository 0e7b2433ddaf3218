package fantasy

import (
	"context"
	"time"
)

// Player represents an entry from the Sleeper player directory.
type Player struct {
	PlayerID     string `json:"player_id"`
	FullName     string `json:"full_name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Team         string `json:"team"`
	Position     string `json:"position"`
	InjuryStatus string `json:"injury_status"`
}

// Roster is a fantasy team's roster within a league.
type Roster struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Starters []string `json:"starters"`
	Players  []string `json:"players"`
}

// Matchup is one roster's side of a weekly pairing. Two Matchup records
// share a MatchupID.
type Matchup struct {
	RosterID       int                `json:"roster_id"`
	MatchupID      int                `json:"matchup_id"`
	Points         float64            `json:"points"`
	Starters       []string           `json:"starters"`
	PlayerPoints   map[string]float64 `json:"players_points"`
	StartersPoints []float64          `json:"starters_points"`
}

// ScoringSettings is the subset of a league's scoring configuration the
// calculator consumes. Sleeper serves it as a flat stat->multiplier map;
// these are the keys we read.
type ScoringSettings struct {
	ReceptionValue float64 `json:"rec"`
	TEBonus        float64 `json:"bonus_rec_te"`
}

// League holds league metadata and configuration.
type League struct {
	LeagueID        string          `json:"league_id"`
	Name            string          `json:"name"`
	Season          string          `json:"season"`
	ScoringSettings ScoringSettings `json:"scoring_settings"`
	RosterPositions []string        `json:"roster_positions"`
}

// LeagueUser maps an owner to a display name.
type LeagueUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Metadata    struct {
		TeamName string `json:"team_name"`
	} `json:"metadata"`
}

// User is a Sleeper account.
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// SeasonState is the league-sport clock: current season and week.
type SeasonState struct {
	Season string `json:"season"`
	Week   int    `json:"week"`
}

// StatLine is a raw per-player statistic bundle, either accrued stats or an
// a-priori projection. Values are keyed by Sleeper stat names (pass_yd, rec,
// pts_ppr, ...).
type StatLine map[string]float64

// GameState classifies a real-world game's progress.
type GameState string

const (
	GameNotStarted GameState = "pre"
	GameInProgress GameState = "in"
	GameFinal      GameState = "post"
)

// Game is one scoreboard entry for the current week.
type Game struct {
	ID        string    `json:"id"`
	ShortName string    `json:"short_name"` // e.g. "SEA @ ARI"
	Teams     []string  `json:"teams"`
	State     GameState `json:"state"`
}

// PlayerContribution is one starter's share of a roster aggregate. Derived
// per cycle, never persisted.
type PlayerContribution struct {
	PlayerID        string    `json:"player_id"`
	Player          *Player   `json:"player,omitempty"`
	ActualPoints    float64   `json:"actual_points"`
	ProjectedPoints float64   `json:"projected_points"`
	Slot            string    `json:"slot"`
	GameState       GameState `json:"game_state"`
	Stats           StatLine  `json:"stats,omitempty"`
}

// RosterAggregate is the completion-weighted scoring summary for one roster.
type RosterAggregate struct {
	TotalActual    float64              `json:"total_actual"`
	TotalProjected float64              `json:"total_projected"`
	TotalCombined  float64              `json:"total_combined"`
	Players        []PlayerContribution `json:"players"`
}

// DataProvider is the read side of the Sleeper API the core consumes. All
// calls are idempotent GETs; implementations may serve stale reads.
type DataProvider interface {
	GetUser(ctx context.Context, username string) (*User, error)
	GetSeasonState(ctx context.Context) (*SeasonState, error)
	GetLeague(ctx context.Context, leagueID string) (*League, error)
	GetLeagueRosters(ctx context.Context, leagueID string) ([]Roster, error)
	GetLeagueUsers(ctx context.Context, leagueID string) ([]LeagueUser, error)
	GetLeagueMatchups(ctx context.Context, leagueID string, week int) ([]Matchup, error)
	GetAllPlayers(ctx context.Context) (map[string]*Player, error)
	GetPlayerProjection(ctx context.Context, playerID, season string, week int) (StatLine, error)
	GetPlayerStats(ctx context.Context, playerID, season string, week int) (StatLine, error)
}

// GameStatusProvider returns the live scoreboard for the current week.
type GameStatusProvider interface {
	GetGames(ctx context.Context) ([]Game, error)
}

// CacheStore is a durable key-value store used to persist win probability
// entries across restarts. Read and write failures are non-fatal.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}
