package models

import (
	"time"

	"gorm.io/datatypes"
)

// MatchupSnapshot is one persisted poll cycle result. The full payload is
// kept as JSON so the popup can replay history without refetching.
type MatchupSnapshot struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"size:100;not null;index:idx_user_league" json:"username"`
	LeagueID       string         `gorm:"size:64;not null;index:idx_user_league" json:"league_id"`
	Season         string         `gorm:"size:10" json:"season"`
	Week           int            `gorm:"not null" json:"week"`
	MatchupID      int            `gorm:"not null" json:"matchup_id"`
	MyScore        float64        `json:"my_score"`
	OppScore       float64        `json:"opp_score"`
	MyCombined     float64        `json:"my_combined"`
	OppCombined    float64        `json:"opp_combined"`
	WinProbability float64        `json:"win_probability"`
	Payload        datatypes.JSON `json:"payload"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (MatchupSnapshot) TableName() string {
	return "matchup_snapshots"
}

// TrackerPreferences stores a user's popup settings so they survive
// browser restarts.
type TrackerPreferences struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Username            string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	LeagueID            string    `gorm:"size:64" json:"league_id"`
	Theme               string    `gorm:"size:20;default:dark" json:"theme"`
	PollIntervalSeconds int       `gorm:"default:30" json:"poll_interval_seconds"`
	AlertsEnabled       bool      `gorm:"default:false" json:"alerts_enabled"`
	AlertThreshold      float64   `gorm:"default:5" json:"alert_threshold"`
	PhoneNumber         string    `gorm:"size:20" json:"phone_number"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (TrackerPreferences) TableName() string {
	return "tracker_preferences"
}

// ScoringEventRecord is a persisted scoring play, kept for the feed's
// history view.
type ScoringEventRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:100;index" json:"username"`
	LeagueID    string    `gorm:"size:64" json:"league_id"`
	Week        int       `gorm:"index" json:"week"`
	PlayerID    string    `gorm:"size:32" json:"player_id"`
	PlayerName  string    `gorm:"size:100" json:"player_name"`
	Team        string    `gorm:"size:10" json:"team"`
	Position    string    `gorm:"size:10" json:"position"`
	Side        string    `gorm:"size:10" json:"side"`
	Delta       float64   `json:"delta"`
	TotalPoints float64   `json:"total_points"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ScoringEventRecord) TableName() string {
	return "scoring_events"
}
