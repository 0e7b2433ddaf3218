package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/sleepertools/matchup-live/internal/fantasy"
	"github.com/sleepertools/matchup-live/internal/matchup"
)

// ScoringEvent is one detected scoring play: a starter's points moved
// between consecutive poll cycles.
type ScoringEvent struct {
	PlayerID    string    `json:"player_id"`
	PlayerName  string    `json:"player_name"`
	Team        string    `json:"team"`
	Position    string    `json:"position"`
	Side        string    `json:"side"` // "mine" or "opponent"
	Delta       float64   `json:"delta"`
	TotalPoints float64   `json:"total_points"`
	Week        int       `json:"week"`
	Timestamp   time.Time `json:"timestamp"`
}

// Describe renders the event as a one-line alert.
func (e ScoringEvent) Describe() string {
	verb := "scored"
	if e.Delta < 0 {
		verb = "lost"
	}
	return fmt.Sprintf("%s (%s, %s) %s %+.1f pts, now %.1f", e.PlayerName, e.Position, e.Team, verb, e.Delta, e.TotalPoints)
}

// ScoringFeed detects per-player point changes between poll cycles. The
// first cycle for a week establishes a baseline and emits nothing.
type ScoringFeed struct {
	mu       sync.Mutex
	week     int
	previous map[string]float64
	minDelta float64
}

// NewScoringFeed creates a feed. Changes smaller than minDelta are treated
// as stat-correction noise and dropped.
func NewScoringFeed(minDelta float64) *ScoringFeed {
	return &ScoringFeed{
		previous: make(map[string]float64),
		minDelta: minDelta,
	}
}

// Observe compares a fresh live snapshot against the previous cycle and
// returns the scoring events in between.
func (f *ScoringFeed) Observe(live *matchup.LiveMatchup) []ScoringEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Week rollover invalidates every baseline.
	if live.Week != f.week {
		f.week = live.Week
		f.previous = make(map[string]float64)
	}

	baseline := len(f.previous) == 0

	var events []ScoringEvent
	now := time.Now()
	for side, agg := range map[string]fantasy.RosterAggregate{
		"mine":     live.MyAggregate,
		"opponent": live.OppAggregate,
	} {
		for _, contribution := range agg.Players {
			prev, seen := f.previous[contribution.PlayerID]
			f.previous[contribution.PlayerID] = contribution.ActualPoints

			if baseline || !seen {
				continue
			}

			delta := contribution.ActualPoints - prev
			if delta < f.minDelta && delta > -f.minDelta {
				continue
			}

			event := ScoringEvent{
				PlayerID:    contribution.PlayerID,
				Side:        side,
				Delta:       delta,
				TotalPoints: contribution.ActualPoints,
				Week:        live.Week,
				Timestamp:   now,
			}
			if contribution.Player != nil {
				event.PlayerName = contribution.Player.FullName
				event.Team = contribution.Player.Team
				event.Position = contribution.Player.Position
			}
			events = append(events, event)
		}
	}

	return events
}

// Reset drops all baselines, forcing the next cycle to re-seed.
func (f *ScoringFeed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previous = make(map[string]float64)
	f.week = 0
}
