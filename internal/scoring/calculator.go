package scoring

import (
	"strings"

	"github.com/sleepertools/matchup-live/internal/fantasy"
)

// StatusClass buckets a player's injury designation for display.
type StatusClass string

const (
	StatusActive       StatusClass = "active"
	StatusQuestionable StatusClass = "questionable"
	StatusOut          StatusClass = "out"
)

// Points converts a raw stat bundle into fantasy points under the league's
// scoring settings. Sleeper precomputes point totals for the three standard
// reception formats, so the reception value selects which field to read;
// a configured tight end bonus is layered on top. A nil bundle scores zero.
func Points(stats fantasy.StatLine, cfg fantasy.ScoringSettings, player *fantasy.Player) float64 {
	if stats == nil {
		return 0
	}

	var points float64
	switch cfg.ReceptionValue {
	case 1:
		points = stats["pts_ppr"]
	case 0.5:
		points = stats["pts_half_ppr"]
	default:
		points = stats["pts_std"]
	}

	if player != nil && player.Position == "TE" && cfg.TEBonus != 0 {
		points += cfg.TEBonus * stats["rec"]
	}

	return points
}

// PlayerStatusClass maps Sleeper injury designations to a coarse
// availability class. Unrecognized or absent designations count as active.
func PlayerStatusClass(player *fantasy.Player) StatusClass {
	if player == nil {
		return StatusActive
	}

	switch strings.ToLower(player.InjuryStatus) {
	case "questionable", "doubtful":
		return StatusQuestionable
	case "out", "inactive", "ir", "injured-reserve", "injured reserve":
		return StatusOut
	default:
		return StatusActive
	}
}
