package matchup

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/sleepertools/matchup-live/internal/fantasy"
	"github.com/sleepertools/matchup-live/internal/simulation"
)

// Domain lookup failures. Fatal for the cycle that hits them, surfaced to
// the presentation layer, and retried no faster than the poll cadence.
var (
	ErrRosterNotFound         = errors.New("user roster not found in league")
	ErrMatchupNotFound        = errors.New("no matchup found for current week")
	ErrOpponentNotFound       = errors.New("opponent matchup not found")
	ErrOpponentRosterNotFound = errors.New("opponent roster not found")
)

// Service computes live matchup aggregates and win probabilities for one
// league. It owns the probability cache and all cross-cycle state so that
// two services tracking different leagues never alias each other.
type Service struct {
	provider   fantasy.DataProvider
	scoreboard fantasy.GameStatusProvider
	estimator  *simulation.Estimator
	cache      *ProbabilityCache
	logger     *logrus.Logger

	simulations int
	volatility  float64
}

// Options tune the win probability simulation.
type Options struct {
	Simulations int
	Volatility  float64
}

// NewService wires a matchup service from its collaborators.
func NewService(
	provider fantasy.DataProvider,
	scoreboard fantasy.GameStatusProvider,
	estimator *simulation.Estimator,
	cache *ProbabilityCache,
	logger *logrus.Logger,
	opts Options,
) *Service {
	if opts.Simulations <= 0 {
		opts.Simulations = simulation.DefaultSimulations
	}
	if opts.Volatility <= 0 {
		opts.Volatility = simulation.DefaultVolatility
	}

	return &Service{
		provider:    provider,
		scoreboard:  scoreboard,
		estimator:   estimator,
		cache:       cache,
		logger:      logger,
		simulations: opts.Simulations,
		volatility:  opts.Volatility,
	}
}

// Cache exposes the probability cache for explicit clears.
func (s *Service) Cache() *ProbabilityCache {
	return s.cache
}
