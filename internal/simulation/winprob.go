package simulation

// DefaultSimulations is used when a request does not specify a trial count.
const DefaultSimulations = 1000

// DefaultVolatility is the per-trial standard deviation in fantasy points.
const DefaultVolatility = 2.0

// MatchupInput describes the two sides of a live matchup for estimation.
// RemainingProjected is the roster's projected points not yet banked;
// Progress is the roster's 0..1 game completion fraction.
type MatchupInput struct {
	MyScore              float64
	MyRemainingProjected float64
	MyProgress           float64

	OppScore              float64
	OppRemainingProjected float64
	OppProgress           float64
}

// Estimator computes win probability by Monte Carlo simulation.
type Estimator struct {
	source NormalSource
}

// NewEstimator creates an estimator backed by the given normal source.
func NewEstimator(source NormalSource) *Estimator {
	if source == nil {
		source = NewDefaultNormalSource()
	}
	return &Estimator{source: source}
}

// Estimate runs sims independent trials and returns the percentage, in
// [0,100], in which my final total beats the opponent's.
//
// Each trial draws both sides' remaining output from a normal distribution
// with stddev volatility. My side's distribution is centered on the
// remaining projection decayed by game progress. The opponent's draw is
// centered on the undecayed remaining projection, which is how the formula
// has always behaved; changing it shifts every cached probability, so the
// asymmetry stays until the model is recalibrated.
func (e *Estimator) Estimate(in MatchupInput, sims int, volatility float64) float64 {
	if sims <= 0 {
		sims = DefaultSimulations
	}
	if volatility <= 0 {
		volatility = DefaultVolatility
	}

	myRemaining := in.MyRemainingProjected * (1 - in.MyProgress)

	wins := 0
	for i := 0; i < sims; i++ {
		myTotal := in.MyScore + e.source.Sample(myRemaining, volatility)
		oppTotal := in.OppScore + e.source.Sample(in.OppRemainingProjected, volatility)
		if myTotal > oppTotal {
			wins++
		}
	}

	return float64(wins) / float64(sims) * 100
}
