package simulation

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// NormalSource produces normally distributed samples. The estimator takes one
// as a dependency so tests can pin a seed and get deterministic simulations.
type NormalSource interface {
	Sample(mean, stddev float64) float64
}

// boxMullerSource generates normal deviates from pairs of uniform draws via
// the Box-Muller transform.
type boxMullerSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewNormalSource returns a seeded Box-Muller generator.
func NewNormalSource(seed int64) NormalSource {
	return &boxMullerSource{rng: rand.New(rand.NewSource(seed))}
}

// NewDefaultNormalSource returns a time-seeded generator for production use.
func NewDefaultNormalSource() NormalSource {
	return NewNormalSource(time.Now().UnixNano())
}

func (s *boxMullerSource) Sample(mean, stddev float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Both uniforms must be strictly positive: u feeds a log and v a cosine,
	// and Float64 can return exactly 0.
	var u, v float64
	for u == 0 {
		u = s.rng.Float64()
	}
	for v == 0 {
		v = s.rng.Float64()
	}

	return mean + stddev*math.Sqrt(-2*math.Log(u))*math.Cos(2*math.Pi*v)
}
