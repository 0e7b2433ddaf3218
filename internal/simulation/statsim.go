package simulation

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sleepertools/matchup-live/internal/fantasy"
)

// StatSimulator is a development-mode decorator around a DataProvider. It
// serves synthetic, position-calibrated stat lines in place of real weekly
// stats and mutates them on a timer so the live pipeline can be exercised
// outside game windows. Everything other than GetPlayerStats passes through.
type StatSimulator struct {
	fantasy.DataProvider

	logger *logrus.Logger
	rng    *rand.Rand

	mu      sync.Mutex
	stats   map[string]fantasy.StatLine
	running bool
	stop    chan struct{}
}

// NewStatSimulator wraps the given provider with simulated weekly stats.
func NewStatSimulator(provider fantasy.DataProvider, logger *logrus.Logger) *StatSimulator {
	return &StatSimulator{
		DataProvider: provider,
		logger:       logger,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		stats:        make(map[string]fantasy.StatLine),
	}
}

// statRange bounds an initial stat draw for a position.
type statRange struct {
	stat string
	min  float64
	max  float64
}

var initialRanges = map[string][]statRange{
	"QB": {
		{"pass_cmp", 15, 35},
		{"pass_att", 25, 50},
		{"pass_yd", 200, 400},
		{"pass_td", 1, 4},
		{"pass_int", 0, 2},
		{"rush_att", 2, 8},
		{"rush_yd", 10, 60},
	},
	"RB": {
		{"rush_att", 8, 25},
		{"rush_yd", 30, 150},
		{"rush_td", 0, 2},
		{"rec", 2, 8},
		{"rec_yd", 10, 80},
		{"rec_td", 0, 1},
	},
	"WR": {
		{"rec", 3, 12},
		{"rec_yd", 40, 150},
		{"rec_td", 0, 2},
		{"rush_att", 0, 2},
		{"rush_yd", 0, 20},
	},
	"TE": {
		{"rec", 2, 8},
		{"rec_yd", 20, 100},
		{"rec_td", 0, 1},
	},
}

// GetPlayerStats serves the simulated line for the player, seeding one on
// first request. Returns a copy: the stored line keeps mutating on the
// ticker goroutine and callers read without the simulator's lock.
func (s *StatSimulator) GetPlayerStats(ctx context.Context, playerID, season string, week int) (fantasy.StatLine, error) {
	s.mu.Lock()
	if line, ok := s.stats[playerID]; ok {
		out := cloneLine(line)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	player, err := s.lookupPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	line := s.seedLine(player)

	s.mu.Lock()
	// A concurrent request may have seeded the player first; keep its line.
	if existing, ok := s.stats[playerID]; ok {
		line = existing
	} else {
		s.stats[playerID] = line
	}
	out := cloneLine(line)
	s.mu.Unlock()

	return out, nil
}

func cloneLine(line fantasy.StatLine) fantasy.StatLine {
	out := make(fantasy.StatLine, len(line))
	for stat, v := range line {
		out[stat] = v
	}
	return out
}

func (s *StatSimulator) lookupPlayer(ctx context.Context, playerID string) (*fantasy.Player, error) {
	players, err := s.DataProvider.GetAllPlayers(ctx)
	if err != nil {
		return nil, err
	}
	return players[playerID], nil
}

func (s *StatSimulator) seedLine(player *fantasy.Player) fantasy.StatLine {
	line := fantasy.StatLine{}
	position := "FLEX"
	if player != nil {
		position = player.Position
	}

	for _, r := range initialRanges[position] {
		line[r.stat] = math.Floor(s.rng.Float64()*(r.max-r.min+1)) + r.min
	}

	recomputePoints(line)
	return line
}

// Start begins mutating simulated lines on an interval.
func (s *StatSimulator) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})

	s.logger.Info("Stat simulator started")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the mutation loop and clears simulated state.
func (s *StatSimulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
	s.stats = make(map[string]fantasy.StatLine)
	s.logger.Info("Stat simulator stopped")
}

// tick picks up to three seeded players and applies realistic increments.
func (s *StatSimulator) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.stats))
	for id := range s.stats {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}

	s.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	n := s.rng.Intn(3) + 1
	if n > len(ids) {
		n = len(ids)
	}

	for _, id := range ids[:n] {
		line := s.stats[id]
		s.applyIncrement(line)
		recomputePoints(line)
	}
}

func (s *StatSimulator) applyIncrement(line fantasy.StatLine) {
	// 30% of ticks produce nothing for a given player.
	if s.rng.Float64() < 0.3 {
		return
	}

	switch {
	case line["pass_att"] > 0:
		completions := float64(s.rng.Intn(4) + 1)
		line["pass_cmp"] += completions
		line["pass_att"] += completions + float64(s.rng.Intn(2))
		line["pass_yd"] += completions * float64(s.rng.Intn(15)+5)
		if s.rng.Float64() < 0.15 {
			line["pass_td"]++
		}
		if s.rng.Float64() < 0.05 {
			line["pass_int"]++
		}
	case line["rush_att"] > line["rec"]:
		rushes := float64(s.rng.Intn(3) + 1)
		line["rush_att"] += rushes
		line["rush_yd"] += rushes * float64(s.rng.Intn(8)+2)
		if s.rng.Float64() < 0.1 {
			line["rush_td"]++
		}
	default:
		line["rec"]++
		line["rec_yd"] += float64(s.rng.Intn(15) + 6)
		if s.rng.Float64() < 0.08 {
			line["rec_td"]++
		}
	}
}

// recomputePoints derives the three standard fantasy point totals from the
// raw line so downstream scoring sees a bundle shaped like Sleeper's.
func recomputePoints(line fantasy.StatLine) {
	base := line["pass_yd"]*0.04 +
		line["pass_td"]*4 -
		line["pass_int"]*2 +
		line["rush_yd"]*0.1 +
		line["rush_td"]*6 +
		line["rec_yd"]*0.1 +
		line["rec_td"]*6 -
		line["fum_lost"]*2

	line["pts_std"] = round2(base)
	line["pts_half_ppr"] = round2(base + line["rec"]*0.5)
	line["pts_ppr"] = round2(base + line["rec"])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
