package matchup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sleepertools/matchup-live/internal/fantasy"
)

// DefaultStalenessWindow bounds how long a cached probability may be served
// while a relevant game is live.
const DefaultStalenessWindow = 60 * time.Second

// ProbabilityEntry is a cached win probability for one matchup pairing.
type ProbabilityEntry struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// ProbabilityCache memoizes win probability results keyed by matchup id.
// Entries live in a fast in-memory index and are written through to a
// durable store so they survive restarts. Store failures degrade the cache
// to memory-only for the affected call; they never fail a cycle.
type ProbabilityCache struct {
	mu        sync.RWMutex
	entries   map[int]ProbabilityEntry
	store     fantasy.CacheStore
	logger    *logrus.Logger
	staleness time.Duration
	now       func() time.Time
}

// NewProbabilityCache creates a cache backed by the given durable store.
// The store may be nil, in which case the cache is memory-only.
func NewProbabilityCache(store fantasy.CacheStore, logger *logrus.Logger) *ProbabilityCache {
	return &ProbabilityCache{
		entries:   make(map[int]ProbabilityEntry),
		store:     store,
		logger:    logger,
		staleness: DefaultStalenessWindow,
		now:       time.Now,
	}
}

// SetStalenessWindow overrides how long an entry stays fresh during live
// games. Non-positive values keep the default.
func (c *ProbabilityCache) SetStalenessWindow(window time.Duration) {
	if window > 0 {
		c.staleness = window
	}
}

// WinProbCacheKey is the durable-store key for a matchup's probability.
func WinProbCacheKey(matchupID int) string {
	return fmt.Sprintf("winprob:%d", matchupID)
}

// Get returns the cached entry for a matchup, consulting memory first and
// the durable store second.
func (c *ProbabilityCache) Get(ctx context.Context, matchupID int) (ProbabilityEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[matchupID]
	c.mu.RUnlock()
	if ok {
		return entry, true
	}

	if c.store == nil {
		return ProbabilityEntry{}, false
	}

	var stored ProbabilityEntry
	if err := c.store.Get(ctx, WinProbCacheKey(matchupID), &stored); err != nil {
		return ProbabilityEntry{}, false
	}

	c.mu.Lock()
	c.entries[matchupID] = stored
	c.mu.Unlock()

	return stored, true
}

// Put stores a freshly computed probability in memory and writes it through
// to the durable store.
func (c *ProbabilityCache) Put(ctx context.Context, matchupID int, value float64) ProbabilityEntry {
	entry := ProbabilityEntry{Value: value, Timestamp: c.now()}

	c.mu.Lock()
	c.entries[matchupID] = entry
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Set(ctx, WinProbCacheKey(matchupID), entry, 0); err != nil {
			c.logger.WithFields(logrus.Fields{
				"matchup_id": matchupID,
			}).Warnf("Failed to persist win probability, continuing in memory: %v", err)
		}
	}

	return entry
}

// Fresh reports whether an entry may be reused without recomputation. With
// no live game the cached value is stable until an explicit clear; with a
// live game it is only good for the staleness window, which bounds how often
// the expensive simulation reruns.
func (c *ProbabilityCache) Fresh(entry ProbabilityEntry, anyLiveGame bool) bool {
	if !anyLiveGame {
		return true
	}
	return c.now().Sub(entry.Timestamp) < c.staleness
}

// Clear drops every in-memory entry. Durable copies are overwritten on the
// next recomputation.
func (c *ProbabilityCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]ProbabilityEntry)
}
