package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/sleepertools/matchup-live/internal/matchup"
	"github.com/sleepertools/matchup-live/internal/websocket"
)

// snapshotRetention bounds how long poll history is kept.
const snapshotRetention = 14 * 24 * time.Hour

// snapshotCacheTTL bounds how long a cached snapshot may serve a freshly
// restarted process before its first cycle completes.
const snapshotCacheTTL = 10 * time.Minute

// SnapshotCache is the slice of the redis cache the poller uses to carry
// the latest snapshot across process restarts.
type SnapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration, maxRetries int) error
}

// PollerService drives the tracking loop: every interval it resolves the
// configured matchup, computes the live snapshot, and fans the result out
// to websocket clients, the scoring feed, SMS alerts, and durable storage.
type PollerService struct {
	matchups *matchup.Service
	hub      *websocket.MatchupHub
	feed     *ScoringFeed
	notifier *AlertNotifier
	store    *StoreService
	cache    SnapshotCache
	logger   *logrus.Logger
	cron     *cron.Cron

	username     string
	leagueID     string
	pollInterval time.Duration
	cycleTimeout time.Duration

	mu        sync.Mutex
	isRunning bool

	// cycleMu serializes cycles. A slow cycle makes the next tick skip
	// rather than stack.
	cycleMu sync.Mutex

	latestMu sync.RWMutex
	latest   *matchup.LiveMatchup
	season   string
}

// NewPollerService creates a poller for one tracked matchup. The store may
// be nil when persistence is disabled, the cache when redis is not wired.
func NewPollerService(
	matchups *matchup.Service,
	hub *websocket.MatchupHub,
	feed *ScoringFeed,
	notifier *AlertNotifier,
	store *StoreService,
	cache SnapshotCache,
	logger *logrus.Logger,
	username string,
	leagueID string,
	pollInterval time.Duration,
) *PollerService {
	return &PollerService{
		matchups:     matchups,
		hub:          hub,
		feed:         feed,
		notifier:     notifier,
		store:        store,
		cache:        cache,
		logger:       logger,
		cron:         cron.New(),
		username:     username,
		leagueID:     leagueID,
		pollInterval: pollInterval,
		cycleTimeout: 90 * time.Second,
	}
}

// Start begins the scheduled polling.
func (s *PollerService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("poller is already running")
	}

	schedule := fmt.Sprintf("@every %s", s.pollInterval.String())
	if _, err := s.cron.AddFunc(schedule, s.Poll); err != nil {
		return fmt.Errorf("failed to schedule poller: %w", err)
	}

	if s.store != nil {
		if _, err := s.cron.AddFunc("0 3 * * *", s.cleanupOldData); err != nil {
			return fmt.Errorf("failed to schedule cleanup: %w", err)
		}
	}

	s.cron.Start()
	s.isRunning = true

	// Serve the previous run's snapshot until the first cycle lands.
	s.restoreSnapshot()

	// Run initial cycle so clients see data before the first tick.
	go s.Poll()

	s.logger.WithFields(logrus.Fields{
		"username":  s.username,
		"league_id": s.leagueID,
		"interval":  s.pollInterval.String(),
	}).Info("Poller service started")
	return nil
}

// Stop halts the scheduled polling.
func (s *PollerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Poller service stopped")
}

// Poll runs one tracking cycle. Overlapping invocations are skipped, not
// queued: a tick arriving while a cycle is still in flight does nothing.
func (s *PollerService) Poll() {
	if !s.cycleMu.TryLock() {
		s.logger.Warn("Previous poll cycle still running, skipping tick")
		return
	}
	defer s.cycleMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout)
	defer cancel()

	start := time.Now()

	mc, err := s.matchups.ResolveContext(ctx, s.username, s.leagueID)
	if err != nil {
		s.logger.Errorf("Failed to resolve matchup context: %v", err)
		return
	}

	live, err := s.matchups.ComputeLive(ctx, mc)
	if err != nil {
		s.logger.Errorf("Failed to compute live matchup: %v", err)
		return
	}

	s.latestMu.Lock()
	s.latest = live
	s.season = mc.Season
	s.latestMu.Unlock()

	s.persistLatest(ctx, live)
	s.hub.BroadcastMatchupUpdate(s.username, live)

	events := s.feed.Observe(live)
	for _, event := range events {
		s.hub.BroadcastScoringEvent(event)
	}
	if s.notifier != nil {
		s.notifier.Notify(events)
	}

	if s.store != nil {
		if err := s.store.SaveSnapshot(s.username, s.leagueID, mc.Season, live, mc.MyMatchup.MatchupID); err != nil {
			s.logger.Warnf("Failed to persist snapshot: %v", err)
		}
		if err := s.store.SaveScoringEvents(s.username, s.leagueID, events); err != nil {
			s.logger.Warnf("Failed to persist scoring events: %v", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"week":     live.Week,
		"my_score": live.MyScore,
		"win_prob": live.WinProbability,
		"events":   len(events),
		"duration": time.Since(start).String(),
	}).Info("Completed poll cycle")
}

// Latest returns the most recent snapshot, or nil before the first cycle
// completes.
func (s *PollerService) Latest() *matchup.LiveMatchup {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	return s.latest
}

// Season returns the season string from the most recent cycle.
func (s *PollerService) Season() string {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	return s.season
}

// restoreSnapshot loads the last cached snapshot so /matchup/live answers
// immediately after a restart. A cache miss or read failure is benign.
func (s *PollerService) restoreSnapshot() {
	if s.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var live matchup.LiveMatchup
	if err := s.cache.Get(ctx, LiveMatchupCacheKey(s.username, s.leagueID), &live); err != nil {
		return
	}

	s.latestMu.Lock()
	if s.latest == nil {
		s.latest = &live
	}
	s.latestMu.Unlock()

	s.logger.WithField("week", live.Week).Info("Restored matchup snapshot from cache")
}

func (s *PollerService) persistLatest(ctx context.Context, live *matchup.LiveMatchup) {
	if s.cache == nil {
		return
	}
	key := LiveMatchupCacheKey(s.username, s.leagueID)
	if err := s.cache.SetWithRetry(ctx, key, live, snapshotCacheTTL, 2); err != nil {
		s.logger.Warnf("Failed to cache latest snapshot: %v", err)
	}
}

func (s *PollerService) cleanupOldData() {
	s.store.CleanupOldData(snapshotRetention)
}
