package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sleepertools/matchup-live/internal/api"
	"github.com/sleepertools/matchup-live/internal/api/middleware"
	"github.com/sleepertools/matchup-live/internal/fantasy"
	"github.com/sleepertools/matchup-live/internal/matchup"
	"github.com/sleepertools/matchup-live/internal/providers"
	"github.com/sleepertools/matchup-live/internal/services"
	"github.com/sleepertools/matchup-live/internal/simulation"
	"github.com/sleepertools/matchup-live/internal/websocket"
	"github.com/sleepertools/matchup-live/pkg/config"
	"github.com/sleepertools/matchup-live/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	cacheService := services.NewCacheService(redisClient)

	// Connect to database when persistence is on
	var store *services.StoreService
	if cfg.EnablePersistence {
		db, err := database.NewConnection(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.IsDevelopment())
		if err != nil {
			logrus.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		store = services.NewStoreService(db, logger)
	}

	// Data providers
	sleeper := providers.NewSleeperClient(cacheService, logger)
	var provider fantasy.DataProvider = sleeper
	scoreboard := providers.NewESPNScoreboard(cacheService, logger)

	// Off-season development mode: synthetic stat lines drift upward so the
	// whole pipeline can be exercised without live games.
	if cfg.EnableStatSim {
		statSim := simulation.NewStatSimulator(provider, logger)
		statSim.Start(10 * time.Second)
		defer statSim.Stop()
		provider = statSim
		logrus.Warn("Stat simulator enabled, serving synthetic stat lines")
	}

	// Matchup service
	probabilityCache := matchup.NewProbabilityCache(cacheService, logger)
	probabilityCache.SetStalenessWindow(cfg.StalenessWindow)

	matchupService := matchup.NewService(
		provider,
		scoreboard,
		simulation.NewEstimator(simulation.NewDefaultNormalSource()),
		probabilityCache,
		logger,
		matchup.Options{
			Simulations: cfg.Simulations,
			Volatility:  cfg.Volatility,
		},
	)

	// WebSocket hub
	hub := websocket.NewMatchupHub(logger)
	go hub.Run()

	// Scoring feed and SMS alerts
	feed := services.NewScoringFeed(cfg.ScoringMinDelta)

	var sms services.SMSService
	switch cfg.SMSProvider {
	case "twilio":
		limiter := services.NewSMSRateLimiter(cfg.SMSMaxPerHour, time.Hour)
		sms = services.NewTwilioSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, limiter, logger)
	default:
		sms = services.NewMockSMSService(logger)
	}
	notifier := services.NewAlertNotifier(sms, cfg.AlertPhone, cfg.AlertThreshold, logger)

	// Poller
	poller := services.NewPollerService(
		matchupService,
		hub,
		feed,
		notifier,
		store,
		cacheService,
		logger,
		cfg.SleeperUsername,
		cfg.SleeperLeagueID,
		cfg.PollInterval,
	)
	if err := poller.Start(); err != nil {
		logrus.Fatalf("Failed to start poller: %v", err)
	}
	defer poller.Stop()

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, poller, store, cacheService, hub, sleeper)

	// WebSocket endpoint at root level
	router.GET("/ws/:username", hub.HandleWebSocket)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
