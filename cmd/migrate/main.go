package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sleepertools/matchup-live/internal/models"
	"github.com/sleepertools/matchup-live/pkg/config"
	"github.com/sleepertools/matchup-live/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db, cfg); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	if err := db.AutoMigrate(
		&models.MatchupSnapshot{},
		&models.ScoringEventRecord{},
		&models.TrackerPreferences{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_snapshots_week ON matchup_snapshots(week)",
		"CREATE INDEX IF NOT EXISTS idx_snapshots_created ON matchup_snapshots(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_scoring_events_created ON scoring_events(created_at)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	tables := []string{
		"scoring_events",
		"matchup_snapshots",
		"tracker_preferences",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

func seedData(db *database.DB, cfg *config.Config) error {
	prefs := &models.TrackerPreferences{
		Username:            cfg.SleeperUsername,
		LeagueID:            cfg.SleeperLeagueID,
		Theme:               "dark",
		PollIntervalSeconds: 30,
		AlertThreshold:      5,
	}

	if err := db.Create(prefs).Error; err != nil {
		return fmt.Errorf("failed to seed preferences: %w", err)
	}

	logrus.Infof("Seeded default preferences for %s", cfg.SleeperUsername)
	return nil
}
