package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sleepertools/matchup-live/internal/matchup"
	"github.com/sleepertools/matchup-live/internal/models"
	"github.com/sleepertools/matchup-live/pkg/database"
)

// StoreService persists poll cycle snapshots, scoring events, and tracker
// preferences.
type StoreService struct {
	db     *database.DB
	logger *logrus.Logger
}

func NewStoreService(db *database.DB, logger *logrus.Logger) *StoreService {
	return &StoreService{
		db:     db,
		logger: logger,
	}
}

// SaveSnapshot records one poll cycle result.
func (s *StoreService) SaveSnapshot(username, leagueID, season string, live *matchup.LiveMatchup, matchupID int) error {
	payload, err := json.Marshal(live)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	snapshot := models.MatchupSnapshot{
		Username:       username,
		LeagueID:       leagueID,
		Season:         season,
		Week:           live.Week,
		MatchupID:      matchupID,
		MyScore:        live.MyScore,
		OppScore:       live.OppScore,
		MyCombined:     live.MyAggregate.TotalCombined,
		OppCombined:    live.OppAggregate.TotalCombined,
		WinProbability: live.WinProbability,
		Payload:        datatypes.JSON(payload),
	}

	if err := s.db.DB.Create(&snapshot).Error; err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// RecentSnapshots returns the latest snapshots for a user and league,
// newest first.
func (s *StoreService) RecentSnapshots(username, leagueID string, limit int) ([]models.MatchupSnapshot, error) {
	var snapshots []models.MatchupSnapshot
	err := s.db.DB.
		Where("username = ? AND league_id = ?", username, leagueID).
		Order("created_at DESC").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	return snapshots, nil
}

// SaveScoringEvents records a cycle's detected scoring plays.
func (s *StoreService) SaveScoringEvents(username, leagueID string, events []ScoringEvent) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]models.ScoringEventRecord, 0, len(events))
	for _, event := range events {
		records = append(records, models.ScoringEventRecord{
			Username:    username,
			LeagueID:    leagueID,
			Week:        event.Week,
			PlayerID:    event.PlayerID,
			PlayerName:  event.PlayerName,
			Team:        event.Team,
			Position:    event.Position,
			Side:        event.Side,
			Delta:       event.Delta,
			TotalPoints: event.TotalPoints,
		})
	}

	if err := s.db.DB.Create(&records).Error; err != nil {
		return fmt.Errorf("failed to save scoring events: %w", err)
	}
	return nil
}

// RecentScoringEvents returns the latest scoring plays for a user's feed.
func (s *StoreService) RecentScoringEvents(username, leagueID string, limit int) ([]models.ScoringEventRecord, error) {
	var records []models.ScoringEventRecord
	err := s.db.DB.
		Where("username = ? AND league_id = ?", username, leagueID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring events: %w", err)
	}
	return records, nil
}

// GetPreferences loads a user's tracker preferences, or defaults if none
// are stored yet.
func (s *StoreService) GetPreferences(username string) (*models.TrackerPreferences, error) {
	var prefs models.TrackerPreferences
	err := s.db.DB.Where("username = ?", username).First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.TrackerPreferences{
				Username:            username,
				Theme:               "dark",
				PollIntervalSeconds: 30,
				AlertThreshold:      5,
			}, nil
		}
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return &prefs, nil
}

// SavePreferences upserts a user's tracker preferences.
func (s *StoreService) SavePreferences(prefs *models.TrackerPreferences) error {
	err := s.db.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		UpdateAll: true,
	}).Create(prefs).Error
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// CleanupOldData removes snapshots and scoring events older than the
// retention window.
func (s *StoreService) CleanupOldData(retention time.Duration) {
	cutoff := time.Now().Add(-retention)

	result := s.db.DB.Where("created_at < ?", cutoff).Delete(&models.MatchupSnapshot{})
	if result.Error != nil {
		s.logger.Errorf("Failed to clean up old snapshots: %v", result.Error)
	} else if result.RowsAffected > 0 {
		s.logger.Infof("Cleaned up %d old snapshots", result.RowsAffected)
	}

	result = s.db.DB.Where("created_at < ?", cutoff).Delete(&models.ScoringEventRecord{})
	if result.Error != nil {
		s.logger.Errorf("Failed to clean up old scoring events: %v", result.Error)
	} else if result.RowsAffected > 0 {
		s.logger.Infof("Cleaned up %d old scoring events", result.RowsAffected)
	}
}
