package repository

import (
	"context"

	"underground/internal/models"

	"gorm.io/gorm"
)

// CommunityStats holds platform-wide counters shown on the community page.
type CommunityStats struct {
	Artists            int64 `json:"artists"`
	Tracks             int64 `json:"tracks"`
	Collaborations     int64 `json:"collaborations"`
	OpenCollaborations int64 `json:"open_collaborations"`
	TotalPlays         int64 `json:"total_plays"`
}

// StatsRepository aggregates platform-wide counters.
type StatsRepository interface {
	CommunityStats(ctx context.Context) (*CommunityStats, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) CommunityStats(ctx context.Context) (*CommunityStats, error) {
	db := r.db.WithContext(ctx)
	stats := &CommunityStats{}

	if err := db.Model(&models.User{}).Count(&stats.Artists).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Track{}).Count(&stats.Tracks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Collaboration{}).Count(&stats.Collaborations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Collaboration{}).
		Where("status = ?", models.CollaborationStatusOpen).
		Count(&stats.OpenCollaborations).Error; err != nil {
		return nil, err
	}
	var totalPlays *int64
	if err := db.Model(&models.Track{}).
		Select("COALESCE(SUM(plays), 0)").Scan(&totalPlays).Error; err != nil {
		return nil, err
	}
	if totalPlays != nil {
		stats.TotalPlays = *totalPlays
	}
	return stats, nil
}
