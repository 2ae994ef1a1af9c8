// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"strings"

	"underground/internal/cache"
	"underground/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackListFilter narrows track listings.
type TrackListFilter struct {
	Genre  string
	Search string
	UserID uint
}

// TrackRepository defines the interface for track data operations
type TrackRepository interface {
	Create(ctx context.Context, track *models.Track) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Track, error)
	List(ctx context.Context, filter TrackListFilter, limit, offset int, currentUserID uint) ([]*models.Track, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Track, error)
	Update(ctx context.Context, track *models.Track) error
	Delete(ctx context.Context, id uint) error
	IncrementPlays(ctx context.Context, id uint) error
	IsLiked(ctx context.Context, userID, trackID uint) (bool, error)
	Like(ctx context.Context, userID, trackID uint) (bool, error)
	Unlike(ctx context.Context, userID, trackID uint) (bool, error)
	LikeCount(ctx context.Context, trackID uint) (int64, error)
	AddCollaborators(ctx context.Context, trackID uint, userIDs []uint) error
	Collaborators(ctx context.Context, trackID uint) ([]*models.User, error)
}

// trackRepository implements TrackRepository
type trackRepository struct {
	db *gorm.DB
}

// NewTrackRepository creates a new track repository
func NewTrackRepository(db *gorm.DB) TrackRepository {
	return &trackRepository{db: db}
}

// applyTrackDetails adds subqueries to fetch counts and liked status in a single query.
// The liked column is only selected when a viewer is present, so anonymous reads
// leave Track.Liked nil.
func applyTrackDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "tracks.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.track_id = tracks.id) as likes_count, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.track_id = tracks.id) as comments_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.track_id = tracks.id AND likes.user_id = ?) as liked", currentUserID)
	}

	return db.Select(selectQuery)
}

func (r *trackRepository) Create(ctx context.Context, track *models.Track) error {
	err := r.db.WithContext(ctx).Create(track).Error
	if err == nil {
		cache.InvalidateRankings(ctx)
	}
	return err
}

func (r *trackRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Track, error) {
	var track models.Track
	err := applyTrackDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		First(&track, id).Error
	if err != nil {
		return nil, err
	}
	return &track, nil
}

func (r *trackRepository) List(ctx context.Context, filter TrackListFilter, limit, offset int, currentUserID uint) ([]*models.Track, error) {
	var tracks []*models.Track
	q := applyTrackDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User")
	if filter.Genre != "" {
		q = q.Where("genre = ?", filter.Genre)
	}
	if filter.Search != "" {
		// LOWER on both sides; bare LIKE is case-sensitive on postgres
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?",
			like, like, like)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tracks).Error
	return tracks, err
}

func (r *trackRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Track, error) {
	return r.List(ctx, TrackListFilter{UserID: userID}, limit, offset, currentUserID)
}

func (r *trackRepository) Update(ctx context.Context, track *models.Track) error {
	return r.db.WithContext(ctx).Model(track).Updates(map[string]interface{}{
		"title":       track.Title,
		"description": track.Description,
		"genre":       track.Genre,
		"tags":        track.Tags,
		"cover_url":   track.CoverURL,
	}).Error
}

func (r *trackRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Track{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateRankings(ctx)
	return nil
}

func (r *trackRepository) IncrementPlays(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Track{}).
		Where("id = ?", id).
		UpdateColumn("plays", gorm.Expr("plays + 1")).Error
}

func (r *trackRepository) IsLiked(ctx context.Context, userID, trackID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND track_id = ?", userID, trackID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Like inserts the like edge. Returns false when the edge already existed;
// the insert is atomic so concurrent duplicates collapse to one row.
func (r *trackRepository) Like(ctx context.Context, userID, trackID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{UserID: userID, TrackID: trackID})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	cache.InvalidateRankings(ctx)
	return true, nil
}

// Unlike removes the like edge. Returns false when no edge existed.
func (r *trackRepository) Unlike(ctx context.Context, userID, trackID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND track_id = ?", userID, trackID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	cache.InvalidateRankings(ctx)
	return true, nil
}

func (r *trackRepository) LikeCount(ctx context.Context, trackID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("track_id = ?", trackID).
		Count(&count).Error
	return count, err
}

func (r *trackRepository) AddCollaborators(ctx context.Context, trackID uint, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]models.TrackCollaborator, 0, len(userIDs))
	for _, uid := range userIDs {
		rows = append(rows, models.TrackCollaborator{TrackID: trackID, UserID: uid})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *trackRepository) Collaborators(ctx context.Context, trackID uint) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN track_collaborators ON track_collaborators.user_id = users.id").
		Where("track_collaborators.track_id = ?", trackID).
		Find(&users).Error
	return users, err
}
