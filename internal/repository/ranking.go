package repository

import (
	"context"
	"time"

	"underground/internal/models"

	"gorm.io/gorm"
)

// TrendingWindow is how far back the trending ranking looks.
const TrendingWindow = 7 * 24 * time.Hour

// RankingRepository serves the ranked and personalized track feeds.
type RankingRepository interface {
	Recent(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Track, error)
	Popular(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Track, error)
	Trending(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Track, error)
	MostPlayed(ctx context.Context, limit int, currentUserID uint) ([]*models.Track, error)
	Feed(ctx context.Context, userID uint, limit, offset int) ([]*models.Track, error)
}

type rankingRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRankingRepository creates a new ranking repository.
func NewRankingRepository(db *gorm.DB) RankingRepository {
	return &rankingRepository{db: db, now: time.Now}
}

func (r *rankingRepository) Recent(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Track, error) {
	var tracks []*models.Track
	err := applyTrackDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tracks).Error
	return tracks, err
}

func (r *rankingRepository) Popular(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Track, error) {
	var tracks []*models.Track
	err := applyTrackDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Order("likes_count DESC, plays DESC").
		Limit(limit).
		Offset(offset).
		Find(&tracks).Error
	return tracks, err
}

// Trending ranks tracks uploaded inside the window by a weighted engagement
// score. Plays weigh 0.3, likes 0.5, comments 0.2; ties break on recency.
// likes_count and comments_count are SELECT aliases from applyTrackDetails;
// both PostgreSQL and SQLite allow referencing them in ORDER BY.
func (r *rankingRepository) Trending(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Track, error) {
	cutoff := r.now().Add(-TrendingWindow)

	selectQuery := "tracks.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.track_id = tracks.id) as likes_count, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.track_id = tracks.id) as comments_count, " +
		"(tracks.plays * 0.3 " +
		"+ (SELECT COUNT(*) FROM likes WHERE likes.track_id = tracks.id) * 0.5 " +
		"+ (SELECT COUNT(*) FROM comments WHERE comments.track_id = tracks.id) * 0.2) as score"

	q := r.db.WithContext(ctx)
	if currentUserID != 0 {
		q = q.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.track_id = tracks.id AND likes.user_id = ?) as liked", currentUserID)
	} else {
		q = q.Select(selectQuery)
	}

	var tracks []*models.Track
	err := q.
		Preload("User").
		Where("tracks.created_at > ?", cutoff).
		Order("score DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tracks).Error
	return tracks, err
}

// MostPlayed returns the all-time play leaders, shown next to suggested
// artists.
func (r *rankingRepository) MostPlayed(ctx context.Context, limit int, currentUserID uint) ([]*models.Track, error) {
	var tracks []*models.Track
	err := applyTrackDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Order("plays DESC, created_at DESC").
		Limit(limit).
		Find(&tracks).Error
	return tracks, err
}

// Feed returns tracks from followed artists plus the viewer's own uploads,
// newest first.
func (r *rankingRepository) Feed(ctx context.Context, userID uint, limit, offset int) ([]*models.Track, error) {
	var tracks []*models.Track
	err := applyTrackDetails(r.db.WithContext(ctx), userID).
		Preload("User").
		Where("user_id IN (SELECT following_id FROM follows WHERE follower_id = ?) OR user_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tracks).Error
	return tracks, err
}
