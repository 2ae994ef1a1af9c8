package service

import (
	"context"

	"underground/internal/cache"
	"underground/internal/models"
	"underground/internal/repository"
)

// FeedService serves the home feed and the ranked discovery feeds.
type FeedService struct {
	rankingRepo repository.RankingRepository
	socialRepo  repository.SocialRepository
}

func NewFeedService(rankingRepo repository.RankingRepository, socialRepo repository.SocialRepository) *FeedService {
	return &FeedService{
		rankingRepo: rankingRepo,
		socialRepo:  socialRepo,
	}
}

// Feed returns tracks from followed artists plus the viewer's own uploads.
func (s *FeedService) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Track, error) {
	return s.rankingRepo.Feed(ctx, viewerID, limit, offset)
}

func (s *FeedService) Recent(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Track, error) {
	return s.rankingRepo.Recent(ctx, limit, offset, viewerID)
}

// Popular serves the likes-then-plays ranking. Anonymous pages are cached;
// authenticated reads bypass the cache because the liked annotation is
// viewer-specific.
func (s *FeedService) Popular(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Track, error) {
	if viewerID != 0 {
		return s.rankingRepo.Popular(ctx, limit, offset, viewerID)
	}

	var tracks []*models.Track
	err := cache.Aside(ctx, cache.PopularKey(limit, offset), &tracks, cache.PopularTTL, func() error {
		var ferr error
		tracks, ferr = s.rankingRepo.Popular(ctx, limit, offset, 0)
		return ferr
	})
	return tracks, err
}

// Trending serves the windowed engagement ranking, cached for anonymous
// viewers like Popular.
func (s *FeedService) Trending(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Track, error) {
	if viewerID != 0 {
		return s.rankingRepo.Trending(ctx, limit, offset, viewerID)
	}

	var tracks []*models.Track
	err := cache.Aside(ctx, cache.TrendingKey(limit, offset), &tracks, cache.TrendingTTL, func() error {
		var ferr error
		tracks, ferr = s.rankingRepo.Trending(ctx, limit, offset, 0)
		return ferr
	})
	return tracks, err
}

// Suggestions recommends artists the viewer does not follow yet.
func (s *FeedService) Suggestions(ctx context.Context, viewerID uint, limit int) ([]*models.User, error) {
	return s.socialRepo.SuggestedArtists(ctx, viewerID, limit)
}

// MostPlayed returns the all-time play leaders shown alongside suggestions.
func (s *FeedService) MostPlayed(ctx context.Context, limit int, viewerID uint) ([]*models.Track, error) {
	return s.rankingRepo.MostPlayed(ctx, limit, viewerID)
}
