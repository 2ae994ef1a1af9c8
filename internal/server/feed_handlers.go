// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"underground/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed: followed artists' tracks plus the viewer's
// own, newest first.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	tracks, err := s.feedService.Feed(c.UserContext(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tracks)
}

// GetRecentFeed handles GET /api/feed/recent.
func (s *Server) GetRecentFeed(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	tracks, err := s.feedService.Recent(c.UserContext(), p.Limit, p.Offset, optionalUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tracks)
}

// GetPopularFeed handles GET /api/feed/popular.
func (s *Server) GetPopularFeed(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	tracks, err := s.feedService.Popular(c.UserContext(), p.Limit, p.Offset, optionalUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tracks)
}

// GetTrendingFeed handles GET /api/feed/trending.
func (s *Server) GetTrendingFeed(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	tracks, err := s.feedService.Trending(c.UserContext(), p.Limit, p.Offset, optionalUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tracks)
}

// GetSuggestions handles GET /api/feed/suggestions: artists the viewer does
// not follow yet, plus the most-played tracks.
func (s *Server) GetSuggestions(c *fiber.Ctx) error {
	viewerID := optionalUserID(c)
	limit := parsePagination(c, 10).Limit

	artists, err := s.feedService.Suggestions(c.UserContext(), viewerID, limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	tracks, err := s.feedService.MostPlayed(c.UserContext(), limit, viewerID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"artists": artists,
		"tracks":  tracks,
	})
}
