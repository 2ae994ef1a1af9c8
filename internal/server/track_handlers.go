// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"underground/internal/models"
	"underground/internal/observability"
	"underground/internal/repository"
	"underground/internal/service"
	"underground/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// CreateTrack handles POST /api/tracks as a multipart form. The audio file
// is required; cover art is optional.
func (s *Server) CreateTrack(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title is required"))
	}

	audioFile, err := c.FormFile("audio")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Audio file is required"))
	}
	audioName, err := s.store.SaveAudio(audioFile)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	coverURL := ""
	if coverFile, ferr := c.FormFile("cover"); ferr == nil {
		coverName, serr := s.store.SaveImage(coverFile)
		if serr != nil {
			s.store.Remove(audioName)
			return models.RespondWithAppError(c, serr)
		}
		coverURL = "/uploads/" + coverName
	}

	duration, _ := strconv.Atoi(c.FormValue("duration"))

	track, err := s.trackService.CreateTrack(c.UserContext(), service.CreateTrackInput{
		UserID:          currentUserID(c),
		Title:           title,
		Description:     c.FormValue("description"),
		Genre:           c.FormValue("genre"),
		Tags:            c.FormValue("tags"),
		AudioURL:        "/uploads/" + audioName,
		CoverURL:        coverURL,
		Duration:        duration,
		CollaboratorIDs: parseIDList(c.FormValue("collaborator_ids")),
	})
	if err != nil {
		s.store.Remove(audioName)
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(track)
}

// parseIDList parses a comma-separated list of user IDs from a form value.
func parseIDList(raw string) []uint {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		if id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32); err == nil && id > 0 {
			ids = append(ids, uint(id))
		}
	}
	return ids
}

// GetTracks handles GET /api/tracks with optional genre and search filters.
func (s *Server) GetTracks(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	filter := repository.TrackListFilter{
		Genre:  c.Query("genre"),
		Search: c.Query("search"),
	}

	tracks, err := s.trackService.ListTracks(c.UserContext(), filter, p.Limit, p.Offset, optionalUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(tracks)
}

// GetTrack handles GET /api/tracks/:id. Every call records one play.
func (s *Server) GetTrack(c *fiber.Ctx) error {
	trackID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	track, err := s.trackService.GetTrack(c.UserContext(), trackID, optionalUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(track)
}

// UpdateTrack handles PUT /api/tracks/:id (owner only).
func (s *Server) UpdateTrack(c *fiber.Ctx) error {
	trackID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Genre       *string `json:"genre"`
		Tags        *string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	track, err := s.trackService.UpdateTrack(c.UserContext(), service.UpdateTrackInput{
		UserID:      currentUserID(c),
		TrackID:     trackID,
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Tags:        req.Tags,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(track)
}

// DeleteTrack handles DELETE /api/tracks/:id (owner only).
func (s *Server) DeleteTrack(c *fiber.Ctx) error {
	trackID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	track, err := s.trackService.PeekTrack(c.UserContext(), trackID, 0)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if err := s.trackService.DeleteTrack(c.UserContext(), currentUserID(c), trackID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	// Row is gone; the stored files go with it.
	s.store.Remove(path.Base(track.AudioURL))
	if track.CoverURL != "" {
		s.store.Remove(path.Base(track.CoverURL))
	}

	return c.JSON(fiber.Map{"message": "Track deleted"})
}

// StreamTrack handles GET /api/tracks/:id/stream with HTTP Range support.
// Streaming does not record a play; only the single-track fetch does.
func (s *Server) StreamTrack(c *fiber.Ctx) error {
	trackID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	track, err := s.trackService.PeekTrack(c.UserContext(), trackID, 0)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	file, size, err := s.store.Open(path.Base(track.AudioURL))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentType, storage.ContentTypeFor(track.AudioURL))

	rangeHeader := c.Get(fiber.HeaderRange)
	if rangeHeader == "" {
		observability.StreamRequestsTotal.WithLabelValues("full").Inc()
		return c.SendStream(file, int(size))
	}

	start, end, ok := parseByteRange(rangeHeader, size)
	if !ok {
		file.Close()
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes */%d", size))
		return c.SendStatus(fiber.StatusRequestedRangeNotSatisfiable)
	}

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		file.Close()
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	length := end - start + 1
	observability.StreamRequestsTotal.WithLabelValues("range").Inc()
	c.Status(fiber.StatusPartialContent)
	c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	// fasthttp closes the body stream only when it implements io.Closer;
	// a bare LimitReader would leave the file open after every 206.
	return c.SendStream(&rangeReader{Reader: io.LimitReader(file, length), Closer: file}, int(length))
}

// rangeReader bounds a ranged response while keeping the underlying file
// closable by the transport.
type rangeReader struct {
	io.Reader
	io.Closer
}

// parseByteRange parses a single-range "bytes=start-end" header against the
// given size. Suffix ranges ("bytes=-N") and open ranges ("bytes=N-") are
// supported; multipart ranges are not.
func parseByteRange(header string, size int64) (start, end int64, ok bool) {
	rangeSpec, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(rangeSpec, ",") {
		return 0, 0, false
	}

	startStr, endStr, found := strings.Cut(rangeSpec, "-")
	if !found {
		return 0, 0, false
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if startStr == "" {
		// Suffix range: the last N bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, size > 0
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, false
	}

	end = size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
		if end >= size {
			end = size - 1
		}
	}
	return start, end, true
}

// LikeTrack handles POST /api/tracks/:id/like.
func (s *Server) LikeTrack(c *fiber.Ctx) error {
	trackID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := currentUserID(c)
	if err := s.trackService.Like(c.UserContext(), userID, trackID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	track, err := s.trackService.PeekTrack(c.UserContext(), trackID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Track liked",
		"likes_count": track.LikesCount,
	})
}

// UnlikeTrack handles DELETE /api/tracks/:id/like.
func (s *Server) UnlikeTrack(c *fiber.Ctx) error {
	trackID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := currentUserID(c)
	if err := s.trackService.Unlike(c.UserContext(), userID, trackID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	track, err := s.trackService.PeekTrack(c.UserContext(), trackID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Track unliked",
		"likes_count": track.LikesCount,
	})
}

// GetComments handles GET /api/tracks/:id/comments, newest first.
func (s *Server) GetComments(c *fiber.Ctx) error {
	trackID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 50)
	comments, err := s.trackService.Comments(c.UserContext(), trackID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/tracks/:id/comments.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	trackID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.trackService.AddComment(c.UserContext(), currentUserID(c), trackID, req.Content)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetTrackCollaborators handles GET /api/tracks/:id/collaborators.
func (s *Server) GetTrackCollaborators(c *fiber.Ctx) error {
	trackID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	collaborators, err := s.trackService.Collaborators(c.UserContext(), trackID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(collaborators)
}
