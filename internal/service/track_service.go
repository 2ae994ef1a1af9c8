package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"underground/internal/models"
	"underground/internal/notifications"
	"underground/internal/observability"
	"underground/internal/repository"

	"gorm.io/gorm"
)

// TrackService handles track lifecycle, plays, likes and comments.
type TrackService struct {
	trackRepo   repository.TrackRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	events      notifications.Emitter
}

// CreateTrackInput is the payload for publishing a track. AudioURL points at
// an already stored upload.
type CreateTrackInput struct {
	UserID          uint
	Title           string
	Description     string
	Genre           string
	Tags            string
	AudioURL        string
	CoverURL        string
	Duration        int
	CollaboratorIDs []uint
}

// UpdateTrackInput carries the editable track metadata.
type UpdateTrackInput struct {
	UserID      uint
	TrackID     uint
	Title       *string
	Description *string
	Genre       *string
	Tags        *string
	CoverURL    *string
}

func NewTrackService(
	trackRepo repository.TrackRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	events notifications.Emitter,
) *TrackService {
	return &TrackService{
		trackRepo:   trackRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		events:      events,
	}
}

func (s *TrackService) CreateTrack(ctx context.Context, in CreateTrackInput) (*models.Track, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.AudioURL == "" {
		return nil, models.NewValidationError("Audio file is required")
	}

	track := &models.Track{
		UserID:      in.UserID,
		Title:       title,
		Description: in.Description,
		Genre:       in.Genre,
		Tags:        in.Tags,
		AudioURL:    in.AudioURL,
		CoverURL:    in.CoverURL,
		Duration:    in.Duration,
	}
	if err := s.trackRepo.Create(ctx, track); err != nil {
		return nil, models.NewInternalError(err)
	}

	if len(in.CollaboratorIDs) > 0 {
		ids := make([]uint, 0, len(in.CollaboratorIDs))
		for _, id := range in.CollaboratorIDs {
			if id == in.UserID {
				continue
			}
			ids = append(ids, id)
		}
		if err := s.trackRepo.AddCollaborators(ctx, track.ID, ids); err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	observability.TrackUploadsTotal.Inc()
	return s.trackRepo.GetByID(ctx, track.ID, in.UserID)
}

// GetTrack returns a single track and records the play. Every fetch counts
// as one play, including the uploader's own.
func (s *TrackService) GetTrack(ctx context.Context, trackID, viewerID uint) (*models.Track, error) {
	if err := s.trackRepo.IncrementPlays(ctx, trackID); err != nil {
		return nil, models.NewInternalError(err)
	}

	track, err := s.trackRepo.GetByID(ctx, trackID, viewerID)
	if err != nil {
		return nil, asNotFound(err, "Track", trackID)
	}

	observability.TrackPlaysRecorded.Inc()
	return track, nil
}

// PeekTrack returns the track without recording a play. Used by mutations
// that need the row but are not a listen.
func (s *TrackService) PeekTrack(ctx context.Context, trackID, viewerID uint) (*models.Track, error) {
	track, err := s.trackRepo.GetByID(ctx, trackID, viewerID)
	if err != nil {
		return nil, asNotFound(err, "Track", trackID)
	}
	return track, nil
}

func (s *TrackService) ListTracks(ctx context.Context, filter repository.TrackListFilter, limit, offset int, viewerID uint) ([]*models.Track, error) {
	return s.trackRepo.List(ctx, filter, limit, offset, viewerID)
}

func (s *TrackService) TracksByUser(ctx context.Context, userID uint, limit, offset int, viewerID uint) ([]*models.Track, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.trackRepo.GetByUserID(ctx, userID, limit, offset, viewerID)
}

func (s *TrackService) UpdateTrack(ctx context.Context, in UpdateTrackInput) (*models.Track, error) {
	track, err := s.trackRepo.GetByID(ctx, in.TrackID, 0)
	if err != nil {
		return nil, asNotFound(err, "Track", in.TrackID)
	}
	if track.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only edit your own tracks")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title is required")
		}
		track.Title = title
	}
	if in.Description != nil {
		track.Description = *in.Description
	}
	if in.Genre != nil {
		track.Genre = *in.Genre
	}
	if in.Tags != nil {
		track.Tags = *in.Tags
	}
	if in.CoverURL != nil {
		track.CoverURL = *in.CoverURL
	}

	if err := s.trackRepo.Update(ctx, track); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.trackRepo.GetByID(ctx, in.TrackID, in.UserID)
}

func (s *TrackService) DeleteTrack(ctx context.Context, userID, trackID uint) error {
	track, err := s.trackRepo.GetByID(ctx, trackID, 0)
	if err != nil {
		return asNotFound(err, "Track", trackID)
	}
	if track.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own tracks")
	}
	if err := s.trackRepo.Delete(ctx, trackID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Like records the like and notifies the uploader. Liking twice is a
// conflict. Liking your own track is allowed but produces no notification.
func (s *TrackService) Like(ctx context.Context, userID, trackID uint) error {
	track, err := s.trackRepo.GetByID(ctx, trackID, 0)
	if err != nil {
		return asNotFound(err, "Track", trackID)
	}

	created, err := s.trackRepo.Like(ctx, userID, trackID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !created {
		return models.NewConflictError("Track already liked")
	}

	if track.UserID != userID {
		liker, err := s.userRepo.GetByID(ctx, userID)
		if err == nil {
			s.events.Emit(ctx, notifications.Event{
				UserID:      track.UserID,
				Type:        models.NotificationTypeLike,
				Message:     fmt.Sprintf("%s liked your track \"%s\"", liker.Username, track.Title),
				ReferenceID: trackID,
			})
		}
	}
	return nil
}

// Unlike removes the like. Removing an absent like is an error.
func (s *TrackService) Unlike(ctx context.Context, userID, trackID uint) error {
	removed, err := s.trackRepo.Unlike(ctx, userID, trackID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !removed {
		return models.NewConflictError("Track not liked")
	}
	return nil
}

// AddComment stores a trimmed, non-empty comment and notifies the uploader
// unless they commented on their own track.
func (s *TrackService) AddComment(ctx context.Context, userID, trackID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}

	track, err := s.trackRepo.GetByID(ctx, trackID, 0)
	if err != nil {
		return nil, asNotFound(err, "Track", trackID)
	}

	comment := &models.Comment{UserID: userID, TrackID: trackID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	if track.UserID != userID {
		s.events.Emit(ctx, notifications.Event{
			UserID:      track.UserID,
			Type:        models.NotificationTypeComment,
			Message:     fmt.Sprintf("%s commented on your track \"%s\"", comment.User.Username, track.Title),
			ReferenceID: trackID,
		})
	}
	return comment, nil
}

func (s *TrackService) Comments(ctx context.Context, trackID uint, limit, offset int) ([]*models.Comment, error) {
	if _, err := s.trackRepo.GetByID(ctx, trackID, 0); err != nil {
		return nil, asNotFound(err, "Track", trackID)
	}
	return s.commentRepo.GetByTrackID(ctx, trackID, limit, offset)
}

func (s *TrackService) Collaborators(ctx context.Context, trackID uint) ([]*models.User, error) {
	return s.trackRepo.Collaborators(ctx, trackID)
}

// asNotFound converts gorm's not-found into the API error, passing through
// errors that already carry a code.
func asNotFound(err error, resource string, id interface{}) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
