package service

import (
	"context"
	"fmt"

	"underground/internal/models"
	"underground/internal/notifications"
	"underground/internal/repository"
)

// SocialService manages the follow graph and its notifications.
type SocialService struct {
	socialRepo repository.SocialRepository
	userRepo   repository.UserRepository
	events     notifications.Emitter
}

func NewSocialService(
	socialRepo repository.SocialRepository,
	userRepo repository.UserRepository,
	events notifications.Emitter,
) *SocialService {
	return &SocialService{
		socialRepo: socialRepo,
		userRepo:   userRepo,
		events:     events,
	}
}

// Follow creates the directed edge and notifies the target.
func (s *SocialService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewValidationError("You cannot follow yourself")
	}

	follower, err := s.userRepo.GetByID(ctx, followerID)
	if err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, followingID); err != nil {
		return err
	}

	created, err := s.socialRepo.Follow(ctx, followerID, followingID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !created {
		return models.NewConflictError("Already following this user")
	}

	s.events.Emit(ctx, notifications.Event{
		UserID:      followingID,
		Type:        models.NotificationTypeFollow,
		Message:     fmt.Sprintf("%s started following you", follower.Username),
		ReferenceID: followerID,
	})
	return nil
}

// Unfollow removes the edge. Removing an absent edge is an error.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewValidationError("You cannot unfollow yourself")
	}

	removed, err := s.socialRepo.Unfollow(ctx, followerID, followingID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !removed {
		return models.NewConflictError("You are not following this user")
	}
	return nil
}

func (s *SocialService) Followers(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.socialRepo.Followers(ctx, userID, limit, offset)
}

func (s *SocialService) Following(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.socialRepo.Following(ctx, userID, limit, offset)
}
