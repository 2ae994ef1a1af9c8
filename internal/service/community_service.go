package service

import (
	"context"
	"fmt"
	"strings"

	"underground/internal/cache"
	"underground/internal/models"
	"underground/internal/notifications"
	"underground/internal/observability"
	"underground/internal/repository"
)

// CommunityService covers collaborations, direct messages, notifications and
// platform stats.
type CommunityService struct {
	collabRepo       repository.CollaborationRepository
	messageRepo      repository.MessageRepository
	notificationRepo repository.NotificationRepository
	statsRepo        repository.StatsRepository
	userRepo         repository.UserRepository
	events           notifications.Emitter
}

// CreateCollaborationInput is the payload for posting a collaboration call.
type CreateCollaborationInput struct {
	UserID      uint
	Title       string
	Description string
	Genre       string
}

func NewCommunityService(
	collabRepo repository.CollaborationRepository,
	messageRepo repository.MessageRepository,
	notificationRepo repository.NotificationRepository,
	statsRepo repository.StatsRepository,
	userRepo repository.UserRepository,
	events notifications.Emitter,
) *CommunityService {
	return &CommunityService{
		collabRepo:       collabRepo,
		messageRepo:      messageRepo,
		notificationRepo: notificationRepo,
		statsRepo:        statsRepo,
		userRepo:         userRepo,
		events:           events,
	}
}

func (s *CommunityService) CreateCollaboration(ctx context.Context, in CreateCollaborationInput) (*models.Collaboration, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}

	collab := &models.Collaboration{
		UserID:      in.UserID,
		Title:       title,
		Description: in.Description,
		Genre:       in.Genre,
	}
	if err := s.collabRepo.Create(ctx, collab); err != nil {
		return nil, models.NewInternalError(err)
	}
	return collab, nil
}

func (s *CommunityService) ListCollaborations(ctx context.Context, filter repository.CollaborationFilter, limit, offset int) ([]*models.Collaboration, error) {
	return s.collabRepo.List(ctx, filter, limit, offset)
}

func (s *CommunityService) GetCollaboration(ctx context.Context, collabID uint) (*models.Collaboration, error) {
	collab, err := s.collabRepo.GetByID(ctx, collabID)
	if err != nil {
		return nil, asNotFound(err, "Collaboration", collabID)
	}
	return collab, nil
}

// UpdateCollaborationStatus sets a caller-supplied status string on the
// poster's own collaboration.
func (s *CommunityService) UpdateCollaborationStatus(ctx context.Context, userID, collabID uint, status string) (*models.Collaboration, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, models.NewValidationError("Status is required")
	}

	collab, err := s.collabRepo.GetByID(ctx, collabID)
	if err != nil {
		return nil, asNotFound(err, "Collaboration", collabID)
	}
	if collab.UserID != userID {
		return nil, models.NewUnauthorizedError("You can only update your own collaborations")
	}

	if err := s.collabRepo.UpdateStatus(ctx, collabID, status); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.collabRepo.GetByID(ctx, collabID)
}

func (s *CommunityService) DeleteCollaboration(ctx context.Context, userID, collabID uint) error {
	collab, err := s.collabRepo.GetByID(ctx, collabID)
	if err != nil {
		return asNotFound(err, "Collaboration", collabID)
	}
	if collab.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own collaborations")
	}
	return s.collabRepo.Delete(ctx, collabID)
}

// SendMessage delivers a direct message and always notifies the receiver.
func (s *CommunityService) SendMessage(ctx context.Context, senderID, receiverID uint, content string) (*models.Message, error) {
	if senderID == receiverID {
		return nil, models.NewValidationError("You cannot message yourself")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message cannot be empty")
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}

	message := &models.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.MessagesSentTotal.Inc()
	s.events.Emit(ctx, notifications.Event{
		UserID:      receiverID,
		Type:        models.NotificationTypeMessage,
		Message:     fmt.Sprintf("New message from %s", sender.Username),
		ReferenceID: senderID,
	})
	return message, nil
}

// Thread returns the conversation with otherID and marks every unread
// message from them as read. Fetching the thread is the read receipt.
func (s *CommunityService) Thread(ctx context.Context, viewerID, otherID uint, limit, offset int) ([]*models.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	if _, err := s.messageRepo.MarkThreadRead(ctx, viewerID, otherID); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.messageRepo.Thread(ctx, viewerID, otherID, limit, offset)
}

func (s *CommunityService) Conversations(ctx context.Context, viewerID uint) ([]*models.Conversation, error) {
	return s.messageRepo.Conversations(ctx, viewerID)
}

func (s *CommunityService) Notifications(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *CommunityService) MarkNotificationRead(ctx context.Context, userID, notificationID uint) error {
	ok, err := s.notificationRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !ok {
		return models.NewNotFoundError("Notification", notificationID)
	}
	return nil
}

func (s *CommunityService) MarkAllNotificationsRead(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *CommunityService) UnreadNotificationCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}

// Stats returns platform-wide counters, cached briefly.
func (s *CommunityService) Stats(ctx context.Context) (*repository.CommunityStats, error) {
	var stats *repository.CommunityStats
	err := cache.Aside(ctx, cache.StatsKey, &stats, cache.StatsTTL, func() error {
		var ferr error
		stats, ferr = s.statsRepo.CommunityStats(ctx)
		return ferr
	})
	return stats, err
}
