package repository

import (
	"context"

	"underground/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines the interface for direct message data operations
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	Thread(ctx context.Context, viewerID, otherID uint, limit, offset int) ([]*models.Message, error)
	MarkThreadRead(ctx context.Context, viewerID, otherID uint) (int64, error)
	Conversations(ctx context.Context, viewerID uint) ([]*models.Conversation, error)
	UnreadCount(ctx context.Context, viewerID uint) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		First(message, message.ID).Error
}

// Thread returns the messages exchanged between two users, oldest first.
func (r *messageRepository) Thread(ctx context.Context, viewerID, otherID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			viewerID, otherID, otherID, viewerID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

// MarkThreadRead flags every unread message from the counterpart to the viewer
// as read. Returns the number of rows flipped.
func (r *messageRepository) MarkThreadRead(ctx context.Context, viewerID, otherID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", otherID, viewerID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

// Conversations returns one summary per counterpart the viewer has exchanged
// messages with, newest thread first.
func (r *messageRepository) Conversations(ctx context.Context, viewerID uint) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	err := r.db.WithContext(ctx).Raw(`
		SELECT u.id AS user_id,
		       u.username,
		       u.display_name,
		       u.avatar_url,
		       m.content AS last_message,
		       m.created_at AS last_message_time,
		       (SELECT COUNT(*) FROM messages
		        WHERE sender_id = u.id AND receiver_id = ? AND read = ?) AS unread_count
		FROM users u
		JOIN messages m ON m.id = (
			SELECT id FROM messages
			WHERE (sender_id = ? AND receiver_id = u.id)
			   OR (sender_id = u.id AND receiver_id = ?)
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		ORDER BY m.created_at DESC, m.id DESC`,
		viewerID, false, viewerID, viewerID).
		Scan(&conversations).Error
	return conversations, err
}

func (r *messageRepository) UnreadCount(ctx context.Context, viewerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND read = ?", viewerID, false).
		Count(&count).Error
	return count, err
}
