package models

import (
	"time"
)

// NotificationType tags a notification with the interaction that produced it.
type NotificationType string

const (
	// NotificationTypeLike is emitted when someone likes a track.
	NotificationTypeLike NotificationType = "like"
	// NotificationTypeComment is emitted when someone comments on a track.
	NotificationTypeComment NotificationType = "comment"
	// NotificationTypeFollow is emitted when someone follows a user.
	NotificationTypeFollow NotificationType = "follow"
	// NotificationTypeMessage is emitted when someone sends a direct message.
	NotificationTypeMessage NotificationType = "message"
)

// Notification is created only as a side effect of interaction mutations,
// never directly by a caller. ReferenceID points at the originating entity
// (track for like/comment, acting user for follow/message).
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;index" json:"user_id"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Message     string           `gorm:"not null" json:"message"`
	ReferenceID uint             `json:"reference_id"`
	Read        bool             `gorm:"default:false" json:"read"`
	CreatedAt   time.Time        `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
