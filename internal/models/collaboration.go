package models

import (
	"time"
)

// CollaborationStatusOpen is the initial status of a collaboration request.
// Other values are caller-supplied strings; there is no enforced transition
// graph.
const CollaborationStatusOpen = "open"

// Collaboration is a call for other artists to work on something together.
type Collaboration struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Genre       string    `json:"genre"`
	Status      string    `gorm:"default:'open';index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}
