package models

import (
	"time"
)

// Track represents an uploaded piece of music.
type Track struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	User        User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Genre       string `gorm:"index" json:"genre"`
	Tags        string `json:"tags"`
	AudioURL    string `gorm:"not null" json:"audio_url"`
	CoverURL    string `json:"cover_url"`
	Duration    int    `gorm:"default:0" json:"duration"`
	// Plays is incremented by exactly one on every single-track fetch.
	Plays     int       `gorm:"default:0" json:"plays"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// Liked indicates whether the requesting user liked this track.
	// Only populated when a viewer identity is present.
	Liked *bool `gorm:"->;-:migration" json:"liked,omitempty"`
	// Score is the trending score; populated only by the trending query.
	Score float64 `gorm:"->;-:migration" json:"score,omitempty"`
}

// TrackCollaborator links an additional user to a track they worked on.
type TrackCollaborator struct {
	TrackID uint `gorm:"primaryKey" json:"track_id"`
	UserID  uint `gorm:"primaryKey" json:"user_id"`

	Track Track `gorm:"foreignKey:TrackID;constraint:OnDelete:CASCADE" json:"-"`
	User  User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName specifies the table name for GORM
func (TrackCollaborator) TableName() string {
	return "track_collaborators"
}
