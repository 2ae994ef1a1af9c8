// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered artist or listener.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"unique;not null" json:"username"`
	Email       string    `gorm:"unique;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Tracks []Track `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"tracks,omitempty"`

	// FollowersCount is not persisted; computed at query time for search
	// and suggestion orderings.
	FollowersCount int `gorm:"->;-:migration" json:"followers_count,omitempty"`
	// TotalPlays is not persisted; computed at query time for artist rankings.
	TotalPlays int `gorm:"->;-:migration" json:"total_plays,omitempty"`
}

// UserStats aggregates the profile counters shown alongside a user.
type UserStats struct {
	Followers      int64 `json:"followers"`
	Following      int64 `json:"following"`
	Tracks         int64 `json:"tracks"`
	TotalPlays     int64 `json:"total_plays"`
	Collaborations int64 `json:"collaborations"`
}

// Profile is a user with computed stats and the viewer's follow annotation.
type Profile struct {
	User
	Stats       UserStats `json:"stats"`
	IsFollowing bool      `json:"is_following"`
}
