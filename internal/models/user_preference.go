package models

import "time"

// UserPreference is a single row per user, keyed by the user id.
type UserPreference struct {
	UserID    uint `gorm:"primaryKey"`
	DarkMode  bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
