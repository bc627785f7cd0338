package models

import "time"

type Tag struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index;not null"`
	User      User
	Name      string `gorm:"size:100;not null"`
	Color     string `gorm:"size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
