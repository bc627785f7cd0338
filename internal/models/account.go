package models

import "time"

type Account struct {
	ID             uint `gorm:"primaryKey"`
	UserID         uint `gorm:"index;not null"`
	User           User
	Name           string  `gorm:"size:100;not null"`
	InitialBalance float64 `gorm:"not null"`
	Icon           string  `gorm:"size:50"`
	Color          string  `gorm:"size:20"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
