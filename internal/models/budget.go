package models

import "time"

type BudgetType string

const (
	BudgetTypeDaily   BudgetType = "daily"
	BudgetTypeWeekly  BudgetType = "weekly"
	BudgetTypeMonthly BudgetType = "monthly"
	BudgetTypeYearly  BudgetType = "yearly"
)

type Budget struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"index;not null"`
	User        User
	Name        string     `gorm:"size:100;not null"`
	Type        BudgetType `gorm:"size:10;not null"`
	Amount      float64    `gorm:"not null"`
	Description string     `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Join rows cascade-delete with their budget (explicit delete-time cleanup).
type BudgetCategory struct {
	BudgetID   uint `gorm:"primaryKey"`
	CategoryID uint `gorm:"primaryKey"`
}

type BudgetAccount struct {
	BudgetID  uint `gorm:"primaryKey"`
	AccountID uint `gorm:"primaryKey"`
}
