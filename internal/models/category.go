package models

import "time"

type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
)

type Category struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index;not null"`
	User      User
	Name      string       `gorm:"size:100;not null"`
	Type      CategoryType `gorm:"size:10;not null"`
	Icon      string       `gorm:"size:50"`
	Color     string       `gorm:"size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
