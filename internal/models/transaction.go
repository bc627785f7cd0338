package models

import "time"

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Transaction amounts are stored signed: expense-category rows negative,
// income-category rows positive. Account balance = initial + SUM(amount).
type Transaction struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"index;not null"`
	AccountID   uint `gorm:"index;not null"`
	Account     Account
	CategoryID  uint `gorm:"index;not null"`
	Category    Category
	Amount      float64   `gorm:"not null"`
	Description string    `gorm:"size:255"`
	Date        time.Time `gorm:"index;not null"`

	// Recurrence template fields. A recurring row is never shown as a
	// concrete transaction; it spawns non-recurring clones as its
	// next-occurrence date arrives.
	IsRecurring    bool `gorm:"not null;default:false"`
	Frequency      *Frequency `gorm:"size:10"`
	NextOccurrence *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionTag joins transactions and tags (composite key).
type TransactionTag struct {
	TransactionID uint `gorm:"primaryKey"`
	TagID         uint `gorm:"primaryKey"`
}
