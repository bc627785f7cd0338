package recurrence

import (
	"fmt"
	"time"

	"fintrack-backend/internal/models"

	"gorm.io/gorm"
)

// CatchUp materializes concrete transactions for every recurring template of
// the user whose next-occurrence date has reached or passed now. Runs inline
// at login; the loop per template is bounded by the elapsed time since the
// previous run, so calling it again immediately creates nothing.
func CatchUp(db *gorm.DB, userID uint, now time.Time) (int, error) {
	var templates []models.Transaction
	if err := db.Where("user_id = ? AND is_recurring = ?", userID, true).
		Order("id asc").
		Find(&templates).Error; err != nil {
		return 0, fmt.Errorf("load recurring templates: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	created := 0

	for i := range templates {
		tpl := &templates[i]

		// Incomplete templates are skipped, not an error.
		if tpl.Frequency == nil || tpl.NextOccurrence == nil {
			continue
		}

		var tagIDs []uint
		if err := db.Model(&models.TransactionTag{}).
			Where("transaction_id = ?", tpl.ID).
			Pluck("tag_id", &tagIDs).Error; err != nil {
			return created, fmt.Errorf("load template tags: %w", err)
		}

		next := *tpl.NextOccurrence
		for !next.After(today) {
			clone := models.Transaction{
				UserID:      tpl.UserID,
				AccountID:   tpl.AccountID,
				CategoryID:  tpl.CategoryID,
				Amount:      tpl.Amount,
				Description: tpl.Description,
				Date:        next,
				IsRecurring: false,
			}

			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&clone).Error; err != nil {
					return err
				}
				for _, tagID := range tagIDs {
					link := models.TransactionTag{TransactionID: clone.ID, TagID: tagID}
					if err := tx.Create(&link).Error; err != nil {
						return err
					}
				}

				next = Advance(next, *tpl.Frequency)
				tpl.NextOccurrence = &next
				return tx.Model(&models.Transaction{}).
					Where("id = ?", tpl.ID).
					Update("next_occurrence", next).Error
			})
			if err != nil {
				return created, fmt.Errorf("materialize template %d: %w", tpl.ID, err)
			}

			created++
		}
	}

	return created, nil
}

// Advance returns the occurrence date one frequency step after d.
func Advance(d time.Time, freq models.Frequency) time.Time {
	switch freq {
	case models.FrequencyDaily:
		return d.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return d.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		return d.AddDate(0, 1, 0)
	case models.FrequencyYearly:
		return d.AddDate(1, 0, 0)
	default:
		// Unknown frequency: push far enough into the future that the
		// caller's loop terminates.
		return d.AddDate(100, 0, 0)
	}
}
