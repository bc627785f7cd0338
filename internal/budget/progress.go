package budget

import (
	"math"
	"time"

	"fintrack-backend/internal/models"
)

// PeriodRange returns the budget's current effective period [start, end).
// Weeks start on Monday, months and years on the calendar boundary.
func PeriodRange(bt models.BudgetType, now time.Time) (time.Time, time.Time) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch bt {
	case models.BudgetTypeDaily:
		return today, today.AddDate(0, 0, 1)
	case models.BudgetTypeWeekly:
		offset := (int(today.Weekday()) + 6) % 7 // Monday = 0
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case models.BudgetTypeYearly:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0)
	default: // monthly
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	}
}

// Progress converts spend against a budget amount into a whole percentage.
// The first value is floored and capped at 100 for display; the second is the
// uncapped percentage used for color tiers. A zero amount yields 0, not an
// error.
func Progress(spent, amount float64) (int, int) {
	if amount <= 0 {
		return 0, 0
	}
	raw := int(math.Floor(spent / amount * 100))
	display := raw
	if display > 100 {
		display = 100
	}
	if display < 0 {
		display = 0
	}
	return display, raw
}
