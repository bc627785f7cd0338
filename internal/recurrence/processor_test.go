package recurrence

import (
	"testing"
	"time"

	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func freq(f models.Frequency) *models.Frequency { return &f }

func timePtr(t time.Time) *time.Time { return &t }

func TestCatchUpMaterializesOverdueOccurrences(t *testing.T) {
	db := newTestDB(t)

	tpl := models.Transaction{
		UserID:         1,
		AccountID:      1,
		CategoryID:     1,
		Amount:         -50,
		Description:    "Gym membership",
		Date:           date(2025, time.May, 10),
		IsRecurring:    true,
		Frequency:      freq(models.FrequencyMonthly),
		NextOccurrence: timePtr(date(2025, time.June, 10)),
	}
	require.NoError(t, db.Create(&tpl).Error)

	now := date(2025, time.August, 28)
	created, err := CatchUp(db, 1, now)
	require.NoError(t, err)
	assert.Equal(t, 3, created) // June 10, July 10, August 10

	var clones []models.Transaction
	require.NoError(t, db.Where("is_recurring = ?", false).Order("date asc").Find(&clones).Error)
	require.Len(t, clones, 3)
	assert.Equal(t, date(2025, time.June, 10), clones[0].Date)
	assert.Equal(t, date(2025, time.July, 10), clones[1].Date)
	assert.Equal(t, date(2025, time.August, 10), clones[2].Date)
	for _, clone := range clones {
		assert.Equal(t, -50.0, clone.Amount)
		assert.Equal(t, "Gym membership", clone.Description)
		assert.False(t, clone.IsRecurring)
		assert.Nil(t, clone.Frequency)
	}

	var reloaded models.Transaction
	require.NoError(t, db.First(&reloaded, tpl.ID).Error)
	require.NotNil(t, reloaded.NextOccurrence)
	assert.Equal(t, date(2025, time.September, 10), reloaded.NextOccurrence.UTC())
}

func TestCatchUpIsIdempotentAtCallBoundary(t *testing.T) {
	db := newTestDB(t)

	tpl := models.Transaction{
		UserID:         1,
		AccountID:      1,
		CategoryID:     1,
		Amount:         -10,
		Date:           date(2025, time.August, 1),
		IsRecurring:    true,
		Frequency:      freq(models.FrequencyDaily),
		NextOccurrence: timePtr(date(2025, time.August, 26)),
	}
	require.NoError(t, db.Create(&tpl).Error)

	now := date(2025, time.August, 28)
	first, err := CatchUp(db, 1, now)
	require.NoError(t, err)
	assert.Equal(t, 3, first) // 26th, 27th, 28th

	second, err := CatchUp(db, 1, now)
	require.NoError(t, err)
	assert.Equal(t, 0, second)
}

func TestCatchUpSkipsIncompleteTemplates(t *testing.T) {
	db := newTestDB(t)

	noFreq := models.Transaction{
		UserID:         1,
		AccountID:      1,
		CategoryID:     1,
		Amount:         -10,
		Date:           date(2025, time.January, 1),
		IsRecurring:    true,
		NextOccurrence: timePtr(date(2025, time.January, 2)),
	}
	noNext := models.Transaction{
		UserID:      1,
		AccountID:   1,
		CategoryID:  1,
		Amount:      -10,
		Date:        date(2025, time.January, 1),
		IsRecurring: true,
		Frequency:   freq(models.FrequencyWeekly),
	}
	require.NoError(t, db.Create(&noFreq).Error)
	require.NoError(t, db.Create(&noNext).Error)

	created, err := CatchUp(db, 1, date(2025, time.August, 28))
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestCatchUpCopiesTagLinks(t *testing.T) {
	db := newTestDB(t)

	tag := models.Tag{UserID: 1, Name: "subscription"}
	require.NoError(t, db.Create(&tag).Error)

	tpl := models.Transaction{
		UserID:         1,
		AccountID:      1,
		CategoryID:     1,
		Amount:         -15,
		Date:           date(2025, time.August, 20),
		IsRecurring:    true,
		Frequency:      freq(models.FrequencyWeekly),
		NextOccurrence: timePtr(date(2025, time.August, 27)),
	}
	require.NoError(t, db.Create(&tpl).Error)
	require.NoError(t, db.Create(&models.TransactionTag{TransactionID: tpl.ID, TagID: tag.ID}).Error)

	created, err := CatchUp(db, 1, date(2025, time.August, 28))
	require.NoError(t, err)
	require.Equal(t, 1, created)

	var clone models.Transaction
	require.NoError(t, db.Where("is_recurring = ?", false).First(&clone).Error)

	var links []models.TransactionTag
	require.NoError(t, db.Where("transaction_id = ?", clone.ID).Find(&links).Error)
	require.Len(t, links, 1)
	assert.Equal(t, tag.ID, links[0].TagID)
}

func TestAdvanceSteps(t *testing.T) {
	d := date(2025, time.January, 31)

	assert.Equal(t, date(2025, time.February, 1), Advance(d, models.FrequencyDaily))
	assert.Equal(t, date(2025, time.February, 7), Advance(d, models.FrequencyWeekly))
	assert.Equal(t, date(2026, time.January, 31), Advance(d, models.FrequencyYearly))
	// AddDate normalization: Jan 31 + 1 month rolls over to March 3.
	assert.Equal(t, date(2025, time.March, 3), Advance(d, models.FrequencyMonthly))
}
