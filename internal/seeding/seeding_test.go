package seeding

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"
	"fintrack-backend/internal/reqctx"

	"github.com/gofiber/fiber/v2"
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

func TestSeedUserDefaults(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, SeedUserDefaults(db, 1))

	var cats []models.Category
	require.NoError(t, db.Where("user_id = ?", 1).Find(&cats).Error)
	require.Len(t, cats, 13)

	var incomeCount int
	for _, cat := range cats {
		if cat.Type == models.CategoryTypeIncome {
			incomeCount++
		}
	}
	assert.Equal(t, 1, incomeCount)

	var accounts []models.Account
	require.NoError(t, db.Where("user_id = ?", 1).Order("id asc").Find(&accounts).Error)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Cash", accounts[0].Name)
	assert.Equal(t, "Bank", accounts[1].Name)
	assert.Zero(t, accounts[0].InitialBalance)
	assert.Zero(t, accounts[1].InitialBalance)

	var pref models.UserPreference
	require.NoError(t, db.First(&pref, "user_id = ?", 1).Error)
	assert.False(t, pref.DarkMode)
}

func TestSeedUserDefaultsIsPerUser(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, SeedUserDefaults(db, 1))
	require.NoError(t, SeedUserDefaults(db, 2))

	var count int64
	db.Model(&models.Category{}).Where("user_id = ?", 2).Count(&count)
	assert.Equal(t, int64(13), count)
}

func newTestApp(userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(reqctx.CtxUserIDKey, userID)
		return c.Next()
	})
	app.Post("/api/dataseeding", DataSeedingHandler())
	return app
}

func TestDataSeedingGeneratesBoundedTransactions(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedUserDefaults(db, 1))

	body, _ := json.Marshal(DataSeedingRequest{
		TransactionCount:      25,
		MinAmount:             1,
		MaxAmount:             100,
		StartDate:             "2025-01-01",
		EndDate:               "2025-06-30",
		MaxTagsPerTransaction: 0,
	})
	req := httptest.NewRequest("POST", "/api/dataseeding", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	app := newTestApp(1)
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&models.Transaction{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(25), count)

	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	var outOfRange int64
	db.Model(&models.Transaction{}).
		Where("user_id = ? AND (date < ? OR date > ?)", 1, start, end).
		Count(&outOfRange)
	assert.Zero(t, outOfRange)
}

func TestDataSeedingRejectsInsaneBounds(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedUserDefaults(db, 1))
	app := newTestApp(1)

	cases := []DataSeedingRequest{
		{TransactionCount: 10000, MinAmount: 1, MaxAmount: 10, StartDate: "2025-01-01", EndDate: "2025-02-01"},
		{TransactionCount: 10, MinAmount: 50, MaxAmount: 10, StartDate: "2025-01-01", EndDate: "2025-02-01"},
		{TransactionCount: 10, MinAmount: 1, MaxAmount: 10, StartDate: "2025-02-01", EndDate: "2025-01-01"},
		{TransactionCount: 10, MinAmount: 1, MaxAmount: 10, StartDate: "2025-01-01", EndDate: "2025-02-01", MaxTagsPerTransaction: 11},
	}

	for _, tc := range cases {
		body, _ := json.Marshal(tc)
		req := httptest.NewRequest("POST", "/api/dataseeding", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	}
}
