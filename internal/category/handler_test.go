package category

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack-backend/internal/auth"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"

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

func newTestApp(userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, userID)
		return c.Next()
	})
	app.Get("/api/categories", ListCategoriesHandler())
	app.Get("/api/categories/with-stats", ListCategoriesWithStatsHandler())
	app.Get("/api/categories/:id", GetCategoryHandler())
	app.Post("/api/categories", CreateCategoryHandler())
	app.Put("/api/categories/:id", UpdateCategoryHandler())
	app.Delete("/api/categories/:id", DeleteCategoryHandler())
	return app
}

func TestDeleteCategoryRestrictedWhileReferenced(t *testing.T) {
	db := newTestDB(t)

	cat := models.Category{UserID: 1, Name: "Groceries", Type: models.CategoryTypeExpense}
	require.NoError(t, db.Create(&cat).Error)

	tx := models.Transaction{UserID: 1, AccountID: 1, CategoryID: cat.ID, Amount: -10, Date: time.Now()}
	require.NoError(t, db.Create(&tx).Error)

	app := newTestApp(1)

	resp, err := app.Test(httptest.NewRequest("DELETE", fmt.Sprintf("/api/categories/%d", cat.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	require.NoError(t, db.Delete(&models.Transaction{}, tx.ID).Error)

	resp, err = app.Test(httptest.NewRequest("DELETE", fmt.Sprintf("/api/categories/%d", cat.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestCrossOwnerCategoryIsForbidden(t *testing.T) {
	db := newTestDB(t)

	theirs := models.Category{UserID: 2, Name: "Secret", Type: models.CategoryTypeExpense}
	require.NoError(t, db.Create(&theirs).Error)

	app := newTestApp(1)
	resp, err := app.Test(httptest.NewRequest("GET", fmt.Sprintf("/api/categories/%d", theirs.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCategoriesWithStats(t *testing.T) {
	db := newTestDB(t)

	cat := models.Category{UserID: 1, Name: "Transport", Type: models.CategoryTypeExpense}
	empty := models.Category{UserID: 1, Name: "Travel", Type: models.CategoryTypeExpense}
	require.NoError(t, db.Create(&cat).Error)
	require.NoError(t, db.Create(&empty).Error)

	now := time.Now()
	require.NoError(t, db.Create(&models.Transaction{UserID: 1, AccountID: 1, CategoryID: cat.ID, Amount: -12.50, Date: now}).Error)
	require.NoError(t, db.Create(&models.Transaction{UserID: 1, AccountID: 1, CategoryID: cat.ID, Amount: -7.50, Date: now}).Error)

	app := newTestApp(1)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/categories/with-stats", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got []CategoryWithStatsResponse
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 2)

	assert.Equal(t, int64(2), got[0].TransactionCount)
	assert.Equal(t, -20.0, got[0].TotalAmount)
	assert.Equal(t, int64(0), got[1].TransactionCount)
	assert.Equal(t, 0.0, got[1].TotalAmount)
}

func TestCreateCategoryRejectsBadType(t *testing.T) {
	newTestDB(t)
	app := newTestApp(1)

	req := httptest.NewRequest("POST", "/api/categories",
		strings.NewReader(`{"name":"Stuff","type":"sideways"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
