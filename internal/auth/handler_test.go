package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack-backend/internal/config"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
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

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret-test-secret-test-secret-1234"}
}

func newTestApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Post("/api/auth/register", RegisterHandler(cfg))
	app.Post("/api/auth/login", LoginHandler(cfg))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) (int, []byte) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func TestRegisterSeedsDefaultCatalog(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(testConfig())

	status, body := postJSON(t, app, "/api/auth/register", RegisterRequest{
		Email: "ada@example.com", Password: "secret1", PasswordConfirm: "secret1",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "ada@example.com").Error)
	assert.Equal(t, "ada", user.Username)

	var catCount, accCount, prefCount int64
	db.Model(&models.Category{}).Where("user_id = ?", user.ID).Count(&catCount)
	db.Model(&models.Account{}).Where("user_id = ?", user.ID).Count(&accCount)
	db.Model(&models.UserPreference{}).Where("user_id = ?", user.ID).Count(&prefCount)
	assert.Equal(t, int64(13), catCount)
	assert.Equal(t, int64(2), accCount)
	assert.Equal(t, int64(1), prefCount)
}

func TestRegisterReportsAllViolations(t *testing.T) {
	newTestDB(t)
	app := newTestApp(testConfig())

	status, body := postJSON(t, app, "/api/auth/register", RegisterRequest{
		Email: "not-an-email", Password: "abc", PasswordConfirm: "def",
	})
	require.Equal(t, fiber.StatusBadRequest, status)

	msg := string(body)
	assert.Contains(t, msg, "email is not valid")
	assert.Contains(t, msg, "at least 6 characters")
	assert.Contains(t, msg, "do not match")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	newTestDB(t)
	app := newTestApp(testConfig())

	status, _ := postJSON(t, app, "/api/auth/register", RegisterRequest{
		Email: "dup@example.com", Password: "secret1", PasswordConfirm: "secret1",
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, body := postJSON(t, app, "/api/auth/register", RegisterRequest{
		Email: "dup@example.com", Password: "secret1", PasswordConfirm: "secret1",
	})
	assert.Equal(t, fiber.StatusBadRequest, status, string(body))
}

func TestLoginReturnsTokenAndRunsCatchUp(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(testConfig())

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := models.User{Username: "ada", Email: "ada@example.com", PasswordHash: string(hash)}
	require.NoError(t, db.Create(&user).Error)

	// An overdue recurring template: login must materialize it.
	freq := models.FrequencyMonthly
	overdue := time.Now().AddDate(0, 0, -1)
	require.NoError(t, db.Create(&models.Transaction{
		UserID: user.ID, AccountID: 1, CategoryID: 1, Amount: -9.99,
		Date: overdue.AddDate(0, -1, 0), IsRecurring: true,
		Frequency: &freq, NextOccurrence: &overdue,
	}).Error)

	status, body := postJSON(t, app, "/api/auth/login", LoginRequest{
		Email: "ada@example.com", Password: "secret1",
	})
	require.Equal(t, fiber.StatusOK, status, string(body))

	var got struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.NotEmpty(t, got.Token)

	var concrete int64
	db.Model(&models.Transaction{}).
		Where("user_id = ? AND is_recurring = ?", user.ID, false).
		Count(&concrete)
	assert.Equal(t, int64(1), concrete)
}

func TestLoginWrongPassword(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(testConfig())

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Username: "ada", Email: "ada@example.com", PasswordHash: string(hash),
	}).Error)

	status, _ := postJSON(t, app, "/api/auth/login", LoginRequest{
		Email: "ada@example.com", Password: "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
