package preference

import (
	"errors"

	"fintrack-backend/internal/auth"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpdatePreferenceRequest struct {
	DarkMode *bool `json:"darkMode"`
}

type PreferenceResponse struct {
	DarkMode bool `json:"darkMode"`
}

// load fetches the user's preference row, creating the default row when the
// user predates preference seeding.
func load(userID uint) (*models.UserPreference, error) {
	var pref models.UserPreference
	err := database.DB.First(&pref, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = models.UserPreference{UserID: userID, DarkMode: false}
		if err := database.DB.Create(&pref).Error; err != nil {
			return nil, err
		}
		return &pref, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// GET /api/userpreferences
func GetPreferencesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		pref, err := load(userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load preferences")
		}
		return c.JSON(PreferenceResponse{DarkMode: pref.DarkMode})
	}
}

// PUT /api/userpreferences
func UpdatePreferencesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body UpdatePreferenceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		pref, err := load(userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load preferences")
		}

		if body.DarkMode != nil {
			pref.DarkMode = *body.DarkMode
		}

		if err := database.DB.Save(pref).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update preferences")
		}
		return c.JSON(PreferenceResponse{DarkMode: pref.DarkMode})
	}
}

// POST /api/userpreferences/default
// Resets the row back to defaults.
func ResetPreferencesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		pref, err := load(userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load preferences")
		}

		pref.DarkMode = false
		if err := database.DB.Save(pref).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not reset preferences")
		}
		return c.JSON(PreferenceResponse{DarkMode: pref.DarkMode})
	}
}
