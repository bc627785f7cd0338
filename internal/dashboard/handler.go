package dashboard

import (
	"time"

	"fintrack-backend/internal/auth"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard?monthsBehindToConsider=5&maxCategoriesToShow=6
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		monthsBehind := c.QueryInt("monthsBehindToConsider", 5)
		if monthsBehind < 0 || monthsBehind > 120 {
			return fiber.NewError(fiber.StatusBadRequest, "monthsBehindToConsider must be between 0 and 120")
		}
		maxCategories := c.QueryInt("maxCategoriesToShow", 6)
		if maxCategories <= 0 || maxCategories > 50 {
			return fiber.NewError(fiber.StatusBadRequest, "maxCategoriesToShow must be between 1 and 50")
		}

		var accounts []models.Account
		if err := database.DB.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load accounts")
		}

		// Templates never count toward balances or charts.
		var transactions []models.Transaction
		if err := database.DB.
			Where("user_id = ? AND is_recurring = ?", userID, false).
			Order("id asc").
			Find(&transactions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load transactions")
		}

		var cats []models.Category
		if err := database.DB.Where("user_id = ?", userID).Find(&cats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load categories")
		}
		catMap := make(map[uint]models.Category, len(cats))
		for _, cat := range cats {
			catMap[cat.ID] = cat
		}

		summary := BuildSummary(accounts, transactions, catMap, time.Now(), monthsBehind, maxCategories)
		return c.JSON(summary)
	}
}
