package seeding

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"
	"fintrack-backend/internal/reqctx"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DataSeedingRequest struct {
	TransactionCount      int     `json:"transactionCount"`
	MinAmount             float64 `json:"minAmount"`
	MaxAmount             float64 `json:"maxAmount"`
	StartDate             string  `json:"startDate"` // "2025-01-01"
	EndDate               string  `json:"endDate"`
	MaxTagsPerTransaction int     `json:"maxTagsPerTransaction"`
}

type DataSeedingResponse struct {
	TransactionsCreated int `json:"transactionsCreated"`
}

func validateDataSeeding(body DataSeedingRequest, start, end time.Time, startErr, endErr error) []string {
	var errs []string
	if body.TransactionCount <= 0 || body.TransactionCount >= 10000 {
		errs = append(errs, "transactionCount must be between 1 and 9999")
	}
	if body.MinAmount >= body.MaxAmount {
		errs = append(errs, "minAmount must be less than maxAmount")
	}
	if body.MinAmount < 0 {
		errs = append(errs, "minAmount must not be negative")
	}
	if startErr != nil {
		errs = append(errs, "startDate must be 'YYYY-MM-DD'")
	}
	if endErr != nil {
		errs = append(errs, "endDate must be 'YYYY-MM-DD'")
	}
	if startErr == nil && endErr == nil && !start.Before(end) {
		errs = append(errs, "startDate must be before endDate")
	}
	if body.MaxTagsPerTransaction < 0 || body.MaxTagsPerTransaction > 10 {
		errs = append(errs, "maxTagsPerTransaction must be between 0 and 10")
	}
	return errs
}

// POST /api/dataseeding
// Generates synthetic transactions for demos and testing.
func DataSeedingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := reqctx.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body DataSeedingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		start, startErr := time.Parse("2006-01-02", body.StartDate)
		end, endErr := time.Parse("2006-01-02", body.EndDate)

		if errs := validateDataSeeding(body, start, end, startErr, endErr); len(errs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, strings.Join(errs, "; "))
		}

		var accounts []models.Account
		if err := database.DB.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load accounts")
		}
		var categories []models.Category
		if err := database.DB.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load categories")
		}
		if len(accounts) == 0 || len(categories) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "at least one account and one category are required")
		}
		var tags []models.Tag
		if err := database.DB.Where("user_id = ?", userID).Find(&tags).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load tags")
		}

		dayRange := int(end.Sub(start).Hours() / 24)
		createdCount := 0

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for i := 0; i < body.TransactionCount; i++ {
				account := accounts[rand.Intn(len(accounts))]
				category := categories[rand.Intn(len(categories))]

				amount := gofakeit.Float64Range(body.MinAmount, body.MaxAmount)
				amount = math.Round(amount*100) / 100
				if category.Type == models.CategoryTypeExpense {
					amount = -amount
				}

				t := models.Transaction{
					UserID:      userID,
					AccountID:   account.ID,
					CategoryID:  category.ID,
					Amount:      amount,
					Description: gofakeit.Sentence(4),
					Date:        start.AddDate(0, 0, rand.Intn(dayRange+1)),
				}
				if err := tx.Create(&t).Error; err != nil {
					return err
				}

				if body.MaxTagsPerTransaction > 0 && len(tags) > 0 {
					n := rand.Intn(body.MaxTagsPerTransaction + 1)
					if n > len(tags) {
						n = len(tags)
					}
					for _, idx := range rand.Perm(len(tags))[:n] {
						link := models.TransactionTag{TransactionID: t.ID, TagID: tags[idx].ID}
						if err := tx.Create(&link).Error; err != nil {
							return err
						}
					}
				}

				createdCount++
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not generate transactions")
		}

		return c.JSON(DataSeedingResponse{TransactionsCreated: createdCount})
	}
}
