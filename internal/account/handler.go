package account

import (
	"fmt"
	"math"
	"strings"

	"fintrack-backend/internal/audit"
	"fintrack-backend/internal/auth"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateAccountRequest struct {
	Name           string  `json:"name"`
	InitialBalance float64 `json:"initialBalance"`
	Icon           string  `json:"icon"`
	Color          string  `json:"color"`
}

type UpdateAccountRequest struct {
	Name           *string  `json:"name"`
	InitialBalance *float64 `json:"initialBalance"`
	Icon           *string  `json:"icon"`
	Color          *string  `json:"color"`
}

type AccountResponse struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	InitialBalance float64 `json:"initialBalance"`
	Balance        float64 `json:"balance"`
	Icon           string  `json:"icon"`
	Color          string  `json:"color"`
}

func validateCreate(body CreateAccountRequest) []string {
	var errs []string
	if strings.TrimSpace(body.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// findOwned loads an account by id, distinguishing absent (404) from owned by
// someone else (403).
func findOwned(id string, userID uint) (*models.Account, error) {
	var acc models.Account
	if err := database.DB.First(&acc, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Account not found")
	}
	if acc.UserID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Account belongs to another user")
	}
	return &acc, nil
}

func toResponse(acc models.Account, balance float64) AccountResponse {
	return AccountResponse{
		ID:             acc.ID,
		Name:           acc.Name,
		InitialBalance: acc.InitialBalance,
		Balance:        math.Round(balance*100) / 100,
		Icon:           acc.Icon,
		Color:          acc.Color,
	}
}

// GET /api/accounts
// Balance-augmented list: balance = initial balance + sum of the account's
// concrete (non-template) transaction amounts.
func ListAccountsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var accounts []models.Account
		if err := database.DB.Where("user_id = ?", userID).Order("id asc").Find(&accounts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list accounts")
		}

		type row struct {
			AccountID uint    `gorm:"column:account_id"`
			Total     float64 `gorm:"column:total"`
		}
		var rows []row
		if err := database.DB.Model(&models.Transaction{}).
			Select("account_id, SUM(amount) as total").
			Where("user_id = ? AND is_recurring = ?", userID, false).
			Group("account_id").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute balances")
		}

		sums := make(map[uint]float64, len(rows))
		for _, r := range rows {
			sums[r.AccountID] = r.Total
		}

		resp := make([]AccountResponse, 0, len(accounts))
		for _, acc := range accounts {
			resp = append(resp, toResponse(acc, acc.InitialBalance+sums[acc.ID]))
		}
		return c.JSON(resp)
	}
}

// GET /api/accounts/:id
func GetAccountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		acc, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		var total float64
		if err := database.DB.Model(&models.Transaction{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("account_id = ? AND is_recurring = ?", acc.ID, false).
			Scan(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute balance")
		}

		return c.JSON(toResponse(*acc, acc.InitialBalance+total))
	}
}

// POST /api/accounts
func CreateAccountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body CreateAccountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if errs := validateCreate(body); len(errs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, strings.Join(errs, "; "))
		}

		acc := models.Account{
			UserID:         userID,
			Name:           strings.TrimSpace(body.Name),
			InitialBalance: math.Round(body.InitialBalance*100) / 100,
			Icon:           body.Icon,
			Color:          body.Color,
		}
		if err := database.DB.Create(&acc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create account")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "account",
			EntityID:    acc.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Account created: %s", acc.Name),
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(acc, acc.InitialBalance))
	}
}

// PUT /api/accounts/:id
func UpdateAccountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		acc, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		var body UpdateAccountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			acc.Name = name
		}
		if body.InitialBalance != nil {
			acc.InitialBalance = math.Round(*body.InitialBalance*100) / 100
		}
		if body.Icon != nil {
			acc.Icon = *body.Icon
		}
		if body.Color != nil {
			acc.Color = *body.Color
		}

		if err := database.DB.Save(acc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update account")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "account",
			EntityID:    acc.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Account updated: %s", acc.Name),
		})

		var total float64
		database.DB.Model(&models.Transaction{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("account_id = ? AND is_recurring = ?", acc.ID, false).
			Scan(&total)

		return c.JSON(toResponse(*acc, acc.InitialBalance+total))
	}
}

// DELETE /api/accounts/:id
// Cascades to the account's transactions, their tag links and any budget
// joins referencing the account.
func DeleteAccountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		acc, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var txIDs []uint
			if err := tx.Model(&models.Transaction{}).
				Where("account_id = ?", acc.ID).
				Pluck("id", &txIDs).Error; err != nil {
				return err
			}
			if len(txIDs) > 0 {
				if err := tx.Where("transaction_id IN ?", txIDs).
					Delete(&models.TransactionTag{}).Error; err != nil {
					return err
				}
				if err := tx.Where("account_id = ?", acc.ID).
					Delete(&models.Transaction{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("account_id = ?", acc.ID).
				Delete(&models.BudgetAccount{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Account{}, acc.ID).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete account")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "account",
			EntityID:    acc.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Account deleted: %s", acc.Name),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
