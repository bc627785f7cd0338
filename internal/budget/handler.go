package budget

import (
	"fmt"
	"math"
	"strings"
	"time"

	"fintrack-backend/internal/audit"
	"fintrack-backend/internal/auth"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateBudgetRequest struct {
	Name        string            `json:"name"`
	Type        models.BudgetType `json:"type"` // daily | weekly | monthly | yearly
	Amount      float64           `json:"amount"`
	Description string            `json:"description"`
	CategoryIDs []uint            `json:"categoryIds"`
	AccountIDs  []uint            `json:"accountIds"`
}

type UpdateBudgetRequest struct {
	Name        *string            `json:"name"`
	Type        *models.BudgetType `json:"type"`
	Amount      *float64           `json:"amount"`
	Description *string            `json:"description"`
	CategoryIDs *[]uint            `json:"categoryIds"`
	AccountIDs  *[]uint            `json:"accountIds"`
}

type BudgetResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Type        models.BudgetType `json:"type"`
	Amount      float64           `json:"amount"`
	Description string            `json:"description"`
	CategoryIDs []uint            `json:"categoryIds"`
	AccountIDs  []uint            `json:"accountIds"`
	Spent       float64           `json:"spent"`
	Progress    int               `json:"progress"`    // floored, capped at 100
	RawProgress int               `json:"rawProgress"` // uncapped, for color tiers
}

func validBudgetType(bt models.BudgetType) bool {
	switch bt {
	case models.BudgetTypeDaily, models.BudgetTypeWeekly, models.BudgetTypeMonthly, models.BudgetTypeYearly:
		return true
	}
	return false
}

func validateCreate(body CreateBudgetRequest) []string {
	var errs []string
	if strings.TrimSpace(body.Name) == "" {
		errs = append(errs, "name is required")
	}
	if !validBudgetType(body.Type) {
		errs = append(errs, "type must be one of daily, weekly, monthly, yearly")
	}
	if body.Amount < 0 {
		errs = append(errs, "amount must not be negative")
	}
	return errs
}

func findOwned(id string, userID uint) (*models.Budget, error) {
	var b models.Budget
	if err := database.DB.First(&b, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Budget not found")
	}
	if b.UserID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Budget belongs to another user")
	}
	return &b, nil
}

func checkOwnedCategories(ids []uint, userID uint) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := database.DB.Model(&models.Category{}).
		Where("id IN ? AND user_id = ?", ids, userID).
		Count(&count).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not check categories")
	}
	if count != int64(len(ids)) {
		return fiber.NewError(fiber.StatusBadRequest, "one or more categories not found")
	}
	return nil
}

func checkOwnedAccounts(ids []uint, userID uint) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := database.DB.Model(&models.Account{}).
		Where("id IN ? AND user_id = ?", ids, userID).
		Count(&count).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not check accounts")
	}
	if count != int64(len(ids)) {
		return fiber.NewError(fiber.StatusBadRequest, "one or more accounts not found")
	}
	return nil
}

func replaceJoins(tx *gorm.DB, budgetID uint, categoryIDs, accountIDs []uint) error {
	if err := tx.Where("budget_id = ?", budgetID).Delete(&models.BudgetCategory{}).Error; err != nil {
		return err
	}
	if err := tx.Where("budget_id = ?", budgetID).Delete(&models.BudgetAccount{}).Error; err != nil {
		return err
	}
	for _, cid := range categoryIDs {
		if err := tx.Create(&models.BudgetCategory{BudgetID: budgetID, CategoryID: cid}).Error; err != nil {
			return err
		}
	}
	for _, aid := range accountIDs {
		if err := tx.Create(&models.BudgetAccount{BudgetID: budgetID, AccountID: aid}).Error; err != nil {
			return err
		}
	}
	return nil
}

func loadJoins(budgetID uint) ([]uint, []uint, error) {
	var categoryIDs []uint
	if err := database.DB.Model(&models.BudgetCategory{}).
		Where("budget_id = ?", budgetID).
		Order("category_id asc").
		Pluck("category_id", &categoryIDs).Error; err != nil {
		return nil, nil, err
	}
	var accountIDs []uint
	if err := database.DB.Model(&models.BudgetAccount{}).
		Where("budget_id = ?", budgetID).
		Order("account_id asc").
		Pluck("account_id", &accountIDs).Error; err != nil {
		return nil, nil, err
	}
	return categoryIDs, accountIDs, nil
}

// spentInPeriod sums the user's expense spend for the budget's current
// period, restricted to the budget's category/account sets when non-empty.
func spentInPeriod(b models.Budget, categoryIDs, accountIDs []uint, now time.Time) (float64, error) {
	start, end := PeriodRange(b.Type, now)

	dbq := database.DB.Model(&models.Transaction{}).
		Where("user_id = ? AND is_recurring = ? AND amount < 0 AND date >= ? AND date < ?",
			b.UserID, false, start, end)
	if len(categoryIDs) > 0 {
		dbq = dbq.Where("category_id IN ?", categoryIDs)
	}
	if len(accountIDs) > 0 {
		dbq = dbq.Where("account_id IN ?", accountIDs)
	}

	var total float64
	if err := dbq.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return math.Round(-total*100) / 100, nil
}

func toResponse(b models.Budget, now time.Time) (BudgetResponse, error) {
	categoryIDs, accountIDs, err := loadJoins(b.ID)
	if err != nil {
		return BudgetResponse{}, err
	}
	spent, err := spentInPeriod(b, categoryIDs, accountIDs, now)
	if err != nil {
		return BudgetResponse{}, err
	}
	display, raw := Progress(spent, b.Amount)

	if categoryIDs == nil {
		categoryIDs = []uint{}
	}
	if accountIDs == nil {
		accountIDs = []uint{}
	}
	return BudgetResponse{
		ID:          b.ID,
		Name:        b.Name,
		Type:        b.Type,
		Amount:      b.Amount,
		Description: b.Description,
		CategoryIDs: categoryIDs,
		AccountIDs:  accountIDs,
		Spent:       spent,
		Progress:    display,
		RawProgress: raw,
	}, nil
}

// GET /api/budgets
func ListBudgetsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var budgets []models.Budget
		if err := database.DB.Where("user_id = ?", userID).Order("id asc").Find(&budgets).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list budgets")
		}

		now := time.Now()
		resp := make([]BudgetResponse, 0, len(budgets))
		for _, b := range budgets {
			r, err := toResponse(b, now)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not compute budget progress")
			}
			resp = append(resp, r)
		}
		return c.JSON(resp)
	}
}

// GET /api/budgets/:id
func GetBudgetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		b, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		r, err := toResponse(*b, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute budget progress")
		}
		return c.JSON(r)
	}
}

// POST /api/budgets
func CreateBudgetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body CreateBudgetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if errs := validateCreate(body); len(errs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, strings.Join(errs, "; "))
		}
		if err := checkOwnedCategories(body.CategoryIDs, userID); err != nil {
			return err
		}
		if err := checkOwnedAccounts(body.AccountIDs, userID); err != nil {
			return err
		}

		b := models.Budget{
			UserID:      userID,
			Name:        strings.TrimSpace(body.Name),
			Type:        body.Type,
			Amount:      math.Round(body.Amount*100) / 100,
			Description: body.Description,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&b).Error; err != nil {
				return err
			}
			return replaceJoins(tx, b.ID, body.CategoryIDs, body.AccountIDs)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create budget")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "budget",
			EntityID:    b.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Budget created: %s", b.Name),
		})

		r, err := toResponse(b, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute budget progress")
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// PUT /api/budgets/:id
func UpdateBudgetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		b, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		var body UpdateBudgetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			b.Name = name
		}
		if body.Type != nil {
			if !validBudgetType(*body.Type) {
				return fiber.NewError(fiber.StatusBadRequest, "type must be one of daily, weekly, monthly, yearly")
			}
			b.Type = *body.Type
		}
		if body.Amount != nil {
			if *body.Amount < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
			}
			b.Amount = math.Round(*body.Amount*100) / 100
		}
		if body.Description != nil {
			b.Description = *body.Description
		}
		if body.CategoryIDs != nil {
			if err := checkOwnedCategories(*body.CategoryIDs, userID); err != nil {
				return err
			}
		}
		if body.AccountIDs != nil {
			if err := checkOwnedAccounts(*body.AccountIDs, userID); err != nil {
				return err
			}
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(b).Error; err != nil {
				return err
			}
			if body.CategoryIDs == nil && body.AccountIDs == nil {
				return nil
			}
			categoryIDs, accountIDs, err := loadJoins(b.ID)
			if err != nil {
				return err
			}
			if body.CategoryIDs != nil {
				categoryIDs = *body.CategoryIDs
			}
			if body.AccountIDs != nil {
				accountIDs = *body.AccountIDs
			}
			return replaceJoins(tx, b.ID, categoryIDs, accountIDs)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update budget")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "budget",
			EntityID:    b.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Budget updated: %s", b.Name),
		})

		r, err := toResponse(*b, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute budget progress")
		}
		return c.JSON(r)
	}
}

// DELETE /api/budgets/:id
// Join rows cascade with the budget.
func DeleteBudgetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		b, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("budget_id = ?", b.ID).Delete(&models.BudgetCategory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("budget_id = ?", b.ID).Delete(&models.BudgetAccount{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Budget{}, b.ID).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete budget")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "budget",
			EntityID:    b.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Budget deleted: %s", b.Name),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
