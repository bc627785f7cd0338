package category

import (
	"fmt"
	"strings"

	"fintrack-backend/internal/audit"
	"fintrack-backend/internal/auth"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateCategoryRequest struct {
	Name  string              `json:"name"`
	Type  models.CategoryType `json:"type"`
	Icon  string              `json:"icon"`
	Color string              `json:"color"`
}

type UpdateCategoryRequest struct {
	Name  *string `json:"name"`
	Icon  *string `json:"icon"`
	Color *string `json:"color"`
}

type CategoryResponse struct {
	ID    uint                `json:"id"`
	Name  string              `json:"name"`
	Type  models.CategoryType `json:"type"`
	Icon  string              `json:"icon"`
	Color string              `json:"color"`
}

type CategoryWithStatsResponse struct {
	CategoryResponse
	TransactionCount int64   `json:"transactionCount"`
	TotalAmount      float64 `json:"totalAmount"`
}

func validateCreate(body CreateCategoryRequest) []string {
	var errs []string
	if strings.TrimSpace(body.Name) == "" {
		errs = append(errs, "name is required")
	}
	switch body.Type {
	case models.CategoryTypeExpense, models.CategoryTypeIncome:
	default:
		errs = append(errs, "type must be 'expense' or 'income'")
	}
	return errs
}

func findOwned(id string, userID uint) (*models.Category, error) {
	var cat models.Category
	if err := database.DB.First(&cat, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Category not found")
	}
	if cat.UserID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Category belongs to another user")
	}
	return &cat, nil
}

func toResponse(cat models.Category) CategoryResponse {
	return CategoryResponse{
		ID:    cat.ID,
		Name:  cat.Name,
		Type:  cat.Type,
		Icon:  cat.Icon,
		Color: cat.Color,
	}
}

// GET /api/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var cats []models.Category
		if err := database.DB.Where("user_id = ?", userID).Order("id asc").Find(&cats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list categories")
		}

		resp := make([]CategoryResponse, 0, len(cats))
		for _, cat := range cats {
			resp = append(resp, toResponse(cat))
		}
		return c.JSON(resp)
	}
}

// GET /api/categories/with-stats
func ListCategoriesWithStatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var cats []models.Category
		if err := database.DB.Where("user_id = ?", userID).Order("id asc").Find(&cats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list categories")
		}

		type row struct {
			CategoryID uint    `gorm:"column:category_id"`
			Count      int64   `gorm:"column:count"`
			Total      float64 `gorm:"column:total"`
		}
		var rows []row
		if err := database.DB.Model(&models.Transaction{}).
			Select("category_id, COUNT(*) as count, SUM(amount) as total").
			Where("user_id = ? AND is_recurring = ?", userID, false).
			Group("category_id").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute stats")
		}

		stats := make(map[uint]row, len(rows))
		for _, r := range rows {
			stats[r.CategoryID] = r
		}

		resp := make([]CategoryWithStatsResponse, 0, len(cats))
		for _, cat := range cats {
			s := stats[cat.ID]
			resp = append(resp, CategoryWithStatsResponse{
				CategoryResponse: toResponse(cat),
				TransactionCount: s.Count,
				TotalAmount:      s.Total,
			})
		}
		return c.JSON(resp)
	}
}

// GET /api/categories/:id
func GetCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		cat, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*cat))
	}
}

// POST /api/categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if errs := validateCreate(body); len(errs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, strings.Join(errs, "; "))
		}

		cat := models.Category{
			UserID: userID,
			Name:   strings.TrimSpace(body.Name),
			Type:   body.Type,
			Icon:   body.Icon,
			Color:  body.Color,
		}
		if err := database.DB.Create(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create category")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "category",
			EntityID:    cat.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Category created: %s", cat.Name),
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(cat))
	}
}

// PUT /api/categories/:id
// The type is fixed at creation: changing it would silently flip the sign
// convention of existing transactions.
func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		cat, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		var body UpdateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			cat.Name = name
		}
		if body.Icon != nil {
			cat.Icon = *body.Icon
		}
		if body.Color != nil {
			cat.Color = *body.Color
		}

		if err := database.DB.Save(cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update category")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "category",
			EntityID:    cat.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Category updated: %s", cat.Name),
		})

		return c.JSON(toResponse(*cat))
	}
}

// DELETE /api/categories/:id
// Restricted while transactions still reference the category.
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		cat, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		var count int64
		if err := database.DB.Model(&models.Transaction{}).
			Where("category_id = ?", cat.ID).
			Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check category usage")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "category is used by transactions and cannot be deleted")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("category_id = ?", cat.ID).
				Delete(&models.BudgetCategory{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Category{}, cat.ID).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete category")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "category",
			EntityID:    cat.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Category deleted: %s", cat.Name),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
