package tag

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

type CreateTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type UpdateTagRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func findOwned(id string, userID uint) (*models.Tag, error) {
	var t models.Tag
	if err := database.DB.First(&t, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Tag not found")
	}
	if t.UserID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Tag belongs to another user")
	}
	return &t, nil
}

func toResponse(t models.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, Color: t.Color}
}

// GET /api/tags
func ListTagsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var tags []models.Tag
		if err := database.DB.Where("user_id = ?", userID).Order("name asc").Find(&tags).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list tags")
		}

		resp := make([]TagResponse, 0, len(tags))
		for _, t := range tags {
			resp = append(resp, toResponse(t))
		}
		return c.JSON(resp)
	}
}

// GET /api/tags/:id
func GetTagHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		t, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(*t))
	}
}

// POST /api/tags
func CreateTagHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body CreateTagRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		t := models.Tag{UserID: userID, Name: body.Name, Color: body.Color}
		if err := database.DB.Create(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create tag")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "tag",
			EntityID:    t.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Tag created: %s", t.Name),
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(t))
	}
}

// PUT /api/tags/:id
func UpdateTagHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		t, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		var body UpdateTagRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			t.Name = name
		}
		if body.Color != nil {
			t.Color = *body.Color
		}

		if err := database.DB.Save(t).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update tag")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "tag",
			EntityID:    t.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Tag updated: %s", t.Name),
		})

		return c.JSON(toResponse(*t))
	}
}

// DELETE /api/tags/:id
// Clears transaction links before removing the tag.
func DeleteTagHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		t, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("tag_id = ?", t.ID).Delete(&models.TransactionTag{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Tag{}, t.ID).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete tag")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "tag",
			EntityID:    t.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Tag deleted: %s", t.Name),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
