package audit

import (
	"fintrack-backend/internal/auth"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
}

// GET /api/auditlogs?entityType=transaction&limit=50
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		dbq := database.DB.Model(&models.AuditLog{}).Where("user_id = ?", userID)
		if et := c.Query("entityType"); et != "" {
			dbq = dbq.Where("entity_type = ?", et)
		}

		var rows []models.AuditLog
		if err := dbq.Order("id desc").Limit(limit).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, AuditLogResponse{
				ID:          r.ID,
				CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
				EntityType:  r.EntityType,
				EntityID:    r.EntityID,
				Action:      r.Action,
				Description: r.Description,
			})
		}

		return c.JSON(resp)
	}
}
