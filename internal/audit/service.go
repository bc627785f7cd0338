package audit

import (
	"log"

	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"
)

type LogOptions struct {
	UserID      uint
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
}

// Write appends an entry to the user's activity trail. Failures are logged
// and swallowed: the trail must never fail the request that produced it.
func Write(opts LogOptions) {
	entry := models.AuditLog{
		UserID:      opts.UserID,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		log.Printf("audit log write failed: %v", err)
	}
}
