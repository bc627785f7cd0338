// Package reqctx holds the request-local keys and lookup helper shared by the
// auth middleware and the handlers that resolve the authenticated caller. It
// sits below both so neither has to import the other.
package reqctx

import (
	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey = "user_id"
	CtxEmailKey  = "user_email"
)

// CurrentUserID returns the authenticated user's id from the request locals.
// Every handler resolves the caller through this, never from ambient state.
func CurrentUserID(c *fiber.Ctx) (uint, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok || userID == 0 {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Could not resolve user from token")
	}
	return userID, nil
}
