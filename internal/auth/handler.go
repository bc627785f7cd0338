package auth

import (
	"log"
	"strings"
	"time"

	"fintrack-backend/internal/config"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"
	"fintrack-backend/internal/recurrence"
	"fintrack-backend/internal/seeding"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validateRegister(body RegisterRequest) []string {
	var errs []string
	if body.Email == "" {
		errs = append(errs, "email is required")
	} else if !strings.Contains(body.Email, "@") {
		errs = append(errs, "email is not valid")
	}
	if len(body.Password) < 6 {
		errs = append(errs, "password must be at least 6 characters")
	}
	if body.Password != body.PasswordConfirm {
		errs = append(errs, "passwords do not match")
	}
	return errs
}

// POST /api/auth/register
func RegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Username = strings.TrimSpace(body.Username)

		if errs := validateRegister(body); len(errs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, strings.Join(errs, "; "))
		}

		var count int64
		database.DB.Model(&models.User{}).Where("email = ?", body.Email).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "email is already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		username := body.Username
		if username == "" {
			username = strings.SplitN(body.Email, "@", 2)[0]
		}

		user := models.User{
			Username:     username,
			Email:        body.Email,
			PasswordHash: string(hash),
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create user")
		}

		if err := seeding.SeedUserDefaults(database.DB, user.ID); err != nil {
			log.Printf("default seeding failed for user %d: %v", user.ID, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not seed default data")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		})
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong email or password")
		}

		// Materialize overdue recurring transactions before the user sees
		// any data. Blocks the login response on purpose.
		if created, err := recurrence.CatchUp(database.DB, user.ID, time.Now()); err != nil {
			log.Printf("recurrence catch-up failed for user %d: %v", user.ID, err)
		} else if created > 0 {
			log.Printf("recurrence catch-up created %d transactions for user %d", created, user.ID)
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not generate token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":       user.ID,
				"username": user.Username,
				"email":    user.Email,
			},
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		return c.JSON(fiber.Map{
			"user_id":  user.ID,
			"username": user.Username,
			"email":    user.Email,
		})
	}
}
