package main

import (
	"log"
	"strings"
	"time"

	"fintrack-backend/internal/account"
	"fintrack-backend/internal/audit"
	"fintrack-backend/internal/auth"
	"fintrack-backend/internal/budget"
	"fintrack-backend/internal/category"
	"fintrack-backend/internal/config"
	"fintrack-backend/internal/dashboard"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/preference"
	"fintrack-backend/internal/seeding"
	"fintrack-backend/internal/tag"
	"fintrack-backend/internal/transaction"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	// Slow-request warning: anything over 500ms gets logged.
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if d := time.Since(start); d > 500*time.Millisecond {
			log.Printf("[WARN] slow request: %s %s took %s", c.Method(), c.Path(), d)
		}
		return err
	})

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Accounts
	protected.Get("/accounts", account.ListAccountsHandler())
	protected.Get("/accounts/:id", account.GetAccountHandler())
	protected.Post("/accounts", account.CreateAccountHandler())
	protected.Put("/accounts/:id", account.UpdateAccountHandler())
	protected.Delete("/accounts/:id", account.DeleteAccountHandler())

	// Categories
	protected.Get("/categories", category.ListCategoriesHandler())
	protected.Get("/categories/with-stats", category.ListCategoriesWithStatsHandler())
	protected.Get("/categories/:id", category.GetCategoryHandler())
	protected.Post("/categories", category.CreateCategoryHandler())
	protected.Put("/categories/:id", category.UpdateCategoryHandler())
	protected.Delete("/categories/:id", category.DeleteCategoryHandler())

	// Tags
	protected.Get("/tags", tag.ListTagsHandler())
	protected.Get("/tags/:id", tag.GetTagHandler())
	protected.Post("/tags", tag.CreateTagHandler())
	protected.Put("/tags/:id", tag.UpdateTagHandler())
	protected.Delete("/tags/:id", tag.DeleteTagHandler())

	// Transactions
	protected.Get("/transactions", transaction.ListTransactionsHandler())
	protected.Post("/transactions/search", transaction.SearchTransactionsHandler())
	protected.Get("/transactions/:id", transaction.GetTransactionHandler())
	protected.Post("/transactions", transaction.CreateTransactionHandler())
	protected.Put("/transactions/:id", transaction.UpdateTransactionHandler())
	protected.Delete("/transactions/:id", transaction.DeleteTransactionHandler())

	// Budgets
	protected.Get("/budgets", budget.ListBudgetsHandler())
	protected.Get("/budgets/:id", budget.GetBudgetHandler())
	protected.Post("/budgets", budget.CreateBudgetHandler())
	protected.Put("/budgets/:id", budget.UpdateBudgetHandler())
	protected.Delete("/budgets/:id", budget.DeleteBudgetHandler())

	// Dashboard
	protected.Get("/dashboard", dashboard.SummaryHandler())

	// Preferences
	protected.Get("/userpreferences", preference.GetPreferencesHandler())
	protected.Put("/userpreferences", preference.UpdatePreferencesHandler())
	protected.Post("/userpreferences/default", preference.ResetPreferencesHandler())

	// Demo data
	protected.Post("/dataseeding", seeding.DataSeedingHandler())

	// Activity trail
	protected.Get("/auditlogs", audit.ListAuditLogsHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
