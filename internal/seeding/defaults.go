package seeding

import (
	"fintrack-backend/internal/models"

	"gorm.io/gorm"
)

type defaultCategory struct {
	Name  string
	Type  models.CategoryType
	Icon  string
	Color string
}

// The fixed catalog every new user starts with: 12 expense categories plus
// one income category, and two zero-balance accounts.
var defaultCategories = []defaultCategory{
	{"Groceries", models.CategoryTypeExpense, "shopping-cart", "#4caf50"},
	{"Restaurant", models.CategoryTypeExpense, "utensils", "#ff9800"},
	{"Transport", models.CategoryTypeExpense, "bus", "#2196f3"},
	{"Rent", models.CategoryTypeExpense, "home", "#9c27b0"},
	{"Utilities", models.CategoryTypeExpense, "bolt", "#ffc107"},
	{"Entertainment", models.CategoryTypeExpense, "film", "#e91e63"},
	{"Health", models.CategoryTypeExpense, "heartbeat", "#f44336"},
	{"Clothing", models.CategoryTypeExpense, "tshirt", "#795548"},
	{"Travel", models.CategoryTypeExpense, "plane", "#00bcd4"},
	{"Education", models.CategoryTypeExpense, "graduation-cap", "#3f51b5"},
	{"Gifts", models.CategoryTypeExpense, "gift", "#8bc34a"},
	{"Miscellaneous", models.CategoryTypeExpense, "ellipsis-h", "#607d8b"},
	{"Salary", models.CategoryTypeIncome, "money-bill", "#009688"},
}

var defaultAccounts = []struct {
	Name  string
	Icon  string
	Color string
}{
	{"Cash", "wallet", "#4caf50"},
	{"Bank", "university", "#2196f3"},
}

// SeedUserDefaults populates the default catalog for a freshly registered
// user: categories, accounts and an empty preference row.
func SeedUserDefaults(db *gorm.DB, userID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, dc := range defaultCategories {
			cat := models.Category{
				UserID: userID,
				Name:   dc.Name,
				Type:   dc.Type,
				Icon:   dc.Icon,
				Color:  dc.Color,
			}
			if err := tx.Create(&cat).Error; err != nil {
				return err
			}
		}

		for _, da := range defaultAccounts {
			acc := models.Account{
				UserID:         userID,
				Name:           da.Name,
				InitialBalance: 0,
				Icon:           da.Icon,
				Color:          da.Color,
			}
			if err := tx.Create(&acc).Error; err != nil {
				return err
			}
		}

		pref := models.UserPreference{UserID: userID, DarkMode: false}
		return tx.Create(&pref).Error
	})
}
