package transaction

import (
	"fmt"
	"math"
	"strings"
	"time"

	"fintrack-backend/internal/audit"
	"fintrack-backend/internal/auth"
	"fintrack-backend/internal/database"
	"fintrack-backend/internal/models"
	"fintrack-backend/internal/recurrence"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateTransactionRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"` // "2025-12-09"
	AccountID   uint    `json:"accountId"`
	CategoryID  uint    `json:"categoryId"`
	TagIDs      []uint  `json:"tagIds"`

	IsRecurring    bool    `json:"isRecurring"`
	Frequency      *string `json:"frequency"` // daily | weekly | monthly | yearly
	NextOccurrence *string `json:"nextOccurrence"`
}

type UpdateTransactionRequest struct {
	Amount      *float64 `json:"amount"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
	AccountID   *uint    `json:"accountId"`
	CategoryID  *uint    `json:"categoryId"`
	TagIDs      *[]uint  `json:"tagIds"`

	IsRecurring    *bool   `json:"isRecurring"`
	Frequency      *string `json:"frequency"`
	NextOccurrence *string `json:"nextOccurrence"`
}

type TagRef struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type TransactionResponse struct {
	ID          uint     `json:"id"`
	Amount      float64  `json:"amount"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	AccountID   uint     `json:"accountId"`
	Account     string   `json:"account"`
	CategoryID  uint     `json:"categoryId"`
	Category    string   `json:"category"`
	Tags        []TagRef `json:"tags"`

	IsRecurring    bool    `json:"isRecurring"`
	Frequency      *string `json:"frequency"`
	NextOccurrence *string `json:"nextOccurrence"`
}

type SearchTransactionsRequest struct {
	Page           int     `json:"page"`
	PageSize       int     `json:"pageSize"`
	SortBy         string  `json:"sortBy"` // date | amount | description | id
	SortDescending bool    `json:"sortDescending"`
	AccountID      *uint   `json:"accountId"`
	CategoryID     *uint   `json:"categoryId"`
	TagID          *uint   `json:"tagId"`
	From           *string `json:"from"`
	To             *string `json:"to"`
	Search         string  `json:"search"`
}

type SearchTransactionsResponse struct {
	Items      []TransactionResponse `json:"items"`
	TotalCount int64                 `json:"totalCount"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
}

func findOwned(id string, userID uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := database.DB.Preload("Account").Preload("Category").
		First(&t, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Transaction not found")
	}
	if t.UserID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Transaction belongs to another user")
	}
	return &t, nil
}

// resolveAccount checks that the referenced account exists and is the
// caller's. Referencing a foreign row is a 403, same as direct access.
func resolveAccount(id, userID uint) (*models.Account, error) {
	var acc models.Account
	if err := database.DB.First(&acc, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "account not found")
	}
	if acc.UserID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Account belongs to another user")
	}
	return &acc, nil
}

func resolveCategory(id, userID uint) (*models.Category, error) {
	var cat models.Category
	if err := database.DB.First(&cat, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "category not found")
	}
	if cat.UserID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "Category belongs to another user")
	}
	return &cat, nil
}

func resolveTags(ids []uint, userID uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := database.DB.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load tags")
	}
	if len(tags) != len(ids) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "one or more tags not found")
	}
	for _, t := range tags {
		if t.UserID != userID {
			return nil, fiber.NewError(fiber.StatusForbidden, "Tag belongs to another user")
		}
	}
	return tags, nil
}

// normalizeAmount derives the stored sign from the category type and rounds
// to two fractional digits.
func normalizeAmount(amount float64, catType models.CategoryType) float64 {
	amount = math.Round(math.Abs(amount)*100) / 100
	if catType == models.CategoryTypeExpense {
		return -amount
	}
	return amount
}

func parseFrequency(s string) (models.Frequency, bool) {
	switch models.Frequency(s) {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyYearly:
		return models.Frequency(s), true
	}
	return "", false
}

func toResponse(t models.Transaction, tags []models.Tag) TransactionResponse {
	resp := TransactionResponse{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date.Format("2006-01-02"),
		AccountID:   t.AccountID,
		Account:     t.Account.Name,
		CategoryID:  t.CategoryID,
		Category:    t.Category.Name,
		Tags:        make([]TagRef, 0, len(tags)),
		IsRecurring: t.IsRecurring,
	}
	if t.Frequency != nil {
		f := string(*t.Frequency)
		resp.Frequency = &f
	}
	if t.NextOccurrence != nil {
		n := t.NextOccurrence.Format("2006-01-02")
		resp.NextOccurrence = &n
	}
	for _, tag := range tags {
		resp.Tags = append(resp.Tags, TagRef{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}
	return resp
}

func loadTags(transactionID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := database.DB.
		Joins("JOIN transaction_tags ON transaction_tags.tag_id = tags.id").
		Where("transaction_tags.transaction_id = ?", transactionID).
		Order("tags.id asc").
		Find(&tags).Error
	return tags, err
}

// loadTagsBulk fetches tags for many transactions in one query.
func loadTagsBulk(ids []uint) (map[uint][]models.Tag, error) {
	result := make(map[uint][]models.Tag)
	if len(ids) == 0 {
		return result, nil
	}

	var links []models.TransactionTag
	if err := database.DB.Where("transaction_id IN ?", ids).Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return result, nil
	}

	tagIDs := make([]uint, 0, len(links))
	for _, l := range links {
		tagIDs = append(tagIDs, l.TagID)
	}
	var tags []models.Tag
	if err := database.DB.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Tag, len(tags))
	for _, t := range tags {
		byID[t.ID] = t
	}
	for _, l := range links {
		if t, ok := byID[l.TagID]; ok {
			result[l.TransactionID] = append(result[l.TransactionID], t)
		}
	}
	return result, nil
}

// GET /api/transactions?from=...&to=...&account_id=...&category_id=...
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Transaction{}).
			Preload("Account").Preload("Category").
			Where("user_id = ?", userID)

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from must be 'YYYY-MM-DD'")
			}
			dbq = dbq.Where("date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to must be 'YYYY-MM-DD'")
			}
			dbq = dbq.Where("date <= ?", to)
		}
		if aid := c.QueryInt("account_id"); aid > 0 {
			dbq = dbq.Where("account_id = ?", aid)
		}
		if cid := c.QueryInt("category_id"); cid > 0 {
			dbq = dbq.Where("category_id = ?", cid)
		}

		var rows []models.Transaction
		if err := dbq.Order("date desc, id desc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list transactions")
		}

		ids := make([]uint, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		tagMap, err := loadTagsBulk(ids)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load tags")
		}

		resp := make([]TransactionResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toResponse(r, tagMap[r.ID]))
		}
		return c.JSON(resp)
	}
}

// POST /api/transactions/search
// Grid-style paged search with filtering and sorting.
func SearchTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body SearchTransactionsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Page <= 0 {
			body.Page = 1
		}
		if body.PageSize <= 0 || body.PageSize > 200 {
			body.PageSize = 20
		}

		sortColumn := "date"
		switch body.SortBy {
		case "", "date":
			sortColumn = "date"
		case "amount":
			sortColumn = "amount"
		case "description":
			sortColumn = "description"
		case "id":
			sortColumn = "id"
		default:
			return fiber.NewError(fiber.StatusBadRequest, "sortBy must be one of date, amount, description, id")
		}
		direction := "asc"
		if body.SortDescending {
			direction = "desc"
		}

		dbq := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)

		if body.AccountID != nil {
			dbq = dbq.Where("account_id = ?", *body.AccountID)
		}
		if body.CategoryID != nil {
			dbq = dbq.Where("category_id = ?", *body.CategoryID)
		}
		if body.TagID != nil {
			dbq = dbq.Where("id IN (?)", database.DB.Model(&models.TransactionTag{}).
				Select("transaction_id").Where("tag_id = ?", *body.TagID))
		}
		if body.From != nil && *body.From != "" {
			from, err := time.Parse("2006-01-02", *body.From)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from must be 'YYYY-MM-DD'")
			}
			dbq = dbq.Where("date >= ?", from)
		}
		if body.To != nil && *body.To != "" {
			to, err := time.Parse("2006-01-02", *body.To)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to must be 'YYYY-MM-DD'")
			}
			dbq = dbq.Where("date <= ?", to)
		}
		if s := strings.TrimSpace(body.Search); s != "" {
			dbq = dbq.Where("description LIKE ?", "%"+s+"%")
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not count transactions")
		}

		var rows []models.Transaction
		if err := dbq.Preload("Account").Preload("Category").
			Order(fmt.Sprintf("%s %s, id %s", sortColumn, direction, direction)).
			Offset((body.Page - 1) * body.PageSize).
			Limit(body.PageSize).
			Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not search transactions")
		}

		ids := make([]uint, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		tagMap, err := loadTagsBulk(ids)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load tags")
		}

		items := make([]TransactionResponse, 0, len(rows))
		for _, r := range rows {
			items = append(items, toResponse(r, tagMap[r.ID]))
		}

		return c.JSON(SearchTransactionsResponse{
			Items:      items,
			TotalCount: total,
			Page:       body.Page,
			PageSize:   body.PageSize,
		})
	}
}

// GET /api/transactions/:id
func GetTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		t, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		tags, err := loadTags(t.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load tags")
		}
		return c.JSON(toResponse(*t, tags))
	}
}

// POST /api/transactions
func CreateTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body CreateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var errs []string
		if body.Amount == 0 {
			errs = append(errs, "amount must not be zero")
		}
		if body.AccountID == 0 {
			errs = append(errs, "accountId is required")
		}
		if body.CategoryID == 0 {
			errs = append(errs, "categoryId is required")
		}
		date, dateErr := time.Parse("2006-01-02", body.Date)
		if dateErr != nil {
			errs = append(errs, "date must be 'YYYY-MM-DD'")
		}
		var freq models.Frequency
		if body.IsRecurring {
			if body.Frequency == nil {
				errs = append(errs, "frequency is required for recurring transactions")
			} else {
				var ok bool
				if freq, ok = parseFrequency(*body.Frequency); !ok {
					errs = append(errs, "frequency must be one of daily, weekly, monthly, yearly")
				}
			}
		}
		if len(errs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, strings.Join(errs, "; "))
		}

		acc, err := resolveAccount(body.AccountID, userID)
		if err != nil {
			return err
		}
		cat, err := resolveCategory(body.CategoryID, userID)
		if err != nil {
			return err
		}
		tags, err := resolveTags(body.TagIDs, userID)
		if err != nil {
			return err
		}

		t := models.Transaction{
			UserID:      userID,
			AccountID:   acc.ID,
			CategoryID:  cat.ID,
			Amount:      normalizeAmount(body.Amount, cat.Type),
			Description: body.Description,
			Date:        date,
			IsRecurring: body.IsRecurring,
		}
		if body.IsRecurring {
			t.Frequency = &freq
			next := recurrence.Advance(date, freq)
			if body.NextOccurrence != nil && *body.NextOccurrence != "" {
				parsed, err := time.Parse("2006-01-02", *body.NextOccurrence)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "nextOccurrence must be 'YYYY-MM-DD'")
				}
				next = parsed
			}
			t.NextOccurrence = &next
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&t).Error; err != nil {
				return err
			}
			for _, tag := range tags {
				link := models.TransactionTag{TransactionID: t.ID, TagID: tag.ID}
				if err := tx.Create(&link).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create transaction")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "transaction",
			EntityID:    t.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Transaction created: %s %.2f", cat.Name, t.Amount),
		})

		t.Account = *acc
		t.Category = *cat
		return c.Status(fiber.StatusCreated).JSON(toResponse(t, tags))
	}
}

// PUT /api/transactions/:id
func UpdateTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		t, err := findOwned(c.Params("id"), userID)
		if err != nil {
			return err
		}

		var body UpdateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.AccountID != nil {
			acc, err := resolveAccount(*body.AccountID, userID)
			if err != nil {
				return err
			}
			t.AccountID = acc.ID
			t.Account = *acc
		}
		if body.CategoryID != nil {
			cat, err := resolveCategory(*body.CategoryID, userID)
			if err != nil {
				return err
			}
			t.CategoryID = cat.ID
			t.Category = *cat
		}
		if body.Amount != nil {
			t.Amount = *body.Amount
		}
		// Re-derive the sign: either the amount or the category may have changed.
		t.Amount = normalizeAmount(t.Amount, t.Category.Type)

		if body.Description != nil {
			t.Description = *body.Description
		}
		if body.Date != nil {
			date, err := time.Parse("2006-01-02", *body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
			}
			t.Date = date
		}

		if body.IsRecurring != nil {
			t.IsRecurring = *body.IsRecurring
		}
		if body.Frequency != nil {
			freq, ok := parseFrequency(*body.Frequency)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "frequency must be one of daily, weekly, monthly, yearly")
			}
			t.Frequency = &freq
		}
		if body.NextOccurrence != nil {
			next, err := time.Parse("2006-01-02", *body.NextOccurrence)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "nextOccurrence must be 'YYYY-MM-DD'")
			}
			t.NextOccurrence = &next
		}
		if t.IsRecurring {
			if t.Frequency == nil {
				return fiber.NewError(fiber.StatusBadRequest, "frequency is required for recurring transactions")
			}
			if t.NextOccurrence == nil {
				next := recurrence.Advance(t.Date, *t.Frequency)
				t.NextOccurrence = &next
			}
		} else {
			t.Frequency = nil
			t.NextOccurrence = nil
		}

		var tags []models.Tag
		if body.TagIDs != nil {
			tags, err = resolveTags(*body.TagIDs, userID)
			if err != nil {
				return err
			}
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(t).Error; err != nil {
				return err
			}
			if body.TagIDs == nil {
				return nil
			}
			if err := tx.Where("transaction_id = ?", t.ID).
				Delete(&models.TransactionTag{}).Error; err != nil {
				return err
			}
			for _, tag := range tags {
				link := models.TransactionTag{TransactionID: t.ID, TagID: tag.ID}
				if err := tx.Create(&link).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update transaction")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "transaction",
			EntityID:    t.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Transaction updated: %.2f", t.Amount),
		})

		if body.TagIDs == nil {
			tags, err = loadTags(t.ID)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not load tags")
			}
		}
		return c.JSON(toResponse(*t, tags))
	}
}

// DELETE /api/transactions/:id
func DeleteTransactionHandler() fiber.Handler {
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
			if err := tx.Where("transaction_id = ?", t.ID).
				Delete(&models.TransactionTag{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Transaction{}, t.ID).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete transaction")
		}

		audit.Write(audit.LogOptions{
			UserID:      userID,
			EntityType:  "transaction",
			EntityID:    t.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Transaction deleted: %.2f", t.Amount),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
