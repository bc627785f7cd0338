package dashboard

import (
	"testing"
	"time"

	"fintrack-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func expense(categoryID uint, amount float64, on time.Time) models.Transaction {
	return models.Transaction{CategoryID: categoryID, Amount: -amount, Date: on}
}

func income(categoryID uint, amount float64, on time.Time) models.Transaction {
	return models.Transaction{CategoryID: categoryID, Amount: amount, Date: on}
}

func TestTopCategoriesFoldRemainderIntoOther(t *testing.T) {
	now := date(2025, time.August, 28)
	sums := []float64{300, 200, 100, 50, 30, 20, 10}

	var txs []models.Transaction
	cats := make(map[uint]models.Category)
	for i, sum := range sums {
		id := uint(i + 1)
		cats[id] = models.Category{ID: id, Name: "cat", Type: models.CategoryTypeExpense}
		txs = append(txs, expense(id, sum, now))
	}

	s := BuildSummary(nil, txs, cats, now, 5, 6)

	require.Len(t, s.TopCategories, 7)
	for i, want := range sums[:6] {
		assert.Equal(t, want, s.TopCategories[i].Amount)
	}
	other := s.TopCategories[6]
	assert.Equal(t, "Other", other.Name)
	assert.Equal(t, uint(0), other.CategoryID)
	assert.Equal(t, 10.0, other.Amount)
}

func TestTopCategoriesTieBreakByCategoryID(t *testing.T) {
	now := date(2025, time.August, 28)
	cats := map[uint]models.Category{
		7: {ID: 7, Name: "B"},
		3: {ID: 3, Name: "A"},
	}
	txs := []models.Transaction{
		expense(7, 100, now),
		expense(3, 100, now),
	}

	s := BuildSummary(nil, txs, cats, now, 5, 6)

	require.Len(t, s.TopCategories, 2)
	assert.Equal(t, uint(3), s.TopCategories[0].CategoryID)
	assert.Equal(t, uint(7), s.TopCategories[1].CategoryID)
}

func TestNoOtherEntryWhenWithinCap(t *testing.T) {
	now := date(2025, time.August, 28)
	cats := map[uint]models.Category{1: {ID: 1}}
	s := BuildSummary(nil, []models.Transaction{expense(1, 40, now)}, cats, now, 5, 6)
	require.Len(t, s.TopCategories, 1)
	assert.NotEqual(t, "Other", s.TopCategories[0].Name)
}

func TestTotalBalanceSumsAccountsAndTransactions(t *testing.T) {
	now := date(2025, time.August, 28)
	accounts := []models.Account{
		{ID: 1, InitialBalance: 100},
		{ID: 2, InitialBalance: 250.50},
	}
	txs := []models.Transaction{
		expense(1, 30, now),
		income(2, 80, now),
		// Outside the window but still part of the balance.
		expense(1, 20, date(2020, time.January, 15)),
	}

	s := BuildSummary(accounts, txs, map[uint]models.Category{1: {ID: 1}, 2: {ID: 2}}, now, 5, 6)
	assert.Equal(t, 380.50, s.TotalBalance)
}

func TestCurrentMonthTotalsExcludeOtherMonths(t *testing.T) {
	now := date(2025, time.August, 28)
	txs := []models.Transaction{
		expense(1, 50, date(2025, time.August, 3)),
		income(2, 120, date(2025, time.August, 15)),
		expense(1, 999, date(2025, time.July, 31)),
		income(2, 999, date(2025, time.September, 1)),
	}

	s := BuildSummary(nil, txs, map[uint]models.Category{1: {ID: 1}, 2: {ID: 2}}, now, 5, 6)
	assert.Equal(t, 50.0, s.CurrentMonthExpenses)
	assert.Equal(t, 120.0, s.CurrentMonthIncome)
}

func TestMonthSeriesAreDenseAndCumulative(t *testing.T) {
	now := date(2025, time.August, 28)
	txs := []models.Transaction{
		expense(1, 100, date(2025, time.June, 5)),
		expense(1, 40, date(2025, time.August, 1)),
		income(2, 500, date(2025, time.July, 1)),
	}

	s := BuildSummary(nil, txs, map[uint]models.Category{1: {ID: 1}, 2: {ID: 2}}, now, 2, 6)

	// Window June..August: every month present even without transactions.
	require.Len(t, s.ExpenseSeries, 3)
	require.Len(t, s.IncomeSeries, 3)

	assert.Equal(t, "2025-06", s.ExpenseSeries[0].Label)
	assert.Equal(t, "2025-07", s.ExpenseSeries[1].Label)
	assert.Equal(t, "2025-08", s.ExpenseSeries[2].Label)

	assert.Equal(t, []float64{100, 100, 140},
		[]float64{s.ExpenseSeries[0].Amount, s.ExpenseSeries[1].Amount, s.ExpenseSeries[2].Amount})
	assert.Equal(t, []float64{0, 500, 500},
		[]float64{s.IncomeSeries[0].Amount, s.IncomeSeries[1].Amount, s.IncomeSeries[2].Amount})
}
