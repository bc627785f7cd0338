package dashboard

import (
	"math"
	"sort"
	"time"

	"fintrack-backend/internal/models"
)

type CategorySummary struct {
	CategoryID uint    `json:"categoryId"` // 0 for the synthetic "Other" bucket
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Amount     float64 `json:"amount"`
}

type MonthPoint struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Label  string  `json:"label"` // "2025-08"
	Amount float64 `json:"amount"`
}

type Summary struct {
	TotalBalance         float64           `json:"totalBalance"`
	CurrentMonthIncome   float64           `json:"currentMonthIncome"`
	CurrentMonthExpenses float64           `json:"currentMonthExpenses"`
	TopCategories        []CategorySummary `json:"topCategories"`
	ExpenseSeries        []MonthPoint      `json:"expenseSeries"`
	IncomeSeries         []MonthPoint      `json:"incomeSeries"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func monthKey(t time.Time) [2]int {
	return [2]int{t.Year(), int(t.Month())}
}

// BuildSummary aggregates the user's accounts and concrete transactions into
// the dashboard view. transactions must exclude recurring templates; the
// category map must cover every category referenced by them.
//
// Top categories are ranked by summed absolute expense amount over the
// window, descending; equal sums keep ascending category id order. When more
// than maxCategories remain and their remainder is positive, a synthetic
// "Other" entry is appended. Month series are dense over the window (months
// without transactions appear with the carried cumulative amount).
func BuildSummary(
	accounts []models.Account,
	transactions []models.Transaction,
	categories map[uint]models.Category,
	now time.Time,
	monthsBehind, maxCategories int,
) Summary {
	if monthsBehind < 0 {
		monthsBehind = 0
	}
	if maxCategories <= 0 {
		maxCategories = 1
	}

	s := Summary{
		TopCategories: []CategorySummary{},
		ExpenseSeries: []MonthPoint{},
		IncomeSeries:  []MonthPoint{},
	}

	for _, acc := range accounts {
		s.TotalBalance += acc.InitialBalance
	}

	curMonth := monthKey(now)
	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
		AddDate(0, -monthsBehind, 0)

	catTotals := make(map[uint]float64)
	expenseByMonth := make(map[[2]int]float64)
	incomeByMonth := make(map[[2]int]float64)

	for _, t := range transactions {
		s.TotalBalance += t.Amount

		key := monthKey(t.Date)
		if key == curMonth {
			if t.Amount < 0 {
				s.CurrentMonthExpenses += -t.Amount
			} else {
				s.CurrentMonthIncome += t.Amount
			}
		}

		if t.Date.Before(windowStart) {
			continue
		}
		if t.Amount < 0 {
			catTotals[t.CategoryID] += -t.Amount
			expenseByMonth[key] += -t.Amount
		} else {
			incomeByMonth[key] += t.Amount
		}
	}

	// Rank categories: amount desc, category id asc on ties.
	ids := make([]uint, 0, len(catTotals))
	for id := range catTotals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if catTotals[ids[i]] != catTotals[ids[j]] {
			return catTotals[ids[i]] > catTotals[ids[j]]
		}
		return ids[i] < ids[j]
	})

	for i, id := range ids {
		if i >= maxCategories {
			break
		}
		cat := categories[id]
		s.TopCategories = append(s.TopCategories, CategorySummary{
			CategoryID: id,
			Name:       cat.Name,
			Color:      cat.Color,
			Amount:     round2(catTotals[id]),
		})
	}
	if len(ids) > maxCategories {
		var rest float64
		for _, id := range ids[maxCategories:] {
			rest += catTotals[id]
		}
		if rest > 0 {
			s.TopCategories = append(s.TopCategories, CategorySummary{
				Name:   "Other",
				Amount: round2(rest),
			})
		}
	}

	// Dense cumulative month series, oldest first, ending at the current month.
	var cumExpense, cumIncome float64
	for m := 0; m <= monthsBehind; m++ {
		monthStart := windowStart.AddDate(0, m, 0)
		key := monthKey(monthStart)
		cumExpense += expenseByMonth[key]
		cumIncome += incomeByMonth[key]

		label := monthStart.Format("2006-01")
		s.ExpenseSeries = append(s.ExpenseSeries, MonthPoint{
			Year: key[0], Month: key[1], Label: label, Amount: round2(cumExpense),
		})
		s.IncomeSeries = append(s.IncomeSeries, MonthPoint{
			Year: key[0], Month: key[1], Label: label, Amount: round2(cumIncome),
		})
	}

	s.TotalBalance = round2(s.TotalBalance)
	s.CurrentMonthIncome = round2(s.CurrentMonthIncome)
	s.CurrentMonthExpenses = round2(s.CurrentMonthExpenses)
	return s
}
