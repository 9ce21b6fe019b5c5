package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"pocketwatcher/internal/core"
)

// DefaultTrendMonths is the length of the dashboard trend series.
const DefaultTrendMonths = 6

var hundred = decimal.NewFromInt(100)

// ComputeMonthlyStats summarises the records of one calendar month out of the
// full record set.
//
// The dominant category is the first entry of ComputeCategoryBreakdown, so
// equal totals resolve to the lexicographically smallest category name. An
// empty month reports core.NoCategory with a zero amount and share.
func ComputeMonthlyStats(all []core.Expense, year int, month time.Month) (core.MonthlyStats, error) {
	monthRecords, err := FilterByMonth(all, year, month)
	if err != nil {
		return core.MonthlyStats{}, err
	}
	total, err := SumAmounts(monthRecords)
	if err != nil {
		return core.MonthlyStats{}, err
	}
	breakdown, err := ComputeCategoryBreakdown(monthRecords)
	if err != nil {
		return core.MonthlyStats{}, err
	}

	days := core.DaysInMonth(year, month)
	out := core.MonthlyStats{
		Year:                  year,
		Month:                 month,
		TotalSpent:            total,
		TransactionCount:      len(monthRecords),
		DaysInMonth:           days,
		AveragePerDay:         total.Decimal().Div(decimal.NewFromInt(int64(days))),
		DominantCategory:      core.NoCategory,
		DominantCategoryShare: decimal.Zero,
	}
	if len(breakdown) > 0 {
		out.DominantCategory = breakdown[0].Category
		out.DominantCategoryAmount = breakdown[0].Amount
		out.DominantCategoryShare = breakdown[0].Share
	}
	return out, nil
}

// ComputeCategoryBreakdown groups already month-filtered records by category,
// sorted by amount descending and then by category name. Shares are
// percentages of the records' total and are zero when the total is zero.
func ComputeCategoryBreakdown(monthRecords []core.Expense) ([]core.CategoryShare, error) {
	totals, err := GroupByCategory(monthRecords)
	if err != nil {
		return nil, err
	}
	var total core.Money
	for _, m := range totals {
		if total, err = total.Add(m); err != nil {
			return nil, err
		}
	}

	out := make([]core.CategoryShare, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryShare{
			Category: name,
			Amount:   amount,
			Share:    percentOf(amount, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// ComputeTrend returns the per-month totals of the monthCount months ending at
// the reference month.
func ComputeTrend(all []core.Expense, refYear int, refMonth time.Month, monthCount int) ([]core.MonthTotal, error) {
	return MonthlySeries(all, refYear, refMonth, monthCount)
}

func percentOf(part, total core.Money) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Decimal().Mul(hundred).Div(total.Decimal())
}
