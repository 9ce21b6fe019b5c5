package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoCategory is reported as the dominant category of an empty month.
const NoCategory = "None"

// CategoryShare is a category total and its percentage of the month total.
type CategoryShare struct {
	Category string          `json:"category"`
	Amount   Money           `json:"amount"`
	Share    decimal.Decimal `json:"share"`
}

// MonthTotal is one point of a trend series.
type MonthTotal struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"` // 1-12
	Label string     `json:"label"`
	Total Money      `json:"total"`
}

// MonthlyStats is the dashboard summary of a single calendar month.
type MonthlyStats struct {
	Year                   int             `json:"year"`
	Month                  time.Month      `json:"month"` // 1-12
	TotalSpent             Money           `json:"total_spent"`
	TransactionCount       int             `json:"transaction_count"`
	DaysInMonth            int             `json:"days_in_month"`
	AveragePerDay          decimal.Decimal `json:"average_per_day"`
	DominantCategory       string          `json:"dominant_category"`
	DominantCategoryAmount Money           `json:"dominant_category_amount"`
	DominantCategoryShare  decimal.Decimal `json:"dominant_category_share"`
}

// MonthLabel is the short label of a month used in trend series ("Jan").
func MonthLabel(m time.Month) string {
	return m.String()[:3]
}
