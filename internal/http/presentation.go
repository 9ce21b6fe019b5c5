package http

import (
	"github.com/shopspring/decimal"

	"pocketwatcher/internal/core"
)

// CategoryStyle is how clients render a category.
type CategoryStyle struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var defaultCategoryStyle = CategoryStyle{Icon: "coffee", Color: "#a0a5c0"}

var categoryStyles = map[string]CategoryStyle{
	core.CategoryFoodDining:     {Icon: "coffee", Color: "#8899e4"},
	core.CategoryTransportation: {Icon: "car", Color: "#d64d80"},
	core.CategoryShopping:       {Icon: "shopping-bag", Color: "#841e70"},
	core.CategoryEntertainment:  {Icon: "film", Color: "#a0a5c0"},
	core.CategoryBills:          {Icon: "home", Color: "#e1e4f8"},
	core.CategoryGroceries:      {Icon: "utensils", Color: "#ff6b6b"},
	core.CategoryTravel:         {Icon: "plane", Color: "#4ecdc4"},
	core.CategoryHealthcare:     {Icon: "heart", Color: "#ffd93d"},
}

// StyleFor returns the style of category, or the default for unknown names.
func StyleFor(category string) CategoryStyle {
	if s, ok := categoryStyles[category]; ok {
		return s
	}
	return defaultCategoryStyle
}

// categoryView is one breakdown row as served by /api/stats/categories.
type categoryView struct {
	Category string          `json:"category"`
	Amount   core.Money      `json:"amount"`
	Share    decimal.Decimal `json:"share"`
	CategoryStyle
}

func categoryViews(breakdown []core.CategoryShare) []categoryView {
	out := make([]categoryView, 0, len(breakdown))
	for _, s := range breakdown {
		out = append(out, categoryView{
			Category:      s.Category,
			Amount:        s.Amount,
			Share:         s.Share,
			CategoryStyle: StyleFor(s.Category),
		})
	}
	return out
}
