package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Canonical expense categories offered by the UI. Callers may use any other
// non-empty string; aggregation treats the category as an opaque key.
const (
	CategoryFoodDining     = "Food & Dining"
	CategoryTransportation = "Transportation"
	CategoryShopping       = "Shopping"
	CategoryEntertainment  = "Entertainment"
	CategoryBills          = "Bills & Utilities"
	CategoryGroceries      = "Groceries"
	CategoryTravel         = "Travel"
	CategoryHealthcare     = "Healthcare"
)

// MaxDescriptionLength bounds the description of a single expense, in
// characters.
const MaxDescriptionLength = 200

// Categories lists the canonical categories in display order.
var Categories = []string{
	CategoryFoodDining,
	CategoryTransportation,
	CategoryShopping,
	CategoryEntertainment,
	CategoryBills,
	CategoryGroceries,
	CategoryTravel,
	CategoryHealthcare,
}

type (
	// Expense is a single user-submitted spending entry.
	//
	// Amount keeps the representation the record arrived with; it is only
	// trusted after conversion through MoneyFromFloat.
	Expense struct {
		ID          string    `json:"id"`
		OwnerID     string    `json:"owner_id"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Amount      float64   `json:"amount"`
		Date        Date      `json:"date"`
		Notes       string    `json:"notes,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyOwner         = errors.New("empty owner")
)

// IsKnownCategory reports whether name is one of the canonical categories.
func IsKnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Money returns the record amount as fixed-point cents.
func (e Expense) Money() (Money, error) {
	return MoneyFromFloat(e.Amount)
}

// Validate checks every field a stored expense must satisfy.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if _, err := e.Money(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
