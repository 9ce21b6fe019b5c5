package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"pocketwatcher/internal/core"
)

// record is the column layout shared by the SQL stores. Amounts are kept in
// integer cents so sums done in SQL stay exact.
type record struct {
	ID          string
	OwnerID     string
	Description string
	Category    string
	AmountCents int64
	Date        string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewID returns a fresh expense identifier.
func NewID() string {
	return uuid.NewString()
}

// Prepare validates e and returns it in its stored form: amount rounded to
// cents and, for new records, ID and timestamps assigned.
func Prepare(e core.Expense, now time.Time) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	m, _ := e.Money()
	e.Amount = m.Float64()
	// Postgres keeps microseconds; truncate so every store returns the same value.
	now = now.UTC().Truncate(time.Microsecond)
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return e, nil
}

func toRecord(e core.Expense) record {
	m, _ := e.Money()
	return record{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Description: e.Description,
		Category:    e.Category,
		AmountCents: m.Cents,
		Date:        e.Date.String(),
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (r record) expense() (core.Expense, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("decode expense %s: %w", r.ID, err)
	}
	return core.Expense{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Description: r.Description,
		Category:    r.Category,
		Amount:      core.Money{Cents: r.AmountCents}.Float64(),
		Date:        d,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}, nil
}

// SortNewestFirst orders expenses by date, then creation time, newest first.
func SortNewestFirst(list []core.Expense) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// validUUID reports whether id can address a row keyed by UUID. Postgres
// rejects malformed UUID literals instead of matching nothing.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
