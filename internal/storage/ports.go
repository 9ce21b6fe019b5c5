// Package storage persists expense records.
package storage

import (
	"context"
	"errors"

	"pocketwatcher/internal/core"
)

// ErrNotFound is returned when no expense has the requested ID.
var ErrNotFound = errors.New("expense not found")

// ExpenseStore is the persistence port used by the services.
//
// Create assigns the ID and both timestamps. Update replaces the mutable
// fields of an existing record and refreshes UpdatedAt; it never changes
// ID, OwnerID or CreatedAt. ListByOwner returns newest dates first.
type ExpenseStore interface {
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Get(ctx context.Context, id string) (core.Expense, error)
	Update(ctx context.Context, e core.Expense) (core.Expense, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]core.Expense, error)
	Ping(ctx context.Context) error
	Close() error
}
