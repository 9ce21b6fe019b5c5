// Package storetest holds the behaviour every storage.ExpenseStore must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketwatcher/internal/core"
	"pocketwatcher/internal/storage"
)

// Run exercises store against the ExpenseStore contract. newStore must return
// an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.ExpenseStore) {
	t.Helper()
	ctx := context.Background()

	sample := func(owner, desc string, amount float64, d core.Date) core.Expense {
		return core.Expense{
			OwnerID:     owner,
			Description: desc,
			Category:    core.CategoryFoodDining,
			Amount:      amount,
			Date:        d,
		}
	}

	t.Run("create assigns identity", func(t *testing.T) {
		s := newStore(t)
		got, err := s.Create(ctx, sample("alice", "Lunch", 12.5, core.NewDate(2025, time.March, 5)))
		require.NoError(t, err)
		assert.NotEmpty(t, got.ID)
		assert.False(t, got.CreatedAt.IsZero())
		assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))

		loaded, err := s.Get(ctx, got.ID)
		require.NoError(t, err)
		assert.Equal(t, got.ID, loaded.ID)
		assert.Equal(t, "alice", loaded.OwnerID)
		assert.Equal(t, "Lunch", loaded.Description)
		assert.Equal(t, 12.5, loaded.Amount)
		assert.Equal(t, "2025-03-05", loaded.Date.String())
		assert.True(t, got.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("create rounds to cents", func(t *testing.T) {
		s := newStore(t)
		got, err := s.Create(ctx, sample("alice", "Coffee", 2.675, core.NewDate(2025, time.March, 5)))
		require.NoError(t, err)
		assert.Equal(t, 2.68, got.Amount)

		loaded, err := s.Get(ctx, got.ID)
		require.NoError(t, err)
		assert.Equal(t, 2.68, loaded.Amount)
	})

	t.Run("create rejects invalid records", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, sample("alice", "Refund", -3, core.NewDate(2025, time.March, 5)))
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
		_, err = s.Create(ctx, sample("", "Lunch", 3, core.NewDate(2025, time.March, 5)))
		assert.ErrorIs(t, err, core.ErrEmptyOwner)

		list, err := s.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("missing ids", func(t *testing.T) {
		s := newStore(t)
		missing := storage.NewID()
		_, err := s.Get(ctx, missing)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.Get(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, missing), storage.ErrNotFound)
		_, err = s.Update(ctx, core.Expense{ID: missing})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("update keeps owner and creation time", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, sample("alice", "Lunch", 10, core.NewDate(2025, time.March, 5)))
		require.NoError(t, err)

		change := created
		change.OwnerID = "mallory"
		change.Description = "Dinner"
		change.Category = core.CategoryTravel
		change.Amount = 42
		change.Date = core.NewDate(2025, time.April, 1)
		change.CreatedAt = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

		updated, err := s.Update(ctx, change)
		require.NoError(t, err)
		assert.Equal(t, "alice", updated.OwnerID)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		loaded, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", loaded.OwnerID)
		assert.Equal(t, "Dinner", loaded.Description)
		assert.Equal(t, core.CategoryTravel, loaded.Category)
		assert.Equal(t, 42.0, loaded.Amount)
		assert.Equal(t, "2025-04-01", loaded.Date.String())
	})

	t.Run("update validates", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, sample("alice", "Lunch", 10, core.NewDate(2025, time.March, 5)))
		require.NoError(t, err)
		created.Description = ""
		_, err = s.Update(ctx, created)
		assert.ErrorIs(t, err, core.ErrEmptyDescription)

		loaded, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Lunch", loaded.Description)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, sample("alice", "Lunch", 10, core.NewDate(2025, time.March, 5)))
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, created.ID))
		_, err = s.Get(ctx, created.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list by owner newest first", func(t *testing.T) {
		s := newStore(t)
		for _, e := range []core.Expense{
			sample("alice", "March", 1, core.NewDate(2025, time.March, 5)),
			sample("bob", "Other owner", 1, core.NewDate(2025, time.March, 6)),
			sample("alice", "January", 1, core.NewDate(2025, time.January, 31)),
			sample("alice", "December", 1, core.NewDate(2024, time.December, 1)),
			sample("alice", "April", 1, core.NewDate(2025, time.April, 2)),
		} {
			_, err := s.Create(ctx, e)
			require.NoError(t, err)
		}

		list, err := s.ListByOwner(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 4)
		var got []string
		for _, e := range list {
			got = append(got, e.Description)
			assert.Equal(t, "alice", e.OwnerID)
		}
		assert.Equal(t, []string{"April", "March", "January", "December"}, got)

		none, err := s.ListByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})
}
