package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketwatcher/internal/core"
	"pocketwatcher/internal/storage"
	"pocketwatcher/internal/storage/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.ExpenseStore { return New() })
}

func TestStoreUsesClock(t *testing.T) {
	now := time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)
	s := NewWithClock(func() time.Time { return now })

	e, err := s.Create(context.Background(), core.Expense{
		OwnerID:     "u1",
		Description: "Taxi",
		Category:    core.CategoryTransportation,
		Amount:      18,
		Date:        core.NewDate(2025, time.March, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, now, e.CreatedAt)

	now = now.Add(time.Hour)
	e.Amount = 20
	updated, err := s.Update(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, now, updated.UpdatedAt)
	assert.Equal(t, now.Add(-time.Hour), updated.CreatedAt)
}

func TestStoreConcurrentCreate(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(context.Background(), core.Expense{
				OwnerID:     "u1",
				Description: "Snack",
				Category:    core.CategoryGroceries,
				Amount:      1,
				Date:        core.NewDate(2025, time.March, 5),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := s.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 50)
}
