package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketwatcher/internal/amqp"
	"pocketwatcher/internal/core"
	"pocketwatcher/internal/storage/memory"
)

func TestExpenseServiceAdd(t *testing.T) {
	es, _, _, pub := newTestServices()
	ctx := context.Background()

	created, err := es.Add(ctx, "alice", expense("Lunch", core.CategoryFoodDining, 12.5, core.NewDate(2025, time.March, 3)))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.OwnerID)

	t.Run("date defaults to today", func(t *testing.T) {
		e, err := es.Add(ctx, "alice", expense("Coffee", core.CategoryFoodDining, 3, core.Date{}))
		require.NoError(t, err)
		assert.Equal(t, "2025-03-15", e.Date.String())
	})

	t.Run("owner comes from the caller", func(t *testing.T) {
		in := expense("Taxi", core.CategoryTransportation, 9, core.NewDate(2025, time.March, 1))
		in.OwnerID = "mallory"
		e, err := es.Add(ctx, "alice", in)
		require.NoError(t, err)
		assert.Equal(t, "alice", e.OwnerID)
	})

	t.Run("validation errors pass through", func(t *testing.T) {
		_, err := es.Add(ctx, "alice", expense("", core.CategoryFoodDining, 3, core.Date{}))
		assert.ErrorIs(t, err, core.ErrEmptyDescription)
		_, err = es.Add(ctx, "alice", expense("Refund", core.CategoryFoodDining, -3, core.Date{}))
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
	})

	require.NoError(t, es.Close(context.Background()))
	assert.Equal(t, []amqp.EventType{amqp.EventCreated, amqp.EventCreated, amqp.EventCreated}, pub.types())
}

func TestExpenseServicePublishFailureIsNotFatal(t *testing.T) {
	es, _, _, pub := newTestServices()
	pub.err = errors.New("broker unavailable")

	_, err := es.Add(context.Background(), "alice", expense("Lunch", core.CategoryFoodDining, 12.5, core.Date{}))
	assert.NoError(t, err)
	require.NoError(t, es.Close(context.Background()))
	assert.Len(t, pub.types(), 1)
}

func TestExpenseServiceWithoutCollaborators(t *testing.T) {
	bare := NewExpenseService(memory.New(), nil, nil, nil)

	e, err := bare.Add(context.Background(), "alice", expense("Lunch", core.CategoryFoodDining, 1, core.NewDate(2025, time.March, 1)))
	require.NoError(t, err)
	require.NoError(t, bare.Delete(context.Background(), "alice", e.ID))
}

func TestExpenseServiceUpdate(t *testing.T) {
	es, _, _, pub := newTestServices()
	ctx := context.Background()

	created, err := es.Add(ctx, "alice", core.Expense{
		Description: "Lunch",
		Category:    core.CategoryFoodDining,
		Amount:      12.5,
		Date:        core.NewDate(2025, time.March, 3),
		Notes:       "with Bob",
	})
	require.NoError(t, err)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		updated, err := es.Update(ctx, "alice", created.ID, ExpensePatch{Amount: ptr(20.0)})
		require.NoError(t, err)
		assert.Equal(t, 20.0, updated.Amount)
		assert.Equal(t, "Lunch", updated.Description)
		assert.Equal(t, core.CategoryFoodDining, updated.Category)
		assert.Equal(t, "2025-03-03", updated.Date.String())
		assert.Equal(t, "with Bob", updated.Notes)
	})

	t.Run("all fields", func(t *testing.T) {
		d := core.NewDate(2025, time.February, 28)
		updated, err := es.Update(ctx, "alice", created.ID, ExpensePatch{
			Description: ptr("Dinner"),
			Category:    ptr(core.CategoryTravel),
			Date:        &d,
			Notes:       ptr(""),
		})
		require.NoError(t, err)
		assert.Equal(t, "Dinner", updated.Description)
		assert.Equal(t, core.CategoryTravel, updated.Category)
		assert.Equal(t, "2025-02-28", updated.Date.String())
		assert.Empty(t, updated.Notes)
	})

	t.Run("other owner is forbidden", func(t *testing.T) {
		_, err := es.Update(ctx, "bob", created.ID, ExpensePatch{Amount: ptr(1.0)})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := es.Update(ctx, "alice", "missing", ExpensePatch{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid patch", func(t *testing.T) {
		_, err := es.Update(ctx, "alice", created.ID, ExpensePatch{Description: ptr("  ")})
		assert.ErrorIs(t, err, core.ErrEmptyDescription)
	})

	require.NoError(t, es.Close(context.Background()))
	assert.Equal(t, []amqp.EventType{amqp.EventCreated, amqp.EventUpdated, amqp.EventUpdated}, pub.types())
}

func TestExpenseServiceDelete(t *testing.T) {
	es, _, _, pub := newTestServices()
	ctx := context.Background()

	created, err := es.Add(ctx, "alice", expense("Lunch", core.CategoryFoodDining, 12.5, core.Date{}))
	require.NoError(t, err)

	assert.ErrorIs(t, es.Delete(ctx, "bob", created.ID), ErrForbidden)
	require.NoError(t, es.Delete(ctx, "alice", created.ID))
	assert.ErrorIs(t, es.Delete(ctx, "alice", created.ID), ErrNotFound)

	list, err := es.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, es.Close(context.Background()))
	assert.Equal(t, []amqp.EventType{amqp.EventCreated, amqp.EventDeleted}, pub.types())
}

func TestExpenseServiceList(t *testing.T) {
	es, _, store, _ := newTestServices()
	ctx := context.Background()

	for _, d := range []core.Date{
		core.NewDate(2025, time.January, 1),
		core.NewDate(2025, time.March, 1),
		core.NewDate(2025, time.February, 1),
	} {
		_, err := es.Add(ctx, "alice", expense("Item", core.CategoryShopping, 1, d))
		require.NoError(t, err)
	}
	_, err := es.Add(ctx, "bob", expense("Other", core.CategoryShopping, 1, core.Date{}))
	require.NoError(t, err)

	list, err := es.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025-03-01", list[0].Date.String())
	assert.Equal(t, "2025-01-01", list[2].Date.String())

	store.err = errStoreDown
	_, err = es.List(ctx, "alice")
	assert.ErrorIs(t, err, errStoreDown)
}

// blockingPublisher holds every publish until release is closed.
type blockingPublisher struct {
	recordingPublisher
	release chan struct{}
}

func (p *blockingPublisher) PublishExpenseEvent(ctx context.Context, ev amqp.ExpenseEvent) error {
	<-p.release
	return p.recordingPublisher.PublishExpenseEvent(ctx, ev)
}

func TestExpenseServiceDoesNotWaitForBroker(t *testing.T) {
	pub := &blockingPublisher{release: make(chan struct{})}
	st := NewStatsService(memory.New(), 8, time.Minute, discard)
	es := NewExpenseService(memory.New(), pub, st, discard)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := es.Add(ctx, "alice", expense("Lunch", core.CategoryFoodDining, 12.5, core.NewDate(2025, time.March, 1)))
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Add blocked on an unresponsive broker")
	}

	flushCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, es.Close(flushCtx), context.DeadlineExceeded)

	close(pub.release)
	require.NoError(t, es.Close(ctx))
	assert.Equal(t, []amqp.EventType{amqp.EventCreated}, pub.types())
}

func TestExpenseServiceDropsEventsAfterClose(t *testing.T) {
	es, _, _, pub := newTestServices()
	ctx := context.Background()
	require.NoError(t, es.Close(ctx))

	_, err := es.Add(ctx, "alice", expense("Lunch", core.CategoryFoodDining, 12.5, core.Date{}))
	require.NoError(t, err)
	require.NoError(t, es.Close(ctx))
	assert.Empty(t, pub.types())
}
