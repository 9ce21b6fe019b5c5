// Package services implements the expense use cases on top of storage.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pocketwatcher/internal/amqp"
	"pocketwatcher/internal/core"
	"pocketwatcher/internal/storage"
)

var (
	// ErrNotFound is returned for unknown expense IDs.
	ErrNotFound = storage.ErrNotFound
	// ErrForbidden is returned when an expense belongs to another owner.
	ErrForbidden = errors.New("expense belongs to another user")
)

// Publisher broadcasts expense changes. *amqp.Client implements it.
type Publisher interface {
	PublishExpenseEvent(ctx context.Context, ev amqp.ExpenseEvent) error
}

// Invalidator drops derived data of one owner. *StatsService implements it.
type Invalidator interface {
	InvalidateOwner(ownerID string)
}

// eventQueueSize bounds events waiting for the publisher. Events beyond it
// are dropped and logged.
const eventQueueSize = 256

// ExpensePatch lists the fields an update may change. Nil fields keep their
// stored value.
type ExpensePatch struct {
	Description *string
	Category    *string
	Amount      *float64
	Date        *core.Date
	Notes       *string
}

// ExpenseService validates and persists expenses, then notifies caches and
// other instances. Local caches are invalidated before a mutation returns;
// events are published in order by a background worker.
type ExpenseService struct {
	store     storage.ExpenseStore
	publisher Publisher
	stats     Invalidator
	logger    *slog.Logger
	now       func() time.Time

	queueMu sync.RWMutex
	closed  bool
	events  chan amqp.ExpenseEvent
	drained chan struct{}
}

// NewExpenseService wires the service. publisher and stats may be nil.
// Call Close to flush pending events.
func NewExpenseService(store storage.ExpenseStore, publisher Publisher, stats Invalidator, logger *slog.Logger) *ExpenseService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ExpenseService{
		store:     store,
		publisher: publisher,
		stats:     stats,
		logger:    logger,
		now:       time.Now,
	}
	if publisher != nil {
		s.events = make(chan amqp.ExpenseEvent, eventQueueSize)
		s.drained = make(chan struct{})
		go s.publishLoop()
	}
	return s
}

// Close stops accepting events and waits until queued ones are published
// or ctx is done.
func (s *ExpenseService) Close(ctx context.Context) error {
	if s.events == nil {
		return nil
	}
	s.queueMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.queueMu.Unlock()

	select {
	case <-s.drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush expense events: %w", ctx.Err())
	}
}

func (s *ExpenseService) publishLoop() {
	defer close(s.drained)
	for ev := range s.events {
		if err := s.publisher.PublishExpenseEvent(context.Background(), ev); err != nil {
			s.logger.Error("Failed to publish expense event",
				"type", ev.Type,
				"expense_id", ev.ExpenseID,
				"error", err)
		}
	}
}

// enqueue hands ev to the publish worker without blocking.
func (s *ExpenseService) enqueue(ctx context.Context, ev amqp.ExpenseEvent) {
	s.queueMu.RLock()
	defer s.queueMu.RUnlock()
	if s.closed {
		s.logger.WarnContext(ctx, "Expense service closed, dropping event",
			"type", ev.Type,
			"expense_id", ev.ExpenseID)
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.WarnContext(ctx, "Event queue full, dropping event",
			"type", ev.Type,
			"expense_id", ev.ExpenseID)
	}
}

// Add stores a new expense for ownerID. A zero date defaults to today.
func (s *ExpenseService) Add(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error) {
	e.OwnerID = ownerID
	if e.Date.IsZero() {
		e.Date = core.DateOf(s.now())
	}
	created, err := s.store.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.changed(ctx, amqp.EventCreated, created)
	return created, nil
}

// Update applies patch to the owner's expense id.
func (s *ExpenseService) Update(ctx context.Context, ownerID, id string, patch ExpensePatch) (core.Expense, error) {
	e, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, err
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.Notes != nil {
		e.Notes = *patch.Notes
	}

	updated, err := s.store.Update(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.changed(ctx, amqp.EventUpdated, updated)
	return updated, nil
}

// Delete removes the owner's expense id.
func (s *ExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	e, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.changed(ctx, amqp.EventDeleted, e)
	return nil
}

// List returns the owner's expenses, newest first.
func (s *ExpenseService) List(ctx context.Context, ownerID string) ([]core.Expense, error) {
	list, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return list, nil
}

func (s *ExpenseService) owned(ctx context.Context, ownerID, id string) (core.Expense, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Expense{}, ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("load expense: %w", err)
	}
	if e.OwnerID != ownerID {
		return core.Expense{}, ErrForbidden
	}
	return e, nil
}

// changed runs after a committed mutation; failures here never fail the
// request.
func (s *ExpenseService) changed(ctx context.Context, t amqp.EventType, e core.Expense) {
	if s.stats != nil {
		s.stats.InvalidateOwner(e.OwnerID)
	}
	if s.events == nil {
		return
	}
	s.enqueue(ctx, amqp.NewExpenseEvent(t, e.ID, e.OwnerID))
}
