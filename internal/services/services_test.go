package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"pocketwatcher/internal/amqp"
	"pocketwatcher/internal/core"
	"pocketwatcher/internal/storage"
	"pocketwatcher/internal/storage/memory"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.ExpenseEvent
	err    error
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, ev amqp.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []amqp.EventType
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// countingStore counts list queries and can run a hook inside one.
type countingStore struct {
	storage.ExpenseStore
	mu     sync.Mutex
	lists  int
	onList func()
	err    error
}

func (s *countingStore) ListByOwner(ctx context.Context, ownerID string) ([]core.Expense, error) {
	s.mu.Lock()
	s.lists++
	hook, err := s.onList, s.err
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return s.ExpenseStore.ListByOwner(ctx, ownerID)
}

func (s *countingStore) listCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

var errStoreDown = errors.New("store down")

func expense(desc, category string, amount float64, d core.Date) core.Expense {
	return core.Expense{Description: desc, Category: category, Amount: amount, Date: d}
}

func fixedNow() time.Time {
	return time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func newTestServices() (*ExpenseService, *StatsService, *countingStore, *recordingPublisher) {
	store := &countingStore{ExpenseStore: memory.New()}
	pub := &recordingPublisher{}
	st := NewStatsService(store, 32, time.Minute, discard)
	es := NewExpenseService(store, pub, st, discard)
	es.now = fixedNow
	return es, st, store, pub
}
