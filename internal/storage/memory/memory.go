// Package memory is an in-process ExpenseStore for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"pocketwatcher/internal/core"
	"pocketwatcher/internal/storage"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]core.Expense
	now   func() time.Time
}

func New() *Store {
	return &Store{items: make(map[string]core.Expense), now: time.Now}
}

// NewWithClock returns a store whose timestamps come from now.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

// Create stores the expense under a fresh ID.
func (s *Store) Create(_ context.Context, e core.Expense) (core.Expense, error) {
	e.ID = ""
	e.CreatedAt = time.Time{}
	e, err := storage.Prepare(e, s.now())
	if err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.ID] = e
	return e, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) Update(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[e.ID]
	if !ok {
		return core.Expense{}, storage.ErrNotFound
	}
	e.OwnerID = existing.OwnerID
	e.CreatedAt = existing.CreatedAt
	e, err := storage.Prepare(e, s.now())
	if err != nil {
		return core.Expense{}, err
	}
	s.items[e.ID] = e
	return e, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// ListByOwner returns a copy of the owner's expenses, newest first.
func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]core.Expense, error) {
	s.mu.RLock()
	var out []core.Expense
	for _, e := range s.items {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()
	storage.SortNewestFirst(out)
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

var _ storage.ExpenseStore = (*Store)(nil)
