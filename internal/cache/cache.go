// Package cache provides in-memory caches for computed statistics.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is the subset of LRUCache the services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeletePrefix(prefix string) int
	Size() int
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// CleanerFunc adapts a function to the Cleaner interface.
type CleanerFunc func() int

func (f CleanerFunc) CleanExpired() int { return f() }

// Manager periodically sweeps expired entries from registered caches.
type Manager struct {
	mu     sync.Mutex
	caches []Cleaner
	logger *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// Sweep cleans every registered cache once and returns the number of entries
// removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// StartCleanup sweeps every interval until ctx is done or Stop is called.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.logger.Debug("Expired cache entries removed", "count", n)
				}
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it. Only valid after StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}
