package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"pocketwatcher/internal/amqp"
	"pocketwatcher/internal/cache"
	"pocketwatcher/internal/core"
	"pocketwatcher/internal/stats"
	"pocketwatcher/internal/storage"
)

// Dashboard bundles the three views of the home screen.
type Dashboard struct {
	Monthly   core.MonthlyStats    `json:"monthly"`
	Breakdown []core.CategoryShare `json:"breakdown"`
	Trend     []core.MonthTotal    `json:"trend"`
}

// StatsService computes statistics over an owner's stored expenses and
// memoises the results until the owner's data changes or the TTL expires.
type StatsService struct {
	store  storage.ExpenseStore
	logger *slog.Logger

	monthly   *cache.LRUCache[core.MonthlyStats]
	breakdown *cache.LRUCache[[]core.CategoryShare]
	trend     *cache.LRUCache[[]core.MonthTotal]

	loads singleflight.Group

	// gens maps an owner to seq at its last invalidation. Owners without an
	// entry are at floor, the seq of the last prune, so pruning can only
	// make a pending load skip the cache, never cache stale data.
	mu    sync.Mutex
	seq   uint64
	floor uint64
	gens  map[string]uint64
}

// NewStatsService creates the service with per-view caches of cacheSize
// entries each.
func NewStatsService(store storage.ExpenseStore, cacheSize int, ttl time.Duration, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		store:     store,
		logger:    logger,
		monthly:   cache.NewLRUCache[core.MonthlyStats](cacheSize, ttl),
		breakdown: cache.NewLRUCache[[]core.CategoryShare](cacheSize, ttl),
		trend:     cache.NewLRUCache[[]core.MonthTotal](cacheSize, ttl),
		gens:      make(map[string]uint64),
	}
}

// RegisterCaches hands the caches to m for periodic expiry sweeps.
func (s *StatsService) RegisterCaches(m *cache.Manager) {
	m.Register(s.monthly)
	m.Register(s.breakdown)
	m.Register(s.trend)
	m.Register(cache.CleanerFunc(s.pruneGenerations))
}

// Monthly returns the statistics of one calendar month.
func (s *StatsService) Monthly(ctx context.Context, ownerID string, year int, month time.Month) (core.MonthlyStats, error) {
	if !core.ValidMonth(month) {
		return core.MonthlyStats{}, core.InvalidArgument("month %d out of range 1-12", month)
	}
	key := fmt.Sprintf("%s/%04d-%02d", ownerID, year, month)
	if v, ok := s.monthly.Get(key); ok {
		return v, nil
	}

	records, gen, err := s.records(ctx, ownerID)
	if err != nil {
		return core.MonthlyStats{}, err
	}
	v, err := stats.ComputeMonthlyStats(records, year, month)
	if err != nil {
		return core.MonthlyStats{}, err
	}
	s.cacheIfCurrent(gen, ownerID, func() { s.monthly.Set(key, v) })
	return v, nil
}

// Breakdown returns the category breakdown of one calendar month.
func (s *StatsService) Breakdown(ctx context.Context, ownerID string, year int, month time.Month) ([]core.CategoryShare, error) {
	if !core.ValidMonth(month) {
		return nil, core.InvalidArgument("month %d out of range 1-12", month)
	}
	key := fmt.Sprintf("%s/%04d-%02d", ownerID, year, month)
	if v, ok := s.breakdown.Get(key); ok {
		return slices.Clone(v), nil
	}

	records, gen, err := s.records(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	monthRecords, err := stats.FilterByMonth(records, year, month)
	if err != nil {
		return nil, err
	}
	v, err := stats.ComputeCategoryBreakdown(monthRecords)
	if err != nil {
		return nil, err
	}
	s.cacheIfCurrent(gen, ownerID, func() { s.breakdown.Set(key, v) })
	return slices.Clone(v), nil
}

// Trend returns monthCount monthly totals ending at the reference month.
func (s *StatsService) Trend(ctx context.Context, ownerID string, year int, month time.Month, monthCount int) ([]core.MonthTotal, error) {
	if !core.ValidMonth(month) {
		return nil, core.InvalidArgument("month %d out of range 1-12", month)
	}
	if monthCount <= 0 {
		return nil, core.InvalidArgument("month count must be positive, got %d", monthCount)
	}
	key := fmt.Sprintf("%s/%04d-%02d/%d", ownerID, year, month, monthCount)
	if v, ok := s.trend.Get(key); ok {
		return slices.Clone(v), nil
	}

	records, gen, err := s.records(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	v, err := stats.ComputeTrend(records, year, month, monthCount)
	if err != nil {
		return nil, err
	}
	s.cacheIfCurrent(gen, ownerID, func() { s.trend.Set(key, v) })
	return slices.Clone(v), nil
}

// Dashboard computes the monthly summary, breakdown and trend concurrently.
func (s *StatsService) Dashboard(ctx context.Context, ownerID string, year int, month time.Month, trendMonths int) (Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Monthly, err = s.Monthly(ctx, ownerID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		d.Breakdown, err = s.Breakdown(ctx, ownerID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		d.Trend, err = s.Trend(ctx, ownerID, year, month, trendMonths)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// InvalidateOwner drops every cached view of ownerID. Loads that started
// before the call will not populate the caches.
func (s *StatsService) InvalidateOwner(ownerID string) {
	s.mu.Lock()
	s.seq++
	s.gens[ownerID] = s.seq
	s.mu.Unlock()

	prefix := ownerID + "/"
	n := s.monthly.DeletePrefix(prefix) + s.breakdown.DeletePrefix(prefix) + s.trend.DeletePrefix(prefix)
	s.logger.Debug("Stats cache invalidated", "owner_id", ownerID, "entries", n)
}

// HandleEvent invalidates the owner named by an event from another instance.
func (s *StatsService) HandleEvent(ctx context.Context, ev amqp.ExpenseEvent) error {
	s.logger.DebugContext(ctx, "Received expense event", "type", ev.Type, "owner_id", ev.OwnerID)
	s.InvalidateOwner(ev.OwnerID)
	return nil
}

func (s *StatsService) generation(ownerID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generationLocked(ownerID)
}

// generationLocked requires s.mu.
func (s *StatsService) generationLocked(ownerID string) uint64 {
	if g, ok := s.gens[ownerID]; ok {
		return g
	}
	return s.floor
}

// pruneGenerations forgets every owner's invalidation stamp so the map stays
// bounded by the owners invalidated between two sweeps.
func (s *StatsService) pruneGenerations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.gens)
	clear(s.gens)
	s.floor = s.seq
	return n
}

// records loads the owner's expenses, collapsing concurrent loads of the
// same generation into one store query.
func (s *StatsService) records(ctx context.Context, ownerID string) ([]core.Expense, uint64, error) {
	gen := s.generation(ownerID)
	flight := fmt.Sprintf("%s#%d", ownerID, gen)
	v, err, _ := s.loads.Do(flight, func() (any, error) {
		return s.store.ListByOwner(context.WithoutCancel(ctx), ownerID)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("load expenses: %w", err)
	}
	return v.([]core.Expense), gen, nil
}

// cacheIfCurrent runs set only if ownerID was not invalidated since generation gen
// was read.
func (s *StatsService) cacheIfCurrent(gen uint64, ownerID string, set func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generationLocked(ownerID) == gen {
		set()
	}
}
