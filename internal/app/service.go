// Package service wires collection, derivation and caching behind the
// operations the HTTP API and the CLI trigger.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/siegeboard/internal/adapters/cache"
	"github.com/okian/siegeboard/internal/adapters/repository"
	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/internal/domain/ranking"
	"github.com/okian/siegeboard/internal/domain/types"
	"github.com/okian/siegeboard/pkg/logger"
	"github.com/okian/siegeboard/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPreloadDelay   = 3 * time.Second
	defaultPreloadWorkers = 4
	defaultCollectTimeout = 2 * time.Minute
)

// Collector gathers the shared dataset for a range of years.
type Collector interface {
	CollectAll(ctx context.Context, startYear, currentYear int) (*model.SharedSiegeData, error)
}

// View is one rendered ranking: the aggregate plus the table for the
// selected year, or for all years when Year is 0.
type View struct {
	Ranking ranking.Ranking
	Year    int
	Result  *model.RankingResult
	Rows    []types.Entry
	// Empty is the "no data found" state.
	Empty bool
}

// Service owns the cache and the ranking registry.
type Service struct {
	mu sync.RWMutex

	collector   Collector
	cache       *cache.TTL
	archive     repository.Store
	rankings    []ranking.Ranking
	rankingOpts []ranking.Option
	group       singleflight.Group

	startYear       int
	endYear         int
	preloadDelay    time.Duration
	refreshInterval time.Duration
	preloadWorkers  int
	collectTimeout  time.Duration
	now             func() time.Time

	preloader atomic.Pointer[preloader]

	// State
	started     bool
	cancel      context.CancelFunc
	bg          sync.WaitGroup
	collections atomic.Int64
	lastRun     atomic.Pointer[model.SharedSiegeData]

	logger logger.Logger
}

// New constructs a Service around c.
func New(c Collector, opts ...Option) *Service {
	s := &Service{
		collector:      c,
		cache:          cache.New(),
		startYear:      ranking.DefaultStartYear,
		preloadDelay:   defaultPreloadDelay,
		preloadWorkers: defaultPreloadWorkers,
		collectTimeout: defaultCollectTimeout,
		now:            time.Now,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rankings = ranking.Defaults(s, append([]ranking.Option{ranking.WithStartYear(s.startYear)}, s.rankingOpts...)...)
	return s
}

// CurrentYear is the last year collected.
func (s *Service) CurrentYear() int {
	if s.endYear > 0 {
		return s.endYear
	}
	return s.now().Year()
}

// Shared returns the cached shared dataset, collecting it on a miss.
// Concurrent misses share one collection. Failures are not cached.
//
// The collection runs on a context detached from the caller and bounded by
// the collect timeout, so one caller giving up neither aborts the run for
// the others nor leaves a partial dataset behind. A caller whose ctx ends
// first gets ErrCollection wrapping ctx.Err().
func (s *Service) Shared(ctx context.Context) (*model.SharedSiegeData, error) {
	if data, ok := s.cachedShared(); ok {
		return data, nil
	}
	if s.collector == nil {
		return nil, fmt.Errorf("%w: %w", ErrCollection, ErrNotConfigured)
	}

	ch := s.group.DoChan(cache.SharedDataKey, func() (any, error) {
		if data, ok := s.cachedShared(); ok {
			return data, nil
		}
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.collectTimeout)
		defer cancel()
		return s.collect(cctx)
	})

	select {
	case <-ctx.Done():
		err := fmt.Errorf("%w: %w", ErrCollection, ctx.Err())
		s.logger.Warn(ctx, "stopped waiting for shared data", logger.Error(err))
		return nil, err
	case res := <-ch:
		if res.Err != nil {
			s.logger.Error(ctx, "shared data collection failed", logger.Error(res.Err), logger.Bool("shared_call", res.Shared))
			return nil, res.Err
		}
		return res.Val.(*model.SharedSiegeData), nil
	}
}

func (s *Service) collect(ctx context.Context) (*model.SharedSiegeData, error) {
	start := time.Now()
	data, err := s.collector.CollectAll(ctx, s.startYear, s.CurrentYear())
	if err == nil && data == nil {
		err = errors.New("collector returned no data")
	}
	if err != nil {
		metrics.RecordCollection(false, float64(time.Since(start).Milliseconds()), 0, 0)
		return nil, fmt.Errorf("%w: %w", ErrCollection, err)
	}
	s.collections.Add(1)
	s.lastRun.Store(data)
	s.cache.Set(cache.SharedDataKey, data)
	s.archiveRun(ctx, data)
	return data, nil
}

func (s *Service) cachedShared() (*model.SharedSiegeData, bool) {
	v, ok := s.cache.Get(cache.SharedDataKey)
	if !ok {
		return nil, false
	}
	data, ok := v.(*model.SharedSiegeData)
	return data, ok && data != nil
}

func (s *Service) archiveRun(ctx context.Context, data *model.SharedSiegeData) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveRun(ctx, data); err != nil {
		s.logger.Warn(ctx, "archive save failed", logger.String("run_id", data.RunID), logger.Error(err))
	}
}

// Rankings returns the registered rankings in menu order.
func (s *Service) Rankings() []ranking.Ranking {
	out := make([]ranking.Ranking, len(s.rankings))
	copy(out, s.rankings)
	return out
}

// FindByURL returns the first ranking whose menu href occurs in url.
func (s *Service) FindByURL(url string) (ranking.Ranking, bool) {
	for _, r := range s.rankings {
		if strings.Contains(url, r.MenuHref()) {
			return r, true
		}
	}
	return nil, false
}

// Lookup resolves a menu key ("castlesiegeranking"), a display name or a
// URL containing a menu href.
func (s *Service) Lookup(key string) (ranking.Ranking, error) {
	for _, r := range s.rankings {
		if key == ranking.MenuKey(r) || strings.EqualFold(key, r.Name()) {
			return r, nil
		}
	}
	if r, ok := s.FindByURL(key); ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRanking, key)
}

// Result returns a ranking's all-years result, deriving and caching it
// under "<name>_all" on a miss.
func (s *Service) Result(ctx context.Context, r ranking.Ranking) (*model.RankingResult, error) {
	key := cache.Key(r.Name(), 0)
	if v, ok := s.cache.Get(key); ok {
		if res, ok := v.(*model.RankingResult); ok {
			return res, nil
		}
	}
	res, err := r.Collect(ctx)
	if err != nil {
		if !errors.Is(err, ErrCollection) {
			err = fmt.Errorf("%w: %w", ErrCollection, err)
		}
		return nil, err
	}
	s.cache.Set(key, res)
	return res, nil
}

// Render is the trigger: it resolves key, obtains the result and builds
// the table for year (0 = all years). Year views for collected years are
// cached under "<name>_<year>"; other years render empty and are not cached.
func (s *Service) Render(ctx context.Context, key string, year int) (*View, error) {
	r, err := s.Lookup(key)
	if err != nil {
		return nil, err
	}
	if !r.SupportsYearFilter() {
		year = 0
	}

	res, err := s.Result(ctx, r)
	if err != nil {
		return nil, err
	}

	counts := res.Totals
	if year != 0 {
		counts = s.yearCounts(r, res, year)
	}

	rows := r.Table(counts)
	return &View{
		Ranking: r,
		Year:    year,
		Result:  res,
		Rows:    rows,
		Empty:   len(rows) == 0,
	}, nil
}

// yearView is a cached year slice, bound to the result it was cut from.
type yearView struct {
	source *model.RankingResult
	counts *model.Counts
}

// yearCounts returns the year slice of res. Only years present in res are
// cached, and a cached slice is reused only while _all still holds the same
// result it was cut from.
func (s *Service) yearCounts(r ranking.Ranking, res *model.RankingResult, year int) *model.Counts {
	if _, ok := res.ByYear[year]; !ok {
		return res.Year(year)
	}
	key := cache.Key(r.Name(), year)
	if v, ok := s.cache.Get(key); ok {
		if yv, ok := v.(yearView); ok && yv.source == res {
			return yv.counts
		}
	}
	c := res.Year(year)
	s.cache.Set(key, yearView{source: res, counts: c})
	return c
}

// CacheSnapshot lists live cache keys.
func (s *Service) CacheSnapshot() []cache.Info {
	return s.cache.Snapshot()
}

// ClearCache drops every cached entry.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info(context.Background(), "cache cleared")
}

// Start warms the cache from the archive and schedules the preload.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting siege ranking service...")

	s.warmStart(ctx)

	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	p := newPreloader(s, s.preloadWorkers, s.logger)
	p.start(bgCtx)
	s.preloader.Store(p)

	if s.preloadDelay >= 0 {
		s.bg.Add(1)
		go s.schedule(bgCtx)
	}

	s.started = true
	s.logger.Info(ctx, "siege ranking service started",
		logger.Int("rankings", len(s.rankings)),
		logger.Int("start_year", s.startYear),
		logger.Int("preload_workers", s.preloadWorkers),
		logger.Duration("preload_delay", s.preloadDelay),
		logger.Duration("refresh_interval", s.refreshInterval),
	)
	return nil
}

func (s *Service) schedule(ctx context.Context) {
	defer s.bg.Done()

	timer := time.NewTimer(s.preloadDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	s.runPreload(ctx)

	if s.refreshInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runPreload(ctx)
		}
	}
}

func (s *Service) runPreload(ctx context.Context) {
	if err := s.Preload(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn(ctx, "preload incomplete", logger.Error(err))
	}
}

// warmStart seeds the shared entry from the newest archived run when that
// run is younger than the cache ttl.
func (s *Service) warmStart(ctx context.Context) {
	if s.archive == nil {
		return
	}
	data, err := s.archive.LatestRun(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn(ctx, "archive read failed", logger.Error(err))
		}
		return
	}
	age := s.now().Sub(data.CollectedAt)
	remaining := s.cache.DefaultTTL() - age
	if remaining <= 0 {
		s.logger.Info(ctx, "archived run too old for warm start", logger.String("run_id", data.RunID), logger.Duration("age", age))
		return
	}
	s.cache.Set(cache.SharedDataKey, data, remaining)
	s.lastRun.Store(data)
	s.logger.Info(ctx, "cache warmed from archive",
		logger.String("run_id", data.RunID),
		logger.Int("records", len(data.AllRecords)),
		logger.Duration("remaining", remaining))
}

// Stop cancels the scheduler and drains the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping siege ranking service...")

	cancel()
	s.bg.Wait()
	if p := s.preloader.Swap(nil); p != nil {
		p.stop(ctx)
	}
	s.logger.Info(ctx, "siege ranking service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"rankings":        len(s.rankings),
		"startYear":       s.startYear,
		"currentYear":     s.CurrentYear(),
		"cacheEntries":    s.cache.Len(),
		"collections":     s.collections.Load(),
		"preloadWorkers":  s.preloadWorkers,
		"archiveEnabled":  s.archive != nil,
		"refreshInterval": s.refreshInterval.String(),
	}
	if run := s.lastRun.Load(); run != nil {
		stats["lastRunID"] = run.RunID
		stats["lastCollectedAt"] = run.CollectedAt
		stats["lastRecords"] = len(run.AllRecords)
		stats["lastYears"] = len(run.ByYear)
	}
	if p := s.preloader.Load(); p != nil {
		stats["queueLength"] = p.queue.Len(context.Background())
	}
	return stats
}
