package service

import (
	"time"

	"github.com/okian/siegeboard/internal/adapters/cache"
	"github.com/okian/siegeboard/internal/adapters/repository"
	"github.com/okian/siegeboard/internal/domain/ranking"
	"github.com/okian/siegeboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCache replaces the default cache.
func WithCache(c *cache.TTL) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithArchive enables warm start from, and saving to, an archive.
func WithArchive(store repository.Store) Option {
	return func(s *Service) {
		s.archive = store
	}
}

// WithYearRange sets the collected years. end 0 means the current year.
func WithYearRange(start, end int) Option {
	return func(s *Service) {
		if start > 0 {
			s.startYear = start
		}
		if end >= 0 {
			s.endYear = end
		}
	}
}

// WithRankingOptions is applied to every default ranking.
func WithRankingOptions(opts ...ranking.Option) Option {
	return func(s *Service) {
		s.rankingOpts = append(s.rankingOpts, opts...)
	}
}

// WithPreloadDelay sets how long Start waits before warming the cache.
// A negative delay disables the scheduled preload.
func WithPreloadDelay(d time.Duration) Option {
	return func(s *Service) {
		s.preloadDelay = d
	}
}

// WithRefreshInterval repeats the preload. 0 runs it once.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithPreloadWorkers sets the preload worker count.
func WithPreloadWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.preloadWorkers = n
		}
	}
}

// WithCollectTimeout bounds one shared-data collection.
func WithCollectTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.collectTimeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
