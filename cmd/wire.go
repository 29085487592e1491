package main

import (
	"context"
	"errors"

	"github.com/okian/siegeboard/internal/adapters/cache"
	"github.com/okian/siegeboard/internal/adapters/collector"
	"github.com/okian/siegeboard/internal/adapters/extract"
	"github.com/okian/siegeboard/internal/adapters/fetch"
	"github.com/okian/siegeboard/internal/adapters/repository"
	app "github.com/okian/siegeboard/internal/app"
	"github.com/okian/siegeboard/internal/config"
	"github.com/okian/siegeboard/internal/domain/ranking"
	"github.com/okian/siegeboard/pkg/logger"
)

// components is everything a command needs, built from one Config.
type components struct {
	fetcher   *fetch.Fetcher
	extractor *extract.Extractor
	archive   *repository.SQLiteStore
	svc       *app.Service
}

func newFetcher(cfg *config.Config, l logger.Logger) *fetch.Fetcher {
	return fetch.New(
		fetch.WithTimeout(cfg.FetchTimeout()),
		fetch.WithMaxRetries(cfg.FetchMaxRetries),
		fetch.WithRetryInterval(cfg.FetchRetryInterval()),
		fetch.WithConcurrency(cfg.FetchConcurrency),
		fetch.WithRatePerSecond(cfg.FetchRatePerSecond),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithLogger(l.Named("fetch")),
	)
}

// build wires fetch -> extract -> collector -> cache/archive -> service.
// extra options are applied after the configured ones.
func build(ctx context.Context, cfg *config.Config, l logger.Logger, extra ...app.Option) (*components, error) {
	c := &components{
		fetcher:   newFetcher(cfg, l),
		extractor: extract.New(extract.WithLogger(l.Named("extract"))),
	}

	coll := collector.New(cfg.BaseURL, c.fetcher, c.extractor, collector.WithLogger(l.Named("collector")))

	opts := []app.Option{
		app.WithLogger(l.Named("service")),
		app.WithCache(cache.New(cache.WithDefaultTTL(cfg.CacheTTL()))),
		app.WithYearRange(cfg.StartYear, cfg.EndYear),
		app.WithRankingOptions(ranking.WithBaseURL(cfg.BaseURL)),
		app.WithPreloadDelay(cfg.PreloadDelay()),
		app.WithRefreshInterval(cfg.RefreshInterval()),
		app.WithPreloadWorkers(cfg.PreloadWorkers),
	}

	if cfg.ArchivePath != "" {
		store, err := repository.OpenSQLite(ctx, cfg.ArchivePath, repository.WithLogger(l.Named("archive")))
		if err != nil {
			return nil, err
		}
		c.archive = store
		opts = append(opts, app.WithArchive(store))
	}

	c.svc = app.New(coll, append(opts, extra...)...)
	return c, nil
}

func (c *components) close() error {
	c.svc.Stop()
	if c.archive != nil {
		return c.archive.Close()
	}
	return nil
}

func joinClose(err error, c *components) error {
	return errors.Join(err, c.close())
}
