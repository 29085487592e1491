// Package collector gathers every yearly history page into one dataset.
package collector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/siegeboard/internal/adapters/fetch"
	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/pkg/logger"
	"github.com/okian/siegeboard/pkg/metrics"
)

// Fetcher downloads pages, one result per url in order.
type Fetcher interface {
	FetchAll(ctx context.Context, urls []string) []fetch.Result
}

// Extractor turns a page into records.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, year int) []model.SiegeRecord
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock replaces time.Now for CollectedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// Collector builds SharedSiegeData for a range of years.
type Collector struct {
	baseURL   string
	fetcher   Fetcher
	extractor Extractor
	log       logger.Logger
	now       func() time.Time
}

// New creates a Collector for baseURL.
func New(baseURL string, f Fetcher, e Extractor, opts ...Option) *Collector {
	c := &Collector{
		baseURL:   baseURL,
		fetcher:   f,
		extractor: e,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// YearURL returns the history page address for one year.
func YearURL(base string, year int) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "y=" + strconv.Itoa(year)
}

// CollectAll fetches [startYear, currentYear] and assembles the dataset.
// Only configuration and cancellation errors are returned; a year that
// fails to fetch is absent from ByYear. A context that ends during the
// fetch yields ErrInterrupted, never a partial dataset.
func (c *Collector) CollectAll(ctx context.Context, startYear, currentYear int) (*model.SharedSiegeData, error) {
	if startYear <= 0 || currentYear < startYear {
		return nil, fmt.Errorf("%w: %d..%d", ErrInvalidRange, startYear, currentYear)
	}
	if err := validBase(c.baseURL); err != nil {
		return nil, err
	}
	if c.fetcher == nil || c.extractor == nil {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()
	log := c.log

	years := make([]int, 0, currentYear-startYear+1)
	urls := make([]string, 0, cap(years))
	for y := startYear; y <= currentYear; y++ {
		years = append(years, y)
		urls = append(urls, YearURL(c.baseURL, y))
	}

	results := c.fetcher.FetchAll(ctx, urls)
	if err := ctx.Err(); err != nil {
		log.Warn(ctx, "collection interrupted", logger.String("run_id", runID), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	data := &model.SharedSiegeData{
		AllRecords:  []model.SiegeRecord{},
		ByYear:      model.YearlyRecordSet{},
		CollectedAt: c.now(),
		RunID:       runID,
	}
	for i, res := range results {
		if i >= len(years) {
			break
		}
		year := years[i]
		if res.Err != nil {
			log.Warn(ctx, "year skipped", logger.Int("year", year), logger.String("run_id", runID), logger.Error(res.Err))
			continue
		}
		records := c.extractor.Extract(ctx, bytes.NewReader(res.Body), year)
		data.ByYear[year] = records
		data.AllRecords = append(data.AllRecords, records...)
	}

	elapsed := time.Since(start)
	metrics.RecordCollection(true, float64(elapsed.Milliseconds()), len(data.ByYear), len(data.AllRecords))
	log.Info(ctx, "collection finished",
		logger.String("run_id", runID),
		logger.Int("years_requested", len(years)),
		logger.Int("years_collected", len(data.ByYear)),
		logger.Int("records", len(data.AllRecords)),
		logger.Duration("took", elapsed),
	)
	return data, nil
}

func validBase(base string) error {
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, base)
	}
	return nil
}
