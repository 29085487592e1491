// Package ranking derives the siege rankings from the shared record set.
//
// Every ranking consumes the same SharedSiegeData and produces a
// RankingResult: overall totals plus one breakdown per year. The derivation
// math lives in pure functions (Victories, Registro, Desbuff, Streaks); the
// Ranking variants bind them to a SharedSource and to their menu metadata.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/internal/domain/types"
	"github.com/okian/siegeboard/pkg/metrics"
)

// Defaults shared by every ranking.
const (
	DefaultBaseURL   = "https://www.mucabrasil.com.br/?go=castlesiege"
	DefaultStartYear = 2014
)

// SharedSource hands out the shared record set, collecting it when needed.
type SharedSource interface {
	Shared(ctx context.Context) (*model.SharedSiegeData, error)
}

// Ranking is the capability every ranking view implements.
type Ranking interface {
	// Name is the display name. Cache keys are derived from it.
	Name() string
	// BaseURL is the history page the data is scraped from.
	BaseURL() string
	// MenuHref is the href of the injected menu entry, e.g. "?go=gmregistroranking".
	MenuHref() string
	// Collect derives the ranking from the shared record set.
	Collect(ctx context.Context) (*model.RankingResult, error)
	// Table turns counts into ordered table rows.
	Table(counts *model.Counts) []types.Entry
	// ValueLabel is the heading of the value column.
	ValueLabel() string

	SupportsYearFilter() bool
	StartYear() int
}

// Option applies a configuration option to a ranking.
type Option func(*Base)

// WithBaseURL overrides the history page URL.
func WithBaseURL(url string) Option {
	return func(b *Base) {
		if url != "" {
			b.baseURL = url
		}
	}
}

// WithStartYear overrides the first year collected.
func WithStartYear(year int) Option {
	return func(b *Base) {
		if year > 0 {
			b.startYear = year
		}
	}
}

// Base carries the metadata and default behaviour shared by all variants.
type Base struct {
	name       string
	menuHref   string
	valueLabel string
	baseURL    string
	startYear  int

	source SharedSource
	derive func(*model.SharedSiegeData) *model.RankingResult
}

func newBase(name, menuHref, valueLabel string, source SharedSource, derive func(*model.SharedSiegeData) *model.RankingResult, opts []Option) Base {
	b := Base{
		name:       name,
		menuHref:   menuHref,
		valueLabel: valueLabel,
		baseURL:    DefaultBaseURL,
		startYear:  DefaultStartYear,
		source:     source,
		derive:     derive,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *Base) Name() string             { return b.name }
func (b *Base) BaseURL() string          { return b.baseURL }
func (b *Base) MenuHref() string         { return b.menuHref }
func (b *Base) ValueLabel() string       { return b.valueLabel }
func (b *Base) SupportsYearFilter() bool { return true }
func (b *Base) StartYear() int           { return b.startYear }

// Collect fetches the shared data from the source and runs the derivation.
func (b *Base) Collect(ctx context.Context) (*model.RankingResult, error) {
	if b.source == nil {
		return nil, fmt.Errorf("%s: %w", b.name, ErrNoSource)
	}
	data, err := b.source.Shared(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: collect shared data: %w", b.name, err)
	}

	start := time.Now()
	res := b.derive(data)
	metrics.RecordRankingDuration(b.name, float64(time.Since(start).Milliseconds()))
	return res, nil
}

// Table sorts counts by value, highest first. Ties keep insertion order.
func (b *Base) Table(counts *model.Counts) []types.Entry {
	pairs := counts.Pairs()
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Count > pairs[j].Count
	})

	rows := make([]types.Entry, len(pairs))
	for i, p := range pairs {
		rows[i] = types.Entry{Position: i + 1, Name: p.Name, Value: p.Count}
	}
	return rows
}

// MenuKey returns the "go" value of a ranking's menu href,
// e.g. "castlesiegeranking" for "?go=castlesiegeranking".
func MenuKey(r Ranking) string {
	href := strings.TrimPrefix(r.MenuHref(), "?")
	for _, part := range strings.Split(href, "&") {
		if v, ok := strings.CutPrefix(part, "go="); ok {
			return v
		}
	}
	return href
}

// Defaults returns the four siege rankings in menu order.
func Defaults(source SharedSource, opts ...Option) []Ranking {
	return []Ranking{
		NewVictoryRanking(source, opts...),
		NewRegistroRanking(source, opts...),
		NewDesbuffRanking(source, opts...),
		NewStreakRanking(source, opts...),
	}
}
