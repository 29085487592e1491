// Package extract turns yearly history pages into siege records.
package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/pkg/logger"
	"github.com/okian/siegeboard/pkg/metrics"
	"golang.org/x/net/html"
)

const (
	// RowSelector matches the history table rows, header included.
	RowSelector = `div#conteudo table[class="tabela cor auto"] tr`

	// MinCells is the number of cells a row needs to become a record.
	MinCells = 11
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// Extractor reads the history table of one page.
type Extractor struct {
	log logger.Logger
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parse builds an HTML tree. The tokenizer is lenient, so errors come
// only from the reader.
func Parse(r io.Reader) (*html.Node, error) {
	n, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return n, nil
}

// Extract parses r and returns the page's records tagged with year.
// Failures are logged and produce an empty slice.
func (e *Extractor) Extract(ctx context.Context, r io.Reader, year int) []model.SiegeRecord {
	root, err := Parse(r)
	if err != nil {
		e.fail(ctx, year, err)
		return []model.SiegeRecord{}
	}
	return e.ExtractDocument(ctx, goquery.NewDocumentFromNode(root), year)
}

// ExtractDocument reads records from an already parsed document.
func (e *Extractor) ExtractDocument(ctx context.Context, doc *goquery.Document, year int) (records []model.SiegeRecord) {
	records = []model.SiegeRecord{}
	defer func() {
		if r := recover(); r != nil {
			e.fail(ctx, year, fmt.Errorf("%w: %v", ErrParse, r))
			records = []model.SiegeRecord{}
		}
	}()

	if doc == nil {
		e.fail(ctx, year, fmt.Errorf("%w: nil document", ErrParse))
		return records
	}

	doc.Find(RowSelector).Each(func(_ int, row *goquery.Selection) {
		// header: first row of its parent
		if row.PrevAllFiltered("tr").Length() == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < MinCells {
			return
		}
		records = append(records, recordFrom(cells, year))
	})

	metrics.RecordExtractedRecords(len(records))
	e.log.Debug(ctx, "page extracted", logger.Int("year", year), logger.Int("records", len(records)))
	return records
}

func (e *Extractor) fail(ctx context.Context, year int, err error) {
	metrics.RecordParseFailure()
	e.log.Warn(ctx, "page parse failed", logger.Int("year", year), logger.Error(err))
}

func recordFrom(cells *goquery.Selection, year int) model.SiegeRecord {
	at := func(i int) string { return cellText(cells.Eq(i)) }
	return model.SiegeRecord{
		Year:      year,
		Date:      strings.TrimSpace(cells.Eq(0).Text()),
		Guild:     at(1),
		GM:        at(2),
		Alliance1: at(3),
		GM1:       at(4),
		Alliance2: at(5),
		GM2:       at(6),
		Alliance3: at(7),
		GM3:       at(8),
		Alliance4: at(9),
		GM4:       at(10),
	}
}

// cellText prefers the first anchor's text over the whole cell.
func cellText(cell *goquery.Selection) string {
	if a := cell.Find("a").First(); a.Length() > 0 {
		return strings.TrimSpace(a.Text())
	}
	return strings.TrimSpace(cell.Text())
}
