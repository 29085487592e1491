package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/pkg/logger"
)

// FlatXPath selects the guild anchor of every row.
const FlatXPath = `//div[@id="conteudo"]//table//td[2]//a`

// FlatExtractor tallies guild victories straight from the anchors in the
// second column, without building records.
type FlatExtractor struct {
	log logger.Logger
}

// NewFlat creates a FlatExtractor.
func NewFlat(l logger.Logger) *FlatExtractor {
	if l == nil {
		l = logger.Nop()
	}
	return &FlatExtractor{log: l}
}

// Victories returns guild -> wins for one page, in first-seen order.
func (f *FlatExtractor) Victories(ctx context.Context, r io.Reader) (*model.Counts, error) {
	root, err := Parse(r)
	if err != nil {
		return model.NewCounts(), err
	}
	nodes, err := htmlquery.QueryAll(root, FlatXPath)
	if err != nil {
		return model.NewCounts(), fmt.Errorf("%w: %v", ErrParse, err)
	}

	counts := model.NewCounts()
	for _, n := range nodes {
		if guild := strings.TrimSpace(htmlquery.InnerText(n)); guild != "" {
			counts.Inc(guild)
		}
	}
	f.log.Debug(ctx, "flat page tallied", logger.Int("anchors", len(nodes)), logger.Int("guilds", counts.Len()))
	return counts, nil
}
