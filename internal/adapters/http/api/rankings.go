package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/siegeboard/internal/app"
	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/internal/domain/ranking"
)

// RankingDependencies defines the ranking read operations.
type RankingDependencies interface {
	Rankings() []ranking.Ranking
	Render(ctx context.Context, key string, year int) (*service.View, error)
}

// RankingSummary describes one registered ranking.
type RankingSummary struct {
	Name               string `json:"name"`
	MenuKey            string `json:"menu_key"`
	MenuHref           string `json:"menu_href"`
	BaseURL            string `json:"base_url"`
	StartYear          int    `json:"start_year"`
	SupportsYearFilter bool   `json:"supports_year_filter"`
	ValueLabel         string `json:"value_label"`
}

// RankingResponse is the body of GET /rankings/{menuKey}.
type RankingResponse struct {
	Ranking RankingSummary        `json:"ranking"`
	Year    int                   `json:"year,omitempty"`
	Totals  *model.Counts         `json:"totals"`
	ByYear  map[int]*model.Counts `json:"by_year"`
	Rows    []Entry               `json:"rows"`
	Empty   bool                  `json:"empty"`
}

// RankingHandler serves the ranking list and individual rankings.
type RankingHandler struct {
	deps RankingDependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleList handles GET /rankings.
func (h *RankingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rankings := h.deps.Rankings()
	out := make([]RankingSummary, 0, len(rankings))
	for _, rk := range rankings {
		out = append(out, summarize(rk))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /rankings/{menuKey}?year=YYYY.
func (h *RankingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/rankings/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_year", WrapKind(op, ErrBadRequest, errors.New("year must be a positive integer")))
			return
		}
		year = n
	}

	view, err := h.deps.Render(r.Context(), key, year)
	switch {
	case errors.Is(err, service.ErrUnknownRanking):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	case errors.Is(err, service.ErrCollection):
		writeError(w, http.StatusInternalServerError, "collection_failed", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, NewRankingResponse(view))
}

// NewRankingResponse converts a rendered view into its wire shape.
func NewRankingResponse(view *service.View) RankingResponse {
	return RankingResponse{
		Ranking: summarize(view.Ranking),
		Year:    view.Year,
		Totals:  view.Result.Totals,
		ByYear:  view.Result.ByYear,
		Rows:    view.Rows,
		Empty:   view.Empty,
	}
}

func summarize(r ranking.Ranking) RankingSummary {
	return RankingSummary{
		Name:               r.Name(),
		MenuKey:            ranking.MenuKey(r),
		MenuHref:           r.MenuHref(),
		BaseURL:            r.BaseURL(),
		StartYear:          r.StartYear(),
		SupportsYearFilter: r.SupportsYearFilter(),
		ValueLabel:         r.ValueLabel(),
	}
}
