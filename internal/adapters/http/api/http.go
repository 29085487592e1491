// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/siegeboard/internal/adapters/cache"
	service "github.com/okian/siegeboard/internal/app"
	"github.com/okian/siegeboard/internal/domain/ranking"
	"github.com/okian/siegeboard/internal/domain/types"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider

	Rankings() []ranking.Ranking
	Render(ctx context.Context, key string, year int) (*service.View, error)

	CacheSnapshot() []cache.Info
	ClearCache()
}

// Entry mirrors one row of a ranking table.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	rankingHandler *RankingHandler
	cacheHandler   *CacheHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		rankingHandler: NewRankingHandler(deps),
		cacheHandler:   NewCacheHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleHealth)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/cache", MetricsMiddleware(s.cacheHandler.HandleCache, "cache"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingHandler.HandleList, "rankings"))
	mux.HandleFunc("/rankings/", MetricsMiddleware(s.rankingHandler.HandleGet, "ranking"))
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
