package api

import (
	"net/http"
	"time"

	"github.com/okian/siegeboard/internal/adapters/cache"
)

// CacheDependencies exposes the ranking cache.
type CacheDependencies interface {
	CacheSnapshot() []cache.Info
	ClearCache()
}

type cacheEntry struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type cacheResponse struct {
	Entries []cacheEntry `json:"entries"`
	Count   int          `json:"count"`
}

// CacheHandler lists and clears cache entries.
type CacheHandler struct {
	deps CacheDependencies
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(deps CacheDependencies) *CacheHandler {
	return &CacheHandler{deps: deps}
}

// HandleCache handles GET and DELETE /cache.
func (h *CacheHandler) HandleCache(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		infos := h.deps.CacheSnapshot()
		out := cacheResponse{Entries: make([]cacheEntry, 0, len(infos)), Count: len(infos)}
		for _, info := range infos {
			out.Entries = append(out.Entries, cacheEntry{Key: info.Key, ExpiresAt: info.ExpiresAt})
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodDelete:
		h.deps.ClearCache()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}
