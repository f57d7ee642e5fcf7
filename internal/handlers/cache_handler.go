package handlers

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/marketdata"
)

// CacheAdmin exposes the market-data cache admin surface.
type CacheAdmin interface {
	CacheStats() marketdata.CacheStats
	ClearCache() int
}

// CacheHandler handles HTTP requests for cache administration.
type CacheHandler struct {
	gateway CacheAdmin
	logger  arbor.ILogger
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(gateway CacheAdmin, logger arbor.ILogger) *CacheHandler {
	return &CacheHandler{
		gateway: gateway,
		logger:  logger,
	}
}

// StatsHandler handles GET /api/cache/stats
func (h *CacheHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, h.gateway.CacheStats())
}

// ClearHandler handles POST /api/cache/clear
func (h *CacheHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	removed := h.gateway.ClearCache()

	h.logger.Info().
		Int("removed", removed).
		Msg("Cache cleared via admin endpoint")

	WriteSuccess(w, fmt.Sprintf("Cache cleared, %d entries removed", removed))
}
