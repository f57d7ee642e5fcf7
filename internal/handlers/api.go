package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/marketdata"
	"github.com/ternarybob/aestimo/internal/models"
)

// SchemaSource lists the registered tool schemas.
type SchemaSource interface {
	Schemas() []models.ToolSchema
}

// ProviderStatus reports whether any decision provider is configured.
type ProviderStatus interface {
	Configured() bool
}

// CacheStatsSource reports gateway cache statistics.
type CacheStatsSource interface {
	CacheStats() marketdata.CacheStats
}

type APIHandler struct {
	tools     SchemaSource
	providers ProviderStatus
	cache     CacheStatsSource
	logger    arbor.ILogger
}

func NewAPIHandler(tools SchemaSource, providers ProviderStatus, cache CacheStatsSource, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		tools:     tools,
		providers: providers,
		cache:     cache,
		logger:    logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.Build,
		"git_commit": common.GitCommit,
	})
}

// HealthHandler returns health check status
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "ok",
		"provider_configured": h.providers.Configured(),
		"cache":               h.cache.CacheStats(),
	})
}

// ToolsHandler returns the registered tool schemas
func (h *APIHandler) ToolsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	schemas := h.tools.Schemas()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(schemas),
		"tools": schemas,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
