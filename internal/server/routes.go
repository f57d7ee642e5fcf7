package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Analysis
	mux.HandleFunc("/api/analysis", s.app.AnalysisHandler.AnalyzeHandler)           // POST - run agentic analysis
	mux.HandleFunc("/api/analysis/baseline", s.app.AnalysisHandler.BaselineHandler) // GET - run deterministic analyzer

	// API routes - Tools
	mux.HandleFunc("/api/tools", s.app.APIHandler.ToolsHandler) // GET - registered tool schemas

	// API routes - Cache administration
	mux.HandleFunc("/api/cache/stats", s.app.CacheHandler.StatsHandler) // GET
	mux.HandleFunc("/api/cache/clear", s.app.CacheHandler.ClearHandler) // POST

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// Catch-all for unknown API paths
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
