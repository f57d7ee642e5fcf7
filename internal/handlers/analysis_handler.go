package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/models"
)

// AnalysisRunner runs one analysis request end to end.
type AnalysisRunner interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) *models.AnalysisResult
}

// BaselineRunner runs the deterministic analyzer directly.
type BaselineRunner interface {
	Analyze(ctx context.Context, ticker common.Ticker) *models.AnalysisResult
}

// AnalysisHandler handles HTTP requests for analysis runs.
type AnalysisHandler struct {
	orchestrator AnalysisRunner
	baseline     BaselineRunner
	validate     *validator.Validate
	logger       arbor.ILogger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(orchestrator AnalysisRunner, baseline BaselineRunner, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		orchestrator: orchestrator,
		baseline:     baseline,
		validate:     validator.New(),
		logger:       logger,
	}
}

// AnalyzeHandler handles POST /api/analysis
func (h *AnalysisHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	h.logger.Info().
		Str("ticker", req.Ticker).
		Str("provider", req.Provider).
		Str("model", req.Model).
		Msg("Analysis requested")

	result := h.orchestrator.Analyze(r.Context(), req)
	WriteJSON(w, http.StatusOK, result)
}

// BaselineHandler handles GET /api/analysis/baseline?ticker=NASDAQ:AAPL
func (h *AnalysisHandler) BaselineHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	raw := r.URL.Query().Get("ticker")
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "Missing required query parameter: ticker")
		return
	}

	ticker := common.ParseTicker(raw)
	if ticker.Code == "" {
		WriteError(w, http.StatusBadRequest, "Invalid ticker: "+raw)
		return
	}

	result := h.baseline.Analyze(r.Context(), ticker)
	WriteJSON(w, http.StatusOK, result)
}
