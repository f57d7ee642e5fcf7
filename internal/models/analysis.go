// Package models defines shared domain types for analysis runs and tool calls.
package models

import (
	"time"
)

// Recommendation is one of the five analysis categories.
type Recommendation string

const (
	StrongBuy  Recommendation = "STRONG BUY"
	Buy        Recommendation = "BUY"
	Hold       Recommendation = "HOLD"
	Sell       Recommendation = "SELL"
	StrongSell Recommendation = "STRONG SELL"
)

// Confidence indicates how a recommendation was produced.
type Confidence string

const (
	// ConfidenceModel means the agentic loop produced the recommendation.
	ConfidenceModel Confidence = "model"
	// ConfidenceFallback means the deterministic analyzer produced it.
	ConfidenceFallback Confidence = "fallback"
)

// AnalysisRequest is the inbound request for an analysis run.
type AnalysisRequest struct {
	Ticker   string `json:"ticker" validate:"required,min=1,max=24"`
	Provider string `json:"provider,omitempty" validate:"omitempty,oneof=gemini claude"`
	Model    string `json:"model,omitempty"`
}

// AnalysisResult is the outcome of an analysis run, from either the
// orchestrator or the fallback analyzer.
type AnalysisResult struct {
	ID             string           `json:"id"`
	Ticker         string           `json:"ticker"`
	Recommendation Recommendation   `json:"recommendation"`
	Confidence     Confidence       `json:"confidence"`
	Fallback       bool             `json:"fallback"`
	FallbackReason string           `json:"fallback_reason,omitempty"`
	Narrative      string           `json:"narrative"`
	Rounds         int              `json:"rounds"`
	// IterationCapped marks runs that hit the round cap before the model
	// committed to a final answer.
	IterationCapped bool `json:"iteration_capped,omitempty"`
	ToolTrace      []ToolTraceEntry `json:"tool_trace,omitempty"`
	ElapsedMs      int64            `json:"elapsed_ms"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ToolTraceEntry records a single tool execution during a run.
type ToolTraceEntry struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}
