// Package agent runs the agentic analysis loop: it drives a function-calling
// decision model against the tool catalogue until the model commits to a
// recommendation, and escalates to the deterministic fallback analyzer when
// the model is unavailable or fails.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/models"
	"github.com/ternarybob/aestimo/internal/services/llm"
)

const (
	// DefaultMaxRounds caps the decide/execute cycles of a run.
	DefaultMaxRounds = 5
	// DefaultRoundPause is the delay between successive decision rounds.
	DefaultRoundPause = 500 * time.Millisecond

	maxRoundsNote = "Maximum iterations reached. Recommendation derived from analysis gathered so far."
)

// ToolExecutor dispatches tool calls and exposes their schemas.
// *tools.Catalog satisfies it.
type ToolExecutor interface {
	Schemas() []models.ToolSchema
	Execute(ctx context.Context, call models.ToolCall) models.ToolResult
}

// ClientProvider resolves a decision client for a model string.
// *llm.Factory satisfies it.
type ClientProvider interface {
	ClientFor(model string) (llm.Client, string, error)
}

// FallbackAnalyzer produces a deterministic recommendation when the
// agentic path cannot run. It never fails.
type FallbackAnalyzer interface {
	Analyze(ctx context.Context, ticker common.Ticker) *models.AnalysisResult
}

// Orchestrator coordinates one analysis run end to end.
type Orchestrator struct {
	provider   ClientProvider
	tools      ToolExecutor
	fallback   FallbackAnalyzer
	logger     arbor.ILogger
	maxRounds  int
	roundPause time.Duration
}

// NewOrchestrator creates an orchestrator with settings from config.
func NewOrchestrator(provider ClientProvider, tools ToolExecutor, fallback FallbackAnalyzer, cfg *common.AgentConfig, logger arbor.ILogger) *Orchestrator {
	maxRounds := DefaultMaxRounds
	roundPause := DefaultRoundPause
	if cfg != nil {
		if cfg.MaxRounds > 0 {
			maxRounds = cfg.MaxRounds
		}
		roundPause = common.ParseDuration(cfg.RoundPause, DefaultRoundPause)
	}
	return &Orchestrator{
		provider:   provider,
		tools:      tools,
		fallback:   fallback,
		logger:     logger,
		maxRounds:  maxRounds,
		roundPause: roundPause,
	}
}

// Analyze runs the full agentic loop for one request. It always returns a
// result: model failures and missing configuration escalate to the fallback
// analyzer instead of surfacing as errors.
func (o *Orchestrator) Analyze(ctx context.Context, req models.AnalysisRequest) *models.AnalysisResult {
	start := time.Now()
	ticker := common.ParseTicker(req.Ticker)

	model := req.Model
	if model == "" && req.Provider != "" {
		// Bare provider prefix resolves to that provider's configured model.
		model = req.Provider + "/"
	}

	client, modelName, err := o.provider.ClientFor(model)
	if err != nil {
		o.logger.Warn().
			Str("ticker", ticker.String()).
			Err(err).
			Msg("Decision model unavailable, using fallback analyzer")
		return o.escalate(ctx, ticker, "decision model not configured: "+err.Error(), start)
	}

	o.logger.Info().
		Str("ticker", ticker.String()).
		Str("model", modelName).
		Msg("Starting analysis run")

	conv := llm.NewConversation(systemPrompt, userPrompt(ticker))
	schemas := o.tools.Schemas()

	var trace []models.ToolTraceEntry
	var lastText string
	rounds := 0

	for rounds < o.maxRounds {
		rounds++

		outcome, err := client.Decide(ctx, modelName, conv, schemas)
		if err != nil {
			o.logger.Warn().
				Str("ticker", ticker.String()).
				Int("round", rounds).
				Err(err).
				Msg("Decision call failed, using fallback analyzer")
			return o.escalate(ctx, ticker, "decision call failed: "+err.Error(), start)
		}

		if outcome.Text != "" {
			lastText = outcome.Text
		}

		if outcome.IsFinal() {
			return o.finish(ticker, outcome.Text, rounds, trace, false, start)
		}

		conv.AddAssistantTurn(outcome.Text, outcome.ToolCalls)

		// Tool calls run sequentially in the order the model issued them,
		// and results return in that same order.
		results := make([]models.ToolResult, 0, len(outcome.ToolCalls))
		for _, call := range outcome.ToolCalls {
			toolStart := time.Now()
			result := o.tools.Execute(ctx, call)
			entry := models.ToolTraceEntry{
				Name:       call.Name,
				DurationMs: time.Since(toolStart).Milliseconds(),
			}
			if result.IsError {
				entry.Error = result.Content
			}
			trace = append(trace, entry)
			results = append(results, result)
		}
		conv.AddToolResults(results)

		if rounds < o.maxRounds {
			select {
			case <-ctx.Done():
				return o.escalate(ctx, ticker, "analysis cancelled: "+ctx.Err().Error(), start)
			case <-time.After(o.roundPause):
			}
		}
	}

	o.logger.Warn().
		Str("ticker", ticker.String()).
		Int("rounds", rounds).
		Msg("Analysis hit round cap before a final answer")

	return o.finish(ticker, lastText, rounds, trace, true, start)
}

// finish builds a model-confidence result from the accumulated text.
// capped marks a run that exhausted its rounds without a final answer.
func (o *Orchestrator) finish(ticker common.Ticker, text string, rounds int, trace []models.ToolTraceEntry, capped bool, start time.Time) *models.AnalysisResult {
	narrative := text
	if capped {
		if narrative != "" {
			narrative += "\n\n"
		}
		narrative += maxRoundsNote
	}

	recommendation := ExtractRecommendation(text)

	o.logger.Info().
		Str("ticker", ticker.String()).
		Str("recommendation", string(recommendation)).
		Int("rounds", rounds).
		Msg("Analysis run complete")

	return &models.AnalysisResult{
		ID:              uuid.New().String(),
		Ticker:          ticker.String(),
		Recommendation:  recommendation,
		Confidence:      models.ConfidenceModel,
		Narrative:       narrative,
		Rounds:          rounds,
		IterationCapped: capped,
		ToolTrace:       trace,
		ElapsedMs:       time.Since(start).Milliseconds(),
		CreatedAt:       time.Now().UTC(),
	}
}

// escalate hands the run to the deterministic analyzer.
func (o *Orchestrator) escalate(ctx context.Context, ticker common.Ticker, reason string, start time.Time) *models.AnalysisResult {
	result := o.fallback.Analyze(ctx, ticker)
	result.ID = uuid.New().String()
	result.Fallback = true
	result.FallbackReason = reason
	result.Confidence = models.ConfidenceFallback
	result.ElapsedMs = time.Since(start).Milliseconds()
	result.CreatedAt = time.Now().UTC()
	return result
}
