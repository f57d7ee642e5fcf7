// Package baseline provides the deterministic fallback analyzer. It produces
// a recommendation from fixed rules over the same market data the tool
// catalogue uses, with no model in the loop, and it never fails: when data
// is unavailable it degrades to HOLD with an explanatory note.
package baseline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/marketdata"
	"github.com/ternarybob/aestimo/internal/models"
	"github.com/ternarybob/aestimo/internal/services/tools"
)

// Revenue trend thresholds, quarter over quarter.
const (
	acceleratingPct = 5.0
	decliningPct    = -5.0
)

type revenueTrend string

const (
	trendAccelerating revenueTrend = "accelerating"
	trendStable       revenueTrend = "stable"
	trendDeclining    revenueTrend = "declining"
	trendUnknown      revenueTrend = "unknown"
)

// Analyzer is the deterministic fallback analyzer.
type Analyzer struct {
	source tools.DataSource
	logger arbor.ILogger
}

// NewAnalyzer creates a fallback analyzer over the given data source.
func NewAnalyzer(source tools.DataSource, logger arbor.ILogger) *Analyzer {
	return &Analyzer{source: source, logger: logger}
}

// Analyze produces a recommendation from the decision table. Any data
// failure degrades to HOLD with a note rather than returning an error.
func (a *Analyzer) Analyze(ctx context.Context, ticker common.Ticker) *models.AnalysisResult {
	start := time.Now()

	result := &models.AnalysisResult{
		ID:         uuid.New().String(),
		Ticker:     ticker.String(),
		Confidence: models.ConfidenceFallback,
		Fallback:   true,
		CreatedAt:  time.Now().UTC(),
	}

	income, err := a.source.GetQuarterlyIncome(ctx, ticker, 2)
	if err != nil || len(income) == 0 {
		a.logger.Warn().
			Str("ticker", ticker.String()).
			Err(err).
			Msg("Fallback analyzer has no income data, defaulting to HOLD")
		result.Recommendation = models.Hold
		result.Narrative = fmt.Sprintf("Insufficient data to analyze %s. Defaulting to HOLD.", ticker.String())
		result.ElapsedMs = time.Since(start).Milliseconds()
		return result
	}

	balance, err := a.source.GetQuarterlyBalance(ctx, ticker, 1)
	if err != nil || len(balance) == 0 {
		result.Recommendation = models.Hold
		result.Narrative = fmt.Sprintf("Balance sheet unavailable for %s. Defaulting to HOLD.", ticker.String())
		result.ElapsedMs = time.Since(start).Milliseconds()
		return result
	}

	health := tools.AssessHealth(income[0], balance[0])
	trend := classifyTrend(income)

	result.Recommendation = decide(health.OverallScore, trend)
	result.Narrative = narrative(ticker, health, trend, result.Recommendation)
	result.ElapsedMs = time.Since(start).Milliseconds()

	a.logger.Info().
		Str("ticker", ticker.String()).
		Str("recommendation", string(result.Recommendation)).
		Str("trend", string(trend)).
		Msg("Fallback analysis complete")

	return result
}

// classifyTrend compares the two most recent quarters' revenue. Quarters
// arrive newest first.
func classifyTrend(income []marketdata.IncomeQuarter) revenueTrend {
	if len(income) < 2 || income[1].Revenue == 0 {
		return trendUnknown
	}
	change := (income[0].Revenue - income[1].Revenue) / abs(income[1].Revenue) * 100
	switch {
	case change > acceleratingPct:
		return trendAccelerating
	case change < decliningPct:
		return trendDeclining
	default:
		return trendStable
	}
}

// decide applies the fixed decision table.
func decide(health float64, trend revenueTrend) models.Recommendation {
	switch {
	case health < 30:
		return models.StrongSell
	case health < 45 && trend == trendDeclining:
		return models.Sell
	case health >= 85 && trend == trendAccelerating:
		return models.StrongBuy
	case health >= 75 && trend == trendAccelerating:
		return models.Buy
	default:
		return models.Hold
	}
}

func narrative(ticker common.Ticker, health tools.HealthAssessment, trend revenueTrend, rec models.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rule-based analysis of %s as of %s.\n", ticker.String(), health.AsOf)
	fmt.Fprintf(&b, "Financial health score: %.1f (grade %s). Revenue trend: %s.\n", health.OverallScore, health.Grade, trend)
	if len(health.Strengths) > 0 {
		fmt.Fprintf(&b, "Strengths: %s.\n", strings.Join(health.Strengths, "; "))
	}
	if len(health.Risks) > 0 {
		fmt.Fprintf(&b, "Risks: %s.\n", strings.Join(health.Risks, "; "))
	}
	fmt.Fprintf(&b, "RECOMMENDATION: %s", rec)
	return b.String()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
