package tools

import (
	"context"
	"fmt"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/marketdata"
)

// Pillar thresholds for strengths and risks.
const (
	strengthThreshold = 80.0
	riskThreshold     = 60.0
)

// HealthAssessment is the scored view of a company's latest quarter.
// Exported so the fallback analyzer can reuse the same scoring.
type HealthAssessment struct {
	Ticker       string             `json:"ticker"`
	AsOf         string             `json:"as_of"`
	OverallScore float64            `json:"overall_score"`
	Grade        string             `json:"grade"`
	Pillars      map[string]float64 `json:"pillars,omitempty"`
	Strengths    []string           `json:"strengths"`
	Risks        []string           `json:"risks"`
}

// assessFinancialHealth scores the four pillars from the latest statements.
func (c *Catalog) assessFinancialHealth(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	ticker := common.ParseTicker(argString(args, "ticker"))
	includeScores := argBool(args, "include_scores")

	income, err := c.source.GetQuarterlyIncome(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	balance, err := c.source.GetQuarterlyBalance(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	if len(income) == 0 || len(balance) == 0 {
		return nil, fmt.Errorf("insufficient statement data for %s", ticker.String())
	}

	assessment := AssessHealth(income[0], balance[0])
	assessment.Ticker = ticker.String()
	if !includeScores {
		assessment.Pillars = nil
	}

	return assessment, nil
}

// AssessHealth applies the fixed scoring tables to one quarter's statements.
// Overall is the mean of the four pillar scores.
func AssessHealth(income marketdata.IncomeQuarter, balance marketdata.BalanceQuarter) HealthAssessment {
	pillars := map[string]float64{
		"liquidity":     liquidityScore(balance),
		"leverage":      leverageScore(balance),
		"profitability": profitabilityScore(income, balance),
		"efficiency":    efficiencyScore(income, balance),
	}

	overall := round2((pillars["liquidity"] + pillars["leverage"] + pillars["profitability"] + pillars["efficiency"]) / 4)

	assessment := HealthAssessment{
		AsOf:         balance.EndDate.Format("2006-01-02"),
		OverallScore: overall,
		Grade:        healthGrade(overall),
		Pillars:      pillars,
		Strengths:    []string{},
		Risks:        []string{},
	}

	for _, pillar := range []string{"liquidity", "leverage", "profitability", "efficiency"} {
		score := pillars[pillar]
		if score > strengthThreshold {
			assessment.Strengths = append(assessment.Strengths, pillarStrength[pillar])
		}
		if score < riskThreshold {
			assessment.Risks = append(assessment.Risks, pillarRisk[pillar])
		}
	}

	return assessment
}

var pillarStrength = map[string]string{
	"liquidity":     "Strong liquidity position",
	"leverage":      "Conservative debt levels",
	"profitability": "Excellent profitability",
	"efficiency":    "Highly efficient asset utilization",
}

var pillarRisk = map[string]string{
	"liquidity":     "Liquidity may be strained",
	"leverage":      "Elevated debt burden",
	"profitability": "Weak profitability",
	"efficiency":    "Poor asset utilization",
}

// liquidityScore sums current- and quick-ratio bands (max 100).
func liquidityScore(bal marketdata.BalanceQuarter) float64 {
	score := 0.0

	if current := safeRatio(bal.CurrentAssets, bal.CurrentLiabilities); current != nil {
		switch {
		case *current >= 2.0:
			score += 50
		case *current >= 1.5:
			score += 35
		case *current >= 1.0:
			score += 20
		default:
			score += 10
		}
	}

	if quick := safeRatio(bal.CurrentAssets-bal.Inventory, bal.CurrentLiabilities); quick != nil {
		switch {
		case *quick >= 1.5:
			score += 50
		case *quick >= 1.0:
			score += 35
		case *quick >= 0.8:
			score += 20
		default:
			score += 10
		}
	}

	return score
}

// leverageScore sums debt-to-equity and debt-to-assets bands (max 100).
// Lower leverage scores higher.
func leverageScore(bal marketdata.BalanceQuarter) float64 {
	score := 0.0

	if de := safeRatio(bal.TotalDebt, bal.TotalEquity); de != nil {
		switch {
		case *de <= 0.3:
			score += 50
		case *de <= 0.6:
			score += 35
		case *de <= 1.0:
			score += 20
		default:
			score += 10
		}
	}

	if da := safeRatio(bal.TotalDebt, bal.TotalAssets); da != nil {
		switch {
		case *da <= 0.2:
			score += 50
		case *da <= 0.4:
			score += 35
		case *da <= 0.6:
			score += 20
		default:
			score += 10
		}
	}

	return score
}

// profitabilityScore sums ROE, ROA, and net-margin bands (max 100).
func profitabilityScore(inc marketdata.IncomeQuarter, bal marketdata.BalanceQuarter) float64 {
	score := 0.0

	if roe := marginPct(inc.NetIncome, bal.TotalEquity); roe != nil {
		switch {
		case *roe >= 20:
			score += 35
		case *roe >= 15:
			score += 25
		case *roe >= 10:
			score += 15
		default:
			score += 5
		}
	}

	if roa := marginPct(inc.NetIncome, bal.TotalAssets); roa != nil {
		switch {
		case *roa >= 15:
			score += 35
		case *roa >= 10:
			score += 25
		case *roa >= 5:
			score += 15
		default:
			score += 5
		}
	}

	if margin := marginPct(inc.NetIncome, inc.Revenue); margin != nil {
		switch {
		case *margin >= 20:
			score += 30
		case *margin >= 10:
			score += 20
		case *margin >= 5:
			score += 10
		default:
			score += 5
		}
	}

	return score
}

// efficiencyScore bands asset turnover (max 100). Missing data scores a
// neutral 50.
func efficiencyScore(inc marketdata.IncomeQuarter, bal marketdata.BalanceQuarter) float64 {
	turnover := safeRatio(inc.Revenue, bal.TotalAssets)
	if turnover == nil {
		return 50
	}
	switch {
	case *turnover >= 2.0:
		return 100
	case *turnover >= 1.5:
		return 80
	case *turnover >= 1.0:
		return 60
	case *turnover >= 0.5:
		return 40
	default:
		return 20
	}
}

func healthGrade(score float64) string {
	switch {
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}
