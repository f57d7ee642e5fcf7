package tools

import (
	"testing"
	"time"

	"github.com/ternarybob/aestimo/internal/marketdata"
)

func TestAssessHealthStrongCompany(t *testing.T) {
	income := marketdata.IncomeQuarter{
		EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Revenue:   1000,
		NetIncome: 250,
	}
	balance := marketdata.BalanceQuarter{
		EndDate:            time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		TotalAssets:        2000,
		CurrentAssets:      900,
		CurrentLiabilities: 400,
		Inventory:          100,
		TotalDebt:          300,
		TotalEquity:        1400,
	}

	assessment := AssessHealth(income, balance)

	// current 2.25 and quick 2.0 both hit the top band
	if got := assessment.Pillars["liquidity"]; got != 100 {
		t.Errorf("liquidity = %v, want 100", got)
	}
	// D/E 0.21 and D/A 0.15 both hit the top band
	if got := assessment.Pillars["leverage"]; got != 100 {
		t.Errorf("leverage = %v, want 100", got)
	}
	// ROE 17.9 -> 25, ROA 12.5 -> 25, margin 25 -> 30
	if got := assessment.Pillars["profitability"]; got != 80 {
		t.Errorf("profitability = %v, want 80", got)
	}
	// asset turnover 0.5 -> 40
	if got := assessment.Pillars["efficiency"]; got != 40 {
		t.Errorf("efficiency = %v, want 40", got)
	}
	if assessment.OverallScore != 80 {
		t.Errorf("OverallScore = %v, want 80", assessment.OverallScore)
	}
	if assessment.Grade != "A" {
		t.Errorf("Grade = %q, want A", assessment.Grade)
	}
	if len(assessment.Strengths) != 2 {
		t.Errorf("strengths = %v, want liquidity and leverage", assessment.Strengths)
	}
	if len(assessment.Risks) != 1 {
		t.Errorf("risks = %v, want efficiency only", assessment.Risks)
	}
}

func TestAssessHealthWeakCompany(t *testing.T) {
	income := marketdata.IncomeQuarter{
		Revenue:   1000,
		NetIncome: 10,
	}
	balance := marketdata.BalanceQuarter{
		TotalAssets:        5000,
		CurrentAssets:      300,
		CurrentLiabilities: 500,
		Inventory:          150,
		TotalDebt:          4000,
		TotalEquity:        500,
	}

	assessment := AssessHealth(income, balance)

	// current 0.6 and quick 0.3 both bottom out
	if got := assessment.Pillars["liquidity"]; got != 20 {
		t.Errorf("liquidity = %v, want 20", got)
	}
	// D/E 8.0 and D/A 0.8 both bottom out
	if got := assessment.Pillars["leverage"]; got != 20 {
		t.Errorf("leverage = %v, want 20", got)
	}
	if assessment.OverallScore >= 50 {
		t.Errorf("OverallScore = %v, want < 50", assessment.OverallScore)
	}
	if len(assessment.Risks) < 3 {
		t.Errorf("risks = %v, want at least 3 pillars flagged", assessment.Risks)
	}
}

func TestAssessHealthMissingEfficiencyData(t *testing.T) {
	// Zero assets: turnover unavailable, efficiency falls back to neutral 50
	assessment := AssessHealth(marketdata.IncomeQuarter{Revenue: 100}, marketdata.BalanceQuarter{})
	if got := assessment.Pillars["efficiency"]; got != 50 {
		t.Errorf("efficiency = %v, want neutral 50", got)
	}
}
