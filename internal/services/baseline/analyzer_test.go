package baseline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/marketdata"
	"github.com/ternarybob/aestimo/internal/models"
)

type fixedSource struct {
	income    []marketdata.IncomeQuarter
	balance   []marketdata.BalanceQuarter
	incomeErr error
}

func (f *fixedSource) GetQuarterlyIncome(ctx context.Context, ticker common.Ticker, quarters int) ([]marketdata.IncomeQuarter, error) {
	if f.incomeErr != nil {
		return nil, f.incomeErr
	}
	if len(f.income) > quarters {
		return f.income[:quarters], nil
	}
	return f.income, nil
}

func (f *fixedSource) GetQuarterlyBalance(ctx context.Context, ticker common.Ticker, quarters int) ([]marketdata.BalanceQuarter, error) {
	if len(f.balance) > quarters {
		return f.balance[:quarters], nil
	}
	return f.balance, nil
}

func (f *fixedSource) GetProfile(ctx context.Context, ticker common.Ticker) (*marketdata.Profile, error) {
	return nil, errors.New("not implemented")
}

func (f *fixedSource) GetQuote(ctx context.Context, ticker common.Ticker) (*marketdata.Quote, error) {
	return nil, errors.New("not implemented")
}

func (f *fixedSource) GetQuarterlyCashflow(ctx context.Context, ticker common.Ticker, quarters int) ([]marketdata.CashflowQuarter, error) {
	return nil, errors.New("not implemented")
}

func (f *fixedSource) GetAnalystConsensus(ctx context.Context, ticker common.Ticker, includeHistory bool) (*marketdata.AnalystConsensus, error) {
	return nil, errors.New("not implemented")
}

func (f *fixedSource) GetPriceHistory(ctx context.Context, ticker common.Ticker, days int) (*marketdata.PriceHistory, error) {
	return nil, errors.New("not implemented")
}

func quarterEnd(offset int) time.Time {
	return time.Date(2025, time.Month(9-3*offset), 30, 0, 0, 0, 0, time.UTC)
}

func TestAnalyzeStrongCompany(t *testing.T) {
	// Pillars: liquidity 100, leverage 100, profitability 100, efficiency 40.
	// Overall 85 with accelerating revenue gives STRONG BUY.
	source := &fixedSource{
		income: []marketdata.IncomeQuarter{
			{EndDate: quarterEnd(0), Revenue: 1000, NetIncome: 300},
			{EndDate: quarterEnd(1), Revenue: 900, NetIncome: 250},
		},
		balance: []marketdata.BalanceQuarter{
			{
				EndDate:            quarterEnd(0),
				TotalAssets:        2000,
				CurrentAssets:      900,
				CurrentLiabilities: 400,
				Inventory:          100,
				TotalDebt:          300,
				TotalEquity:        1400,
			},
		},
	}

	result := NewAnalyzer(source, arbor.NewLogger()).Analyze(context.Background(), common.ParseTicker("NASDAQ:AAPL"))

	if result.Recommendation != models.StrongBuy {
		t.Errorf("recommendation = %q, want STRONG BUY", result.Recommendation)
	}
	if !result.Fallback || result.Confidence != models.ConfidenceFallback {
		t.Error("expected fallback-confidence result")
	}
	if !strings.Contains(result.Narrative, "accelerating") {
		t.Errorf("narrative missing trend: %q", result.Narrative)
	}
	if !strings.Contains(result.Narrative, "RECOMMENDATION: STRONG BUY") {
		t.Errorf("narrative missing recommendation line: %q", result.Narrative)
	}
}

func TestAnalyzeDistressedCompany(t *testing.T) {
	// Pillars: liquidity 20, leverage 20, profitability 15, efficiency 40.
	// Overall 23.75 lands below the STRONG SELL cutoff regardless of trend.
	source := &fixedSource{
		income: []marketdata.IncomeQuarter{
			{EndDate: quarterEnd(0), Revenue: 500, NetIncome: -50},
			{EndDate: quarterEnd(1), Revenue: 510, NetIncome: -40},
		},
		balance: []marketdata.BalanceQuarter{
			{
				EndDate:            quarterEnd(0),
				TotalAssets:        1000,
				CurrentAssets:      200,
				CurrentLiabilities: 300,
				Inventory:          150,
				TotalDebt:          700,
				TotalEquity:        100,
			},
		},
	}

	result := NewAnalyzer(source, arbor.NewLogger()).Analyze(context.Background(), common.ParseTicker("NASDAQ:WEAK"))

	if result.Recommendation != models.StrongSell {
		t.Errorf("recommendation = %q, want STRONG SELL", result.Recommendation)
	}
}

func TestAnalyzeWeakAndDeclining(t *testing.T) {
	// Pillars: liquidity 20, leverage 20, profitability 15, efficiency 100.
	// Overall 38.75 with declining revenue gives SELL.
	source := &fixedSource{
		income: []marketdata.IncomeQuarter{
			{EndDate: quarterEnd(0), Revenue: 2000, NetIncome: -50},
			{EndDate: quarterEnd(1), Revenue: 2300, NetIncome: 10},
		},
		balance: []marketdata.BalanceQuarter{
			{
				EndDate:            quarterEnd(0),
				TotalAssets:        1000,
				CurrentAssets:      200,
				CurrentLiabilities: 300,
				Inventory:          150,
				TotalDebt:          700,
				TotalEquity:        100,
			},
		},
	}

	result := NewAnalyzer(source, arbor.NewLogger()).Analyze(context.Background(), common.ParseTicker("NASDAQ:FADE"))

	if result.Recommendation != models.Sell {
		t.Errorf("recommendation = %q, want SELL", result.Recommendation)
	}
	if !strings.Contains(result.Narrative, "declining") {
		t.Errorf("narrative missing trend: %q", result.Narrative)
	}
}

func TestAnalyzeNeverFails(t *testing.T) {
	source := &fixedSource{incomeErr: errors.New("upstream unavailable")}

	result := NewAnalyzer(source, arbor.NewLogger()).Analyze(context.Background(), common.ParseTicker("NASDAQ:GONE"))

	if result == nil {
		t.Fatal("expected a result")
	}
	if result.Recommendation != models.Hold {
		t.Errorf("recommendation = %q, want HOLD", result.Recommendation)
	}
	if !strings.Contains(result.Narrative, "Insufficient data") {
		t.Errorf("narrative = %q", result.Narrative)
	}
}
