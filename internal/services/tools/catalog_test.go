package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/marketdata"
	"github.com/ternarybob/aestimo/internal/models"
)

func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// mockDataSource returns canned data for every gateway operation.
type mockDataSource struct {
	profile   *marketdata.Profile
	quote     *marketdata.Quote
	income    []marketdata.IncomeQuarter
	balance   []marketdata.BalanceQuarter
	cashflow  []marketdata.CashflowQuarter
	consensus *marketdata.AnalystConsensus
	history   *marketdata.PriceHistory
	err       error
}

func (m *mockDataSource) GetProfile(ctx context.Context, ticker common.Ticker) (*marketdata.Profile, error) {
	return m.profile, m.err
}

func (m *mockDataSource) GetQuote(ctx context.Context, ticker common.Ticker) (*marketdata.Quote, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.quote == nil {
		return nil, &marketdata.NotFoundError{Symbol: ticker.String(), Endpoint: "/real-time"}
	}
	return m.quote, nil
}

func (m *mockDataSource) GetQuarterlyIncome(ctx context.Context, ticker common.Ticker, quarters int) ([]marketdata.IncomeQuarter, error) {
	if m.err != nil {
		return nil, m.err
	}
	if quarters < len(m.income) {
		return m.income[:quarters], nil
	}
	return m.income, nil
}

func (m *mockDataSource) GetQuarterlyBalance(ctx context.Context, ticker common.Ticker, quarters int) ([]marketdata.BalanceQuarter, error) {
	if m.err != nil {
		return nil, m.err
	}
	if quarters < len(m.balance) {
		return m.balance[:quarters], nil
	}
	return m.balance, nil
}

func (m *mockDataSource) GetQuarterlyCashflow(ctx context.Context, ticker common.Ticker, quarters int) ([]marketdata.CashflowQuarter, error) {
	if m.err != nil {
		return nil, m.err
	}
	if quarters < len(m.cashflow) {
		return m.cashflow[:quarters], nil
	}
	return m.cashflow, nil
}

func (m *mockDataSource) GetAnalystConsensus(ctx context.Context, ticker common.Ticker, includeHistory bool) (*marketdata.AnalystConsensus, error) {
	return m.consensus, m.err
}

func (m *mockDataSource) GetPriceHistory(ctx context.Context, ticker common.Ticker, days int) (*marketdata.PriceHistory, error) {
	return m.history, m.err
}

func quarterDate(quartersAgo int) time.Time {
	return time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC).AddDate(0, -3*quartersAgo, 0)
}

// healthyCompany builds a mock with solid fundamentals and growing revenue.
func healthyCompany() *mockDataSource {
	income := make([]marketdata.IncomeQuarter, 6)
	cashflow := make([]marketdata.CashflowQuarter, 6)
	balance := make([]marketdata.BalanceQuarter, 6)
	for i := 0; i < 6; i++ {
		revenue := 1000.0 - float64(i)*100 // newest first, growing over time
		income[i] = marketdata.IncomeQuarter{
			EndDate:         quarterDate(i),
			Revenue:         revenue,
			GrossProfit:     revenue * 0.45,
			OperatingIncome: revenue * 0.3,
			NetIncome:       revenue * 0.25,
		}
		cashflow[i] = marketdata.CashflowQuarter{
			EndDate:            quarterDate(i),
			OperatingCashFlow:  revenue * 0.3,
			CapitalExpenditure: revenue * 0.05,
			FreeCashFlow:       revenue * 0.25,
		}
		balance[i] = marketdata.BalanceQuarter{
			EndDate:            quarterDate(i),
			TotalAssets:        2000,
			TotalLiabilities:   600,
			CurrentAssets:      900,
			CurrentLiabilities: 400,
			Inventory:          100,
			Cash:               500,
			TotalDebt:          300,
			TotalEquity:        1400,
		}
	}
	return &mockDataSource{
		profile: &marketdata.Profile{
			Symbol:    "NASDAQ:TEST",
			Name:      "Test Corp",
			Sector:    "Technology",
			Industry:  "Software",
			MarketCap: 50000,
			PERatio:   25,
		},
		quote: &marketdata.Quote{
			Symbol:        "NASDAQ:TEST",
			Price:         110,
			PreviousClose: 108,
			ChangePercent: 1.85,
			Volume:        1200000,
		},
		income:   income,
		balance:  balance,
		cashflow: cashflow,
		consensus: &marketdata.AnalystConsensus{
			Symbol:    "NASDAQ:TEST",
			Rating:    4.3,
			StrongBuy: 10,
			Buy:       8,
			Hold:      3,
		},
		history: &marketdata.PriceHistory{
			Symbol: "NASDAQ:TEST",
			Points: []marketdata.PricePoint{
				{Date: quarterDate(1), Close: 100},
				{Date: quarterDate(0), Close: 110},
			},
		},
	}
}

func TestCatalogHasSevenTools(t *testing.T) {
	catalog := NewCatalog(healthyCompany(), createTestLogger())

	schemas := catalog.Schemas()
	if len(schemas) != 7 {
		t.Fatalf("tool count = %d, want 7", len(schemas))
	}

	want := []string{
		"assess_financial_health",
		"calculate_financial_ratios",
		"compare_with_peers",
		"detect_financial_anomalies",
		"fetch_market_context",
		"fetch_quarterly_data",
		"get_analyst_consensus",
	}
	for i, schema := range schemas {
		if schema.Name != want[i] {
			t.Errorf("schemas[%d] = %q, want %q", i, schema.Name, want[i])
		}
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	catalog := NewCatalog(healthyCompany(), createTestLogger())

	result := catalog.Execute(context.Background(), models.ToolCall{
		ID:   "call-1",
		Name: "no_such_tool",
	})

	if !result.IsError {
		t.Fatal("expected error result for unknown tool")
	}
	if result.ToolCallID != "call-1" {
		t.Errorf("ToolCallID = %q, want call-1", result.ToolCallID)
	}
}

func TestExecuteValidation(t *testing.T) {
	catalog := NewCatalog(healthyCompany(), createTestLogger())

	tests := []struct {
		name string
		call models.ToolCall
	}{
		{
			"missing required ticker",
			models.ToolCall{Name: "fetch_quarterly_data", Arguments: map[string]interface{}{}},
		},
		{
			"quarters out of range",
			models.ToolCall{Name: "fetch_quarterly_data", Arguments: map[string]interface{}{
				"ticker": "TEST", "quarters": float64(20),
			}},
		},
		{
			"quarters wrong type",
			models.ToolCall{Name: "fetch_quarterly_data", Arguments: map[string]interface{}{
				"ticker": "TEST", "quarters": "four",
			}},
		},
		{
			"unknown argument",
			models.ToolCall{Name: "fetch_quarterly_data", Arguments: map[string]interface{}{
				"ticker": "TEST", "bogus": true,
			}},
		},
		{
			"bad enum value",
			models.ToolCall{Name: "detect_financial_anomalies", Arguments: map[string]interface{}{
				"ticker": "TEST", "sensitivity": "extreme",
			}},
		},
		{
			"bad timeframe",
			models.ToolCall{Name: "fetch_market_context", Arguments: map[string]interface{}{
				"ticker": "TEST", "timeframe": "2W",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := catalog.Execute(context.Background(), tt.call)
			if !result.IsError {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestExecuteFetchQuarterlyData(t *testing.T) {
	catalog := NewCatalog(healthyCompany(), createTestLogger())

	result := catalog.Execute(context.Background(), models.ToolCall{
		ID:   "call-2",
		Name: "fetch_quarterly_data",
		Arguments: map[string]interface{}{
			"ticker":   "NASDAQ:TEST",
			"quarters": float64(4),
		},
	})

	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}

	var report quarterlyReport
	if err := json.Unmarshal([]byte(result.Content), &report); err != nil {
		t.Fatalf("result content is not valid JSON: %v", err)
	}
	if len(report.Periods) != 4 {
		t.Errorf("periods = %d, want 4", len(report.Periods))
	}
	// 1000 vs 900 previous quarter is +11.1%, above the +5% threshold
	foundAccel := false
	for _, insight := range report.Insights {
		if strings.Contains(insight, "accelerating") {
			foundAccel = true
		}
	}
	if !foundAccel {
		t.Errorf("insights = %v, want revenue acceleration flagged", report.Insights)
	}
}

func TestExecuteToolHandlerError(t *testing.T) {
	source := healthyCompany()
	source.err = &marketdata.NotFoundError{Symbol: "NASDAQ:TEST", Endpoint: "/fundamentals"}
	catalog := NewCatalog(source, createTestLogger())

	result := catalog.Execute(context.Background(), models.ToolCall{
		Name:      "assess_financial_health",
		Arguments: map[string]interface{}{"ticker": "NASDAQ:TEST"},
	})

	if !result.IsError {
		t.Fatal("expected error result when gateway fails")
	}
	if !strings.Contains(result.Content, "no data") {
		t.Errorf("Content = %q, want upstream error message", result.Content)
	}
}
