package tools

import (
	"github.com/ternarybob/aestimo/internal/models"
)

// Tool schemas handed to the decision model. Kept as plain JSON Schema
// fragments so each provider client can translate them to its native
// declaration format.

var fetchQuarterlyDataSchema = models.ToolSchema{
	Name:        "fetch_quarterly_data",
	Description: "Fetch quarterly financial data for a company including revenue, earnings, margins, and cash flow with quarter-over-quarter trends.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ticker": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol (e.g., AAPL, NASDAQ:MSFT)",
			},
			"quarters": map[string]interface{}{
				"type":        "integer",
				"description": "Number of quarters to fetch (1-12, default 4)",
				"minimum":     1,
				"maximum":     12,
			},
			"metrics": map[string]interface{}{
				"type":        "array",
				"description": "Specific metrics to include (default: all)",
				"items":       map[string]interface{}{"type": "string"},
			},
		},
		"required": []string{"ticker"},
	},
}

var calculateFinancialRatiosSchema = models.ToolSchema{
	Name:        "calculate_financial_ratios",
	Description: "Calculate financial ratios by category: liquidity, leverage, profitability, efficiency, valuation.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ticker": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol",
			},
			"ratios": map[string]interface{}{
				"type":        "array",
				"description": "Ratio categories to calculate (liquidity, leverage, profitability, efficiency, valuation)",
				"items":       map[string]interface{}{"type": "string"},
			},
			"include_industry": map[string]interface{}{
				"type":        "boolean",
				"description": "Include sector and industry context",
			},
		},
		"required": []string{"ticker", "ratios"},
	},
}

var compareWithPeersSchema = models.ToolSchema{
	Name:        "compare_with_peers",
	Description: "Compare a company against peer companies across selected metrics, with per-metric rankings.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ticker": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol of the subject company",
			},
			"peers": map[string]interface{}{
				"type":        "array",
				"description": "Peer ticker symbols to compare against",
				"items":       map[string]interface{}{"type": "string"},
			},
			"metrics": map[string]interface{}{
				"type":        "array",
				"description": "Metrics to compare (revenue, net_income, net_margin, roe, debt_to_equity, market_cap, pe_ratio)",
				"items":       map[string]interface{}{"type": "string"},
			},
		},
		"required": []string{"ticker", "peers", "metrics"},
	},
}

var getAnalystConsensusSchema = models.ToolSchema{
	Name:        "get_analyst_consensus",
	Description: "Get analyst consensus rating and rating distribution for a company.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ticker": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol",
			},
			"include_history": map[string]interface{}{
				"type":        "boolean",
				"description": "Include estimate revision history",
			},
		},
		"required": []string{"ticker"},
	},
}

var fetchMarketContextSchema = models.ToolSchema{
	Name:        "fetch_market_context",
	Description: "Fetch broad market context: major index performance and optionally the company's sector ETF performance.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ticker": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol",
			},
			"include_sector": map[string]interface{}{
				"type":        "boolean",
				"description": "Include sector ETF performance",
			},
			"timeframe": map[string]interface{}{
				"type":        "string",
				"description": "Performance window",
				"enum":        []string{"1M", "3M", "6M", "1Y"},
			},
		},
		"required": []string{"ticker"},
	},
}

var detectFinancialAnomaliesSchema = models.ToolSchema{
	Name:        "detect_financial_anomalies",
	Description: "Detect statistical anomalies in quarterly financial series using z-score analysis.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ticker": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol",
			},
			"lookback_periods": map[string]interface{}{
				"type":        "integer",
				"description": "Number of quarters to analyze (4-20, default 8)",
				"minimum":     4,
				"maximum":     20,
			},
			"sensitivity": map[string]interface{}{
				"type":        "string",
				"description": "Detection sensitivity",
				"enum":        []string{"low", "medium", "high"},
			},
		},
		"required": []string{"ticker"},
	},
}

var assessFinancialHealthSchema = models.ToolSchema{
	Name:        "assess_financial_health",
	Description: "Assess overall financial health across liquidity, leverage, profitability, and efficiency with 0-100 scores.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ticker": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol",
			},
			"include_scores": map[string]interface{}{
				"type":        "boolean",
				"description": "Include per-pillar score breakdown",
			},
		},
		"required": []string{"ticker"},
	},
}
