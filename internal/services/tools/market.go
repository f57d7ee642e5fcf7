package tools

import (
	"context"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/marketdata"
)

// Benchmark indices reported by fetch_market_context.
var marketIndices = []struct {
	Symbol string
	Name   string
}{
	{"^GSPC", "S&P 500"},
	{"^DJI", "Dow Jones Industrial Average"},
	{"^IXIC", "NASDAQ Composite"},
}

// sectorETFs maps upstream sector names to their SPDR sector ETF.
var sectorETFs = map[string]string{
	"Technology":             "XLK",
	"Healthcare":             "XLV",
	"Financial Services":     "XLF",
	"Financial":              "XLF",
	"Consumer Cyclical":      "XLY",
	"Consumer Defensive":     "XLP",
	"Energy":                 "XLE",
	"Industrials":            "XLI",
	"Basic Materials":        "XLB",
	"Utilities":              "XLU",
	"Real Estate":            "XLRE",
	"Communication Services": "XLC",
}

// timeframeDays maps the timeframe enum to calendar days.
var timeframeDays = map[string]int{
	"1M": 30,
	"3M": 91,
	"6M": 182,
	"1Y": 365,
}

type performanceEntry struct {
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name,omitempty"`
	ChangePct  *float64 `json:"change_pct"`
	StartClose float64  `json:"start_close,omitempty"`
	EndClose   float64  `json:"end_close,omitempty"`
}

type marketContext struct {
	Ticker    string             `json:"ticker"`
	Timeframe string             `json:"timeframe"`
	Quote     *marketdata.Quote  `json:"quote,omitempty"`
	Indices   []performanceEntry `json:"indices"`
	Sector    *performanceEntry  `json:"sector,omitempty"`
	Notes     []string           `json:"notes,omitempty"`
}

// fetchMarketContext reports the subject's current quote and index
// performance over the timeframe, plus the company's sector ETF when
// requested. A quote or index that fails to load becomes a note, not a
// failure.
func (c *Catalog) fetchMarketContext(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	ticker := common.ParseTicker(argString(args, "ticker"))
	timeframe := argString(args, "timeframe")
	if timeframe == "" {
		timeframe = "3M"
	}
	days := timeframeDays[timeframe]

	result := marketContext{
		Ticker:    ticker.String(),
		Timeframe: timeframe,
	}

	quote, err := c.source.GetQuote(ctx, ticker)
	if err != nil {
		result.Notes = append(result.Notes, "current quote unavailable")
	} else {
		result.Quote = quote
	}

	for _, index := range marketIndices {
		entry, err := c.performance(ctx, common.ParseTicker(index.Symbol), days)
		if err != nil {
			result.Notes = append(result.Notes, index.Name+" unavailable")
			continue
		}
		entry.Name = index.Name
		result.Indices = append(result.Indices, *entry)
	}

	if argBool(args, "include_sector") {
		profile, err := c.source.GetProfile(ctx, ticker)
		if err != nil {
			return nil, err
		}
		if etf, ok := sectorETFs[profile.Sector]; ok {
			entry, err := c.performance(ctx, common.ParseTicker(etf), days)
			if err != nil {
				result.Notes = append(result.Notes, "sector ETF "+etf+" unavailable")
			} else {
				entry.Name = profile.Sector + " sector (" + etf + ")"
				result.Sector = entry
			}
		} else if profile.Sector != "" {
			result.Notes = append(result.Notes, "no sector ETF mapping for "+profile.Sector)
		}
	}

	return result, nil
}

func (c *Catalog) performance(ctx context.Context, ticker common.Ticker, days int) (*performanceEntry, error) {
	history, err := c.source.GetPriceHistory(ctx, ticker, days)
	if err != nil {
		return nil, err
	}

	entry := &performanceEntry{Symbol: ticker.String()}
	if len(history.Points) > 0 {
		entry.StartClose = history.Points[0].Close
		entry.EndClose = history.Points[len(history.Points)-1].Close
		entry.ChangePct = pctChange(entry.EndClose, entry.StartClose)
	}
	return entry, nil
}
