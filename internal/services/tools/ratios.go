package tools

import (
	"context"
	"fmt"

	"github.com/ternarybob/aestimo/internal/common"
)

type ratioReport struct {
	Ticker     string                         `json:"ticker"`
	AsOf       string                         `json:"as_of"`
	Categories map[string]map[string]*float64 `json:"categories"`
	Sector     string                         `json:"sector,omitempty"`
	Industry   string                         `json:"industry,omitempty"`
}

// calculateFinancialRatios computes ratio categories from the latest
// quarterly statements. Ratios with a zero denominator are omitted rather
// than reported as NaN.
func (c *Catalog) calculateFinancialRatios(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	ticker := common.ParseTicker(argString(args, "ticker"))
	categories := argStringSlice(args, "ratios")
	includeIndustry := argBool(args, "include_industry")

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

	inc := income[0]
	bal := balance[0]

	report := ratioReport{
		Ticker:     ticker.String(),
		AsOf:       bal.EndDate.Format("2006-01-02"),
		Categories: make(map[string]map[string]*float64),
	}

	for _, category := range categories {
		switch category {
		case "liquidity":
			report.Categories[category] = map[string]*float64{
				"current_ratio": safeRatio(bal.CurrentAssets, bal.CurrentLiabilities),
				"quick_ratio":   safeRatio(bal.CurrentAssets-bal.Inventory, bal.CurrentLiabilities),
				"cash_ratio":    safeRatio(bal.Cash, bal.CurrentLiabilities),
			}
		case "leverage":
			report.Categories[category] = map[string]*float64{
				"debt_to_equity": safeRatio(bal.TotalDebt, bal.TotalEquity),
				"debt_to_assets": safeRatio(bal.TotalDebt, bal.TotalAssets),
				"equity_ratio":   safeRatio(bal.TotalEquity, bal.TotalAssets),
			}
		case "profitability":
			report.Categories[category] = map[string]*float64{
				"net_margin_pct":   marginPct(inc.NetIncome, inc.Revenue),
				"gross_margin_pct": marginPct(inc.GrossProfit, inc.Revenue),
				"roe_pct":          marginPct(inc.NetIncome, bal.TotalEquity),
				"roa_pct":          marginPct(inc.NetIncome, bal.TotalAssets),
			}
		case "efficiency":
			report.Categories[category] = map[string]*float64{
				"asset_turnover": safeRatio(inc.Revenue, bal.TotalAssets),
			}
		case "valuation":
			profile, err := c.source.GetProfile(ctx, ticker)
			if err != nil {
				return nil, err
			}
			valuation := map[string]*float64{}
			if profile.PERatio != 0 {
				pe := round2(profile.PERatio)
				valuation["pe_ratio"] = &pe
			}
			if profile.MarketCap != 0 {
				cap := profile.MarketCap
				valuation["market_cap"] = &cap
			}
			report.Categories[category] = valuation
		default:
			return nil, fmt.Errorf("unknown ratio category %q", category)
		}
	}

	if includeIndustry {
		profile, err := c.source.GetProfile(ctx, ticker)
		if err == nil {
			report.Sector = profile.Sector
			report.Industry = profile.Industry
		}
	}

	// Ratios with zero denominators are dropped, not reported as null
	for _, ratios := range report.Categories {
		for name, value := range ratios {
			if value == nil {
				delete(ratios, name)
			}
		}
	}

	return report, nil
}
