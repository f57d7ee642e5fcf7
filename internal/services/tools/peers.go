package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/aestimo/internal/common"
)

// Metrics where a smaller value ranks better.
var lowerIsBetter = map[string]bool{
	"debt_to_equity": true,
	"pe_ratio":       true,
}

type peerEntry struct {
	Ticker string   `json:"ticker"`
	Value  *float64 `json:"value"`
	Rank   int      `json:"rank,omitempty"`
}

type peerComparison struct {
	Ticker   string                 `json:"ticker"`
	Peers    []string               `json:"peers"`
	Metrics  map[string][]peerEntry `json:"metrics"`
	Failures []string               `json:"failures,omitempty"`
}

// compareWithPeers ranks the subject company against peers per metric.
// Peers that fail to load are reported, not fatal.
func (c *Catalog) compareWithPeers(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	subject := common.ParseTicker(argString(args, "ticker"))
	peerNames := argStringSlice(args, "peers")
	metrics := argStringSlice(args, "metrics")

	if len(peerNames) == 0 {
		return nil, fmt.Errorf("at least one peer is required")
	}

	tickers := append([]common.Ticker{subject}, common.ParseTickers(peerNames)...)

	comparison := peerComparison{
		Ticker:  subject.String(),
		Peers:   peerNames,
		Metrics: make(map[string][]peerEntry),
	}

	values := make(map[string]map[string]*float64) // ticker -> metric -> value
	for _, ticker := range tickers {
		metricValues, err := c.peerMetrics(ctx, ticker, metrics)
		if err != nil {
			comparison.Failures = append(comparison.Failures, fmt.Sprintf("%s: %v", ticker.String(), err))
			continue
		}
		values[ticker.String()] = metricValues
	}

	if _, ok := values[subject.String()]; !ok {
		return nil, fmt.Errorf("failed to load data for subject %s", subject.String())
	}

	for _, metric := range metrics {
		entries := make([]peerEntry, 0, len(values))
		for name, metricValues := range values {
			entries = append(entries, peerEntry{Ticker: name, Value: metricValues[metric]})
		}

		sort.Slice(entries, func(i, j int) bool {
			// Missing values sink to the bottom
			if entries[i].Value == nil {
				return false
			}
			if entries[j].Value == nil {
				return true
			}
			if lowerIsBetter[metric] {
				return *entries[i].Value < *entries[j].Value
			}
			return *entries[i].Value > *entries[j].Value
		})
		for i := range entries {
			if entries[i].Value != nil {
				entries[i].Rank = i + 1
			}
		}

		comparison.Metrics[metric] = entries
	}

	return comparison, nil
}

// peerMetrics computes the requested metric values for one ticker.
func (c *Catalog) peerMetrics(ctx context.Context, ticker common.Ticker, metrics []string) (map[string]*float64, error) {
	income, err := c.source.GetQuarterlyIncome(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	balance, err := c.source.GetQuarterlyBalance(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	if len(income) == 0 || len(balance) == 0 {
		return nil, fmt.Errorf("insufficient statement data")
	}

	inc := income[0]
	bal := balance[0]

	result := make(map[string]*float64, len(metrics))
	for _, metric := range metrics {
		switch metric {
		case "revenue":
			v := inc.Revenue
			result[metric] = &v
		case "net_income":
			v := inc.NetIncome
			result[metric] = &v
		case "net_margin":
			result[metric] = marginPct(inc.NetIncome, inc.Revenue)
		case "roe":
			result[metric] = marginPct(inc.NetIncome, bal.TotalEquity)
		case "debt_to_equity":
			result[metric] = safeRatio(bal.TotalDebt, bal.TotalEquity)
		case "market_cap", "pe_ratio":
			profile, err := c.source.GetProfile(ctx, ticker)
			if err != nil {
				return nil, err
			}
			if metric == "market_cap" && profile.MarketCap != 0 {
				v := profile.MarketCap
				result[metric] = &v
			}
			if metric == "pe_ratio" && profile.PERatio != 0 {
				v := round2(profile.PERatio)
				result[metric] = &v
			}
		default:
			return nil, fmt.Errorf("unknown metric %q", metric)
		}
	}

	return result, nil
}
