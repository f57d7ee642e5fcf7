package tools

import (
	"context"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/marketdata"
)

type consensusReport struct {
	Ticker       string                    `json:"ticker"`
	Consensus    string                    `json:"consensus"`
	Rating       float64                   `json:"rating"`
	TargetPrice  float64                   `json:"target_price,omitempty"`
	Distribution map[string]int            `json:"distribution"`
	TotalCovered int                       `json:"analysts_covered"`
	History      []marketdata.RatingsTrend `json:"history,omitempty"`
}

// getAnalystConsensus summarizes the analyst rating distribution.
func (c *Catalog) getAnalystConsensus(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	ticker := common.ParseTicker(argString(args, "ticker"))
	includeHistory := argBool(args, "include_history")

	ratings, err := c.source.GetAnalystConsensus(ctx, ticker, includeHistory)
	if err != nil {
		return nil, err
	}

	total := ratings.StrongBuy + ratings.Buy + ratings.Hold + ratings.Sell + ratings.StrongSell

	return consensusReport{
		Ticker:      ticker.String(),
		Consensus:   consensusLabel(ratings, total),
		Rating:      ratings.Rating,
		TargetPrice: ratings.TargetPrice,
		Distribution: map[string]int{
			"strong_buy":  ratings.StrongBuy,
			"buy":         ratings.Buy,
			"hold":        ratings.Hold,
			"sell":        ratings.Sell,
			"strong_sell": ratings.StrongSell,
		},
		TotalCovered: total,
		History:      ratings.History,
	}, nil
}

// consensusLabel maps the rating distribution to a label. Weighted score:
// strong buy 5 .. strong sell 1, matching the upstream rating scale.
func consensusLabel(r *marketdata.AnalystConsensus, total int) string {
	if total == 0 {
		return "NO COVERAGE"
	}

	score := float64(5*r.StrongBuy+4*r.Buy+3*r.Hold+2*r.Sell+1*r.StrongSell) / float64(total)
	switch {
	case score >= 4.5:
		return "STRONG BUY"
	case score >= 3.5:
		return "BUY"
	case score >= 2.5:
		return "HOLD"
	case score >= 1.5:
		return "SELL"
	default:
		return "STRONG SELL"
	}
}
