package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/ternarybob/aestimo/internal/common"
)

// Z-score thresholds per sensitivity level.
var sensitivityThresholds = map[string]float64{
	"low":    2.0,
	"medium": 1.5,
	"high":   1.0,
}

type anomaly struct {
	Series  string  `json:"series"`
	EndDate string  `json:"end_date"`
	Value   float64 `json:"value"`
	ZScore  float64 `json:"z_score"`
}

type anomalyReport struct {
	Ticker          string    `json:"ticker"`
	LookbackPeriods int       `json:"lookback_periods"`
	Sensitivity     string    `json:"sensitivity"`
	Threshold       float64   `json:"threshold"`
	Anomalies       []anomaly `json:"anomalies"`
	SeriesAnalyzed  []string  `json:"series_analyzed"`
}

// detectFinancialAnomalies flags quarterly values whose z-score against the
// lookback window exceeds the sensitivity threshold.
func (c *Catalog) detectFinancialAnomalies(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	ticker := common.ParseTicker(argString(args, "ticker"))
	lookback := argInt(args, "lookback_periods", 8)
	sensitivity := argString(args, "sensitivity")
	if sensitivity == "" {
		sensitivity = "medium"
	}
	threshold := sensitivityThresholds[sensitivity]

	income, err := c.source.GetQuarterlyIncome(ctx, ticker, lookback)
	if err != nil {
		return nil, err
	}
	cashflow, err := c.source.GetQuarterlyCashflow(ctx, ticker, lookback)
	if err != nil {
		return nil, err
	}
	if len(income) < 4 {
		return nil, fmt.Errorf("need at least 4 quarters for anomaly detection, have %d", len(income))
	}

	type series struct {
		name   string
		dates  []string
		values []float64
	}

	collected := []series{
		{name: "revenue"},
		{name: "net_income"},
		{name: "gross_margin_pct"},
		{name: "operating_cash_flow"},
	}
	for _, q := range income {
		date := q.EndDate.Format("2006-01-02")
		collected[0].dates = append(collected[0].dates, date)
		collected[0].values = append(collected[0].values, q.Revenue)
		collected[1].dates = append(collected[1].dates, date)
		collected[1].values = append(collected[1].values, q.NetIncome)
		if margin := marginPct(q.GrossProfit, q.Revenue); margin != nil {
			collected[2].dates = append(collected[2].dates, date)
			collected[2].values = append(collected[2].values, *margin)
		}
	}
	for _, q := range cashflow {
		collected[3].dates = append(collected[3].dates, q.EndDate.Format("2006-01-02"))
		collected[3].values = append(collected[3].values, q.OperatingCashFlow)
	}

	report := anomalyReport{
		Ticker:          ticker.String(),
		LookbackPeriods: lookback,
		Sensitivity:     sensitivity,
		Threshold:       threshold,
		Anomalies:       []anomaly{},
	}

	for _, s := range collected {
		if len(s.values) < 4 {
			continue
		}
		report.SeriesAnalyzed = append(report.SeriesAnalyzed, s.name)

		m := mean(s.values)
		sd := stddev(s.values)
		if sd == 0 {
			continue
		}
		for i, v := range s.values {
			z := (v - m) / sd
			if math.Abs(z) >= threshold {
				report.Anomalies = append(report.Anomalies, anomaly{
					Series:  s.name,
					EndDate: s.dates[i],
					Value:   v,
					ZScore:  round2(z),
				})
			}
		}
	}

	return report, nil
}
