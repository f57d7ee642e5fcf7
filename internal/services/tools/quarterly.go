package tools

import (
	"context"

	"github.com/ternarybob/aestimo/internal/common"
)

// Quarter-over-quarter insight thresholds (percent).
const (
	revenueAccelThreshold   = 5.0
	revenueDeclineThreshold = -5.0
	fcfImproveThreshold     = 10.0
	fcfDeclineThreshold     = -10.0
)

type quarterlyPeriod struct {
	EndDate           string   `json:"end_date"`
	Revenue           float64  `json:"revenue"`
	GrossProfit       float64  `json:"gross_profit"`
	OperatingIncome   float64  `json:"operating_income"`
	NetIncome         float64  `json:"net_income"`
	GrossMargin       *float64 `json:"gross_margin,omitempty"`
	NetMargin         *float64 `json:"net_margin,omitempty"`
	OperatingCashFlow float64  `json:"operating_cash_flow"`
	FreeCashFlow      float64  `json:"free_cash_flow"`
	RevenueQoQ        *float64 `json:"revenue_qoq_pct,omitempty"`
	NetIncomeQoQ      *float64 `json:"net_income_qoq_pct,omitempty"`
	FreeCashFlowQoQ   *float64 `json:"free_cash_flow_qoq_pct,omitempty"`
}

type quarterlyReport struct {
	Ticker   string            `json:"ticker"`
	Quarters int               `json:"quarters"`
	Periods  []quarterlyPeriod `json:"periods"`
	Insights []string          `json:"insights"`
}

// fetchQuarterlyData returns quarterly metrics with QoQ growth and trend
// insights, newest quarter first.
func (c *Catalog) fetchQuarterlyData(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	ticker := common.ParseTicker(argString(args, "ticker"))
	quarters := argInt(args, "quarters", 4)
	metrics := argStringSlice(args, "metrics")

	// One extra quarter so the oldest requested period still gets QoQ
	income, err := c.source.GetQuarterlyIncome(ctx, ticker, quarters+1)
	if err != nil {
		return nil, err
	}
	cashflow, err := c.source.GetQuarterlyCashflow(ctx, ticker, quarters+1)
	if err != nil {
		return nil, err
	}

	cashByDate := make(map[string]int, len(cashflow))
	for i, q := range cashflow {
		cashByDate[q.EndDate.Format("2006-01-02")] = i
	}

	report := quarterlyReport{
		Ticker:   ticker.String(),
		Quarters: quarters,
	}

	for i, q := range income {
		if i >= quarters {
			break
		}
		period := quarterlyPeriod{
			EndDate:         q.EndDate.Format("2006-01-02"),
			Revenue:         q.Revenue,
			GrossProfit:     q.GrossProfit,
			OperatingIncome: q.OperatingIncome,
			NetIncome:       q.NetIncome,
			GrossMargin:     marginPct(q.GrossProfit, q.Revenue),
			NetMargin:       marginPct(q.NetIncome, q.Revenue),
		}
		if idx, ok := cashByDate[period.EndDate]; ok {
			period.OperatingCashFlow = cashflow[idx].OperatingCashFlow
			period.FreeCashFlow = cashflow[idx].FreeCashFlow
		}
		if i+1 < len(income) {
			prev := income[i+1]
			period.RevenueQoQ = pctChange(q.Revenue, prev.Revenue)
			period.NetIncomeQoQ = pctChange(q.NetIncome, prev.NetIncome)
			if idx, ok := cashByDate[period.EndDate]; ok && idx+1 < len(cashflow) {
				period.FreeCashFlowQoQ = pctChange(cashflow[idx].FreeCashFlow, cashflow[idx+1].FreeCashFlow)
			}
		}
		report.Periods = append(report.Periods, filterPeriod(period, metrics))
	}

	report.Insights = quarterlyInsights(report.Periods)

	return report, nil
}

// quarterlyInsights derives trend labels from the latest quarter's QoQ moves.
func quarterlyInsights(periods []quarterlyPeriod) []string {
	insights := []string{}
	if len(periods) == 0 {
		return insights
	}

	latest := periods[0]
	if latest.RevenueQoQ != nil {
		switch {
		case *latest.RevenueQoQ > revenueAccelThreshold:
			insights = append(insights, "Revenue growth is accelerating")
		case *latest.RevenueQoQ < revenueDeclineThreshold:
			insights = append(insights, "Revenue is declining")
		}
	}
	if latest.FreeCashFlowQoQ != nil {
		switch {
		case *latest.FreeCashFlowQoQ > fcfImproveThreshold:
			insights = append(insights, "Free cash flow generation is improving")
		case *latest.FreeCashFlowQoQ < fcfDeclineThreshold:
			insights = append(insights, "Free cash flow is declining")
		}
	}

	return insights
}

// filterPeriod zeroes out fields the caller did not ask for. An empty
// metrics list means everything.
func filterPeriod(period quarterlyPeriod, metrics []string) quarterlyPeriod {
	if len(metrics) == 0 {
		return period
	}

	keep := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		keep[m] = true
	}

	filtered := quarterlyPeriod{EndDate: period.EndDate}
	if keep["revenue"] {
		filtered.Revenue = period.Revenue
		filtered.RevenueQoQ = period.RevenueQoQ
	}
	if keep["gross_profit"] {
		filtered.GrossProfit = period.GrossProfit
	}
	if keep["operating_income"] {
		filtered.OperatingIncome = period.OperatingIncome
	}
	if keep["net_income"] || keep["earnings"] {
		filtered.NetIncome = period.NetIncome
		filtered.NetIncomeQoQ = period.NetIncomeQoQ
	}
	if keep["margins"] {
		filtered.GrossMargin = period.GrossMargin
		filtered.NetMargin = period.NetMargin
	}
	if keep["cash_flow"] || keep["free_cash_flow"] {
		filtered.OperatingCashFlow = period.OperatingCashFlow
		filtered.FreeCashFlow = period.FreeCashFlow
		filtered.FreeCashFlowQoQ = period.FreeCashFlowQoQ
	}
	return filtered
}

func marginPct(part, whole float64) *float64 {
	if whole == 0 {
		return nil
	}
	value := round2(part / whole * 100)
	return &value
}
