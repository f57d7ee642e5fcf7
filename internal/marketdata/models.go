package marketdata

import (
	"time"
)

// Profile contains general company information.
type Profile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	Industry  string  `json:"industry"`
	Currency  string  `json:"currency"`
	MarketCap float64 `json:"market_cap"`
	PERatio   float64 `json:"pe_ratio"`
}

// Quote is the latest traded price for a symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
}

// IncomeQuarter is one quarterly income statement, normalized.
type IncomeQuarter struct {
	EndDate         time.Time `json:"end_date"`
	Revenue         float64   `json:"revenue"`
	GrossProfit     float64   `json:"gross_profit"`
	OperatingIncome float64   `json:"operating_income"`
	NetIncome       float64   `json:"net_income"`
}

// BalanceQuarter is one quarterly balance sheet, normalized.
type BalanceQuarter struct {
	EndDate            time.Time `json:"end_date"`
	TotalAssets        float64   `json:"total_assets"`
	TotalLiabilities   float64   `json:"total_liabilities"`
	CurrentAssets      float64   `json:"current_assets"`
	CurrentLiabilities float64   `json:"current_liabilities"`
	Inventory          float64   `json:"inventory"`
	Cash               float64   `json:"cash"`
	TotalDebt          float64   `json:"total_debt"`
	TotalEquity        float64   `json:"total_equity"`
}

// CashflowQuarter is one quarterly cash-flow statement, normalized.
type CashflowQuarter struct {
	EndDate            time.Time `json:"end_date"`
	OperatingCashFlow  float64   `json:"operating_cash_flow"`
	CapitalExpenditure float64   `json:"capital_expenditure"`
	FreeCashFlow       float64   `json:"free_cash_flow"`
}

// AnalystConsensus summarizes analyst ratings for a symbol.
type AnalystConsensus struct {
	Symbol      string         `json:"symbol"`
	Rating      float64        `json:"rating"`
	TargetPrice float64        `json:"target_price"`
	StrongBuy   int            `json:"strong_buy"`
	Buy         int            `json:"buy"`
	Hold        int            `json:"hold"`
	Sell        int            `json:"sell"`
	StrongSell  int            `json:"strong_sell"`
	History     []RatingsTrend `json:"history,omitempty"`
}

// RatingsTrend is a single point of analyst estimate history.
type RatingsTrend struct {
	Date              string  `json:"date"`
	Period            string  `json:"period"`
	Growth            float64 `json:"growth"`
	RevisionsUp30Days int     `json:"revisions_up_30d"`
	RevisionsDown30D  int     `json:"revisions_down_30d"`
}

// PricePoint is one daily close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceHistory is a series of daily closes for a symbol.
type PriceHistory struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// eodBar matches the upstream end-of-day payload.
type eodBar struct {
	Date          string  `json:"date"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// realTimeQuote matches the upstream real-time payload. Numeric fields
// arrive as numbers, or as the string "NA" outside trading data coverage.
type realTimeQuote struct {
	Code          string      `json:"code"`
	Close         interface{} `json:"close"`
	PreviousClose interface{} `json:"previousClose"`
	ChangeP       interface{} `json:"change_p"`
	Volume        interface{} `json:"volume"`
}

// fundamentalsPayload matches the slice of the upstream fundamentals
// document the gateway consumes.
type fundamentalsPayload struct {
	General *struct {
		Code         string `json:"Code"`
		Name         string `json:"Name"`
		Sector       string `json:"Sector"`
		Industry     string `json:"Industry"`
		CurrencyCode string `json:"CurrencyCode"`
	} `json:"General"`
	Highlights *struct {
		MarketCapitalization float64 `json:"MarketCapitalization"`
		PERatio              float64 `json:"PERatio"`
	} `json:"Highlights"`
	AnalystRatings *struct {
		Rating      float64 `json:"Rating"`
		TargetPrice float64 `json:"TargetPrice"`
		StrongBuy   int     `json:"StrongBuy"`
		Buy         int     `json:"Buy"`
		Hold        int     `json:"Hold"`
		Sell        int     `json:"Sell"`
		StrongSell  int     `json:"StrongSell"`
	} `json:"AnalystRatings"`
	Earnings *struct {
		// Trend numerics arrive as strings for some symbols
		Trend []struct {
			Date                       string      `json:"date"`
			Period                     string      `json:"period"`
			Growth                     interface{} `json:"growth"`
			EPSRevisionsUpLast30Days   interface{} `json:"epsRevisionsUpLast30days"`
			EPSRevisionsDownLast30Days interface{} `json:"epsRevisionsDownLast30days"`
		} `json:"Trend"`
	} `json:"Earnings"`
	Financials *struct {
		BalanceSheet    *statementBlock `json:"Balance_Sheet"`
		CashFlow        *statementBlock `json:"Cash_Flow"`
		IncomeStatement *statementBlock `json:"Income_Statement"`
	} `json:"Financials"`
}

// statementBlock holds quarterly statement rows keyed by end date.
// Field values arrive as strings or numbers depending on the symbol.
type statementBlock struct {
	Currency  string                            `json:"currency"`
	Quarterly map[string]map[string]interface{} `json:"quarterly"`
}
