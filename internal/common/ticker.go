package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "NASDAQ:AAPL", "ASX:BHP")
type Ticker struct {
	// Exchange is the exchange code (e.g., "NASDAQ", "NYSE", "ASX")
	Exchange string
	// Code is the stock/security code (e.g., "AAPL", "BHP")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps exchange codes to upstream API suffixes.
var ExchangeToSuffix = map[string]string{
	"NYSE":   ".US",
	"NASDAQ": ".US",
	"AMEX":   ".US",
	"ASX":    ".AU",
	"LSE":    ".LSE",
	"TSX":    ".TO",
	"XETRA":  ".XETRA",
}

// IndexToUpstream maps benchmark index symbols to upstream index symbols.
var IndexToUpstream = map[string]string{
	"^GSPC": "GSPC.INDX", // S&P 500
	"^DJI":  "DJI.INDX",  // Dow Jones Industrial Average
	"^IXIC": "IXIC.INDX", // NASDAQ Composite
}

// DefaultExchange is used when parsing tickers without an exchange prefix.
// Can be overridden via [marketdata] default_exchange in TOML.
var DefaultExchange = "NASDAQ"

// SetDefaultExchange sets the default exchange for parsing tickers.
// Called during app initialization from config.
func SetDefaultExchange(exchange string) {
	if exchange != "" {
		DefaultExchange = strings.ToUpper(exchange)
	}
}

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "NASDAQ:AAPL" -> Exchange="NASDAQ", Code="AAPL"
//   - "AAPL"        -> Exchange=DefaultExchange, Code="AAPL"
//   - "aapl"        -> normalized to uppercase
//   - "^GSPC"       -> index symbol, passed through with no exchange
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	// Index symbols (^GSPC, ^DJI, ^IXIC) carry no exchange qualifier
	if strings.HasPrefix(ticker, "^") {
		return Ticker{
			Code: strings.ToUpper(ticker),
			Raw:  ticker,
		}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(ticker[idx+1:]),
			Raw:      ticker,
		}
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// IsIndex reports whether the ticker is a benchmark index symbol.
func (t Ticker) IsIndex() bool {
	return strings.HasPrefix(t.Code, "^")
}

// UpstreamSymbol returns the CODE.EXCHANGE symbol format expected by the
// market-data provider. Example: "NASDAQ:AAPL" -> "AAPL.US", "^GSPC" ->
// "GSPC.INDX".
func (t Ticker) UpstreamSymbol() string {
	if t.Code == "" {
		return ""
	}
	if t.IsIndex() {
		if mapped, ok := IndexToUpstream[t.Code]; ok {
			return mapped
		}
		return strings.TrimPrefix(t.Code, "^") + ".INDX"
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		// Default to US for unknown exchanges
		suffix = ".US"
	}
	return t.Code + suffix
}

// ParseTickers parses a list of ticker strings, dropping empty entries.
func ParseTickers(tickers []string) []Ticker {
	result := make([]Ticker, 0, len(tickers))
	for _, t := range tickers {
		if parsed := ParseTicker(t); parsed.Code != "" {
			result = append(result, parsed)
		}
	}
	return result
}
