package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/aestimo/internal/common"
)

const testFundamentals = `{
	"General": {"Code": "AAPL", "Name": "Apple Inc", "Sector": "Technology", "Industry": "Consumer Electronics", "CurrencyCode": "USD"},
	"Highlights": {"MarketCapitalization": 3000000000000, "PERatio": 31.5},
	"AnalystRatings": {"Rating": 4.2, "TargetPrice": 250, "StrongBuy": 12, "Buy": 20, "Hold": 8, "Sell": 1, "StrongSell": 0},
	"Financials": {
		"Income_Statement": {
			"currency": "USD",
			"quarterly": {
				"2025-06-30": {"totalRevenue": "94000000000", "grossProfit": "43000000000", "operatingIncome": "28000000000", "netIncome": "23000000000"},
				"2025-03-31": {"totalRevenue": "90000000000", "grossProfit": "42000000000", "operatingIncome": "27000000000", "netIncome": "22000000000"}
			}
		},
		"Balance_Sheet": {
			"currency": "USD",
			"quarterly": {
				"2025-06-30": {"totalAssets": "350000000000", "totalLiab": "280000000000", "totalCurrentAssets": "140000000000", "totalCurrentLiabilities": "130000000000", "inventory": "7000000000", "cash": "30000000000", "shortLongTermDebtTotal": "100000000000", "totalStockholderEquity": "70000000000"}
			}
		},
		"Cash_Flow": {
			"currency": "USD",
			"quarterly": {
				"2025-06-30": {"totalCashFromOperatingActivities": "28000000000", "capitalExpenditures": "3000000000"}
			}
		}
	}
}`

// newTestGateway points a gateway at a test server with pacing collapsed so
// tests run fast.
func newTestGateway(serverURL string) *Gateway {
	return NewGateway("test-key",
		WithBaseURL(serverURL),
		WithMinInterval(time.Millisecond, 0, 0),
		WithRetry(3, time.Millisecond),
		WithRateLimitWait(time.Millisecond, 2*time.Millisecond),
	)
}

func TestGatewayCachesFundamentals(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(testFundamentals))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)
	ticker := common.ParseTicker("NASDAQ:AAPL")
	ctx := context.Background()

	profile, err := gateway.GetProfile(ctx, ticker)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Sector != "Technology" {
		t.Errorf("Sector = %q, want Technology", profile.Sector)
	}

	// Profile, income, balance, cashflow, and analysts all read the same
	// cached fundamentals document
	if _, err := gateway.GetQuarterlyIncome(ctx, ticker, 4); err != nil {
		t.Fatalf("GetQuarterlyIncome: %v", err)
	}
	if _, err := gateway.GetQuarterlyBalance(ctx, ticker, 4); err != nil {
		t.Fatalf("GetQuarterlyBalance: %v", err)
	}
	if _, err := gateway.GetAnalystConsensus(ctx, ticker, false); err != nil {
		t.Fatalf("GetAnalystConsensus: %v", err)
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (cache should serve repeats)", got)
	}
}

func TestGatewayQuarterlyNormalization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFundamentals))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)
	ticker := common.ParseTicker("AAPL")

	income, err := gateway.GetQuarterlyIncome(context.Background(), ticker, 4)
	if err != nil {
		t.Fatalf("GetQuarterlyIncome: %v", err)
	}
	if len(income) != 2 {
		t.Fatalf("quarters = %d, want 2", len(income))
	}
	// Newest first
	if !income[0].EndDate.After(income[1].EndDate) {
		t.Error("expected quarters ordered newest first")
	}
	if income[0].Revenue != 94000000000 {
		t.Errorf("Revenue = %v, want 94000000000 (string field parsed)", income[0].Revenue)
	}

	cashflow, err := gateway.GetQuarterlyCashflow(context.Background(), ticker, 4)
	if err != nil {
		t.Fatalf("GetQuarterlyCashflow: %v", err)
	}
	// Derived when the upstream omits freeCashFlow
	if cashflow[0].FreeCashFlow != 25000000000 {
		t.Errorf("FreeCashFlow = %v, want 25000000000", cashflow[0].FreeCashFlow)
	}
}

func TestGatewayGetQuote(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		if r.URL.Path != "/real-time/AAPL.US" {
			t.Errorf("path = %q, want /real-time/AAPL.US", r.URL.Path)
		}
		w.Write([]byte(`{"code": "AAPL.US", "close": 227.5, "previousClose": "225.1", "change_p": 1.07, "volume": "12345678"}`))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)
	ticker := common.ParseTicker("NASDAQ:AAPL")
	ctx := context.Background()

	quote, err := gateway.GetQuote(ctx, ticker)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if quote.Symbol != "NASDAQ:AAPL" {
		t.Errorf("Symbol = %q, want NASDAQ:AAPL", quote.Symbol)
	}
	if quote.Price != 227.5 {
		t.Errorf("Price = %v, want 227.5", quote.Price)
	}
	// Numeric strings parse like numbers
	if quote.PreviousClose != 225.1 {
		t.Errorf("PreviousClose = %v, want 225.1", quote.PreviousClose)
	}
	if quote.Volume != 12345678 {
		t.Errorf("Volume = %v, want 12345678", quote.Volume)
	}

	// Repeat serves from cache
	if _, err := gateway.GetQuote(ctx, ticker); err != nil {
		t.Fatalf("GetQuote repeat: %v", err)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestGatewayGetQuoteOutsideCoverage(t *testing.T) {
	// Outside trading coverage the upstream sends "NA" for numeric fields
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "BHP.AU", "close": "NA", "previousClose": "NA", "change_p": "NA", "volume": "NA"}`))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)

	quote, err := gateway.GetQuote(context.Background(), common.ParseTicker("ASX:BHP"))
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if quote.Price != 0 || quote.PreviousClose != 0 || quote.ChangePercent != 0 {
		t.Errorf("quote = %+v, want zero values for NA fields", quote)
	}
	if quote.Volume != 0 {
		t.Errorf("Volume = %v, want 0", quote.Volume)
	}
}

func TestGatewayNotFoundNotRetried(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)

	_, err := gateway.GetProfile(context.Background(), common.ParseTicker("NOPE"))
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (404 must not retry)", got)
	}
}

func TestGatewayTransientRetried(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(testFundamentals))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)

	profile, err := gateway.GetProfile(context.Background(), common.ParseTicker("AAPL"))
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if profile.Name != "Apple Inc" {
		t.Errorf("Name = %q, want Apple Inc", profile.Name)
	}
	if got := atomic.LoadInt64(&calls); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestGatewayRateLimitClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)

	_, err := gateway.GetProfile(context.Background(), common.ParseTicker("AAPL"))
	if !IsRateLimited(err) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
}

func TestGatewaySpacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFundamentals))
	}))
	defer server.Close()

	interval := 50 * time.Millisecond
	gateway := NewGateway("test-key",
		WithBaseURL(server.URL),
		WithMinInterval(interval, 0, 0),
	)
	ctx := context.Background()

	start := time.Now()
	if _, err := gateway.GetProfile(ctx, common.ParseTicker("AAPL")); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	// Different symbol forces a second upstream call
	if _, err := gateway.GetProfile(ctx, common.ParseTicker("MSFT")); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}

	if elapsed := time.Since(start); elapsed < interval {
		t.Errorf("two upstream calls completed in %v, want at least %v spacing", elapsed, interval)
	}
}

func TestGatewayContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(testFundamentals))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := gateway.GetProfile(ctx, common.ParseTicker("AAPL")); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
