package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/aestimo/internal/common"
)

const (
	// DefaultBaseURL is the base URL for the upstream market-data API.
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultMinInterval is the process-wide spacing between upstream calls.
	DefaultMinInterval = 1 * time.Second

	// DefaultMaxRetries is the number of attempts per upstream request.
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the base for exponential backoff on transient
	// failures (2s, 4s).
	DefaultRetryBackoff = 2 * time.Second
)

// Jitter and extended-wait bounds. Jitter is added after every limiter wait;
// the extended wait replaces normal backoff when the upstream rate-limits us.
const (
	DefaultJitterMin    = 200 * time.Millisecond
	DefaultJitterMax    = 800 * time.Millisecond
	DefaultRateLimitMin = 3 * time.Second
	DefaultRateLimitMax = 8 * time.Second
)

// Gateway is the cached, rate-limited upstream client.
// A single Gateway is shared process-wide so the minimum request interval
// holds across all callers.
type Gateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	cache      *Cache

	maxRetries   int
	retryBackoff time.Duration
	jitterMin    time.Duration
	jitterMax    time.Duration
	rateLimitMin time.Duration
	rateLimitMax time.Duration
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) Option {
	return func(g *Gateway) {
		g.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithMinInterval sets the process-wide spacing between upstream requests
// and the jitter bounds added after each wait.
func WithMinInterval(interval, jitterMin, jitterMax time.Duration) Option {
	return func(g *Gateway) {
		g.limiter = rate.NewLimiter(rate.Every(interval), 1)
		g.jitterMin = jitterMin
		g.jitterMax = jitterMax
	}
}

// WithCacheLimits sets the response cache TTL and capacity.
func WithCacheLimits(ttl time.Duration, maxEntries int) Option {
	return func(g *Gateway) {
		g.cache = NewCache(ttl, maxEntries)
	}
}

// WithRetry sets the attempt count and base backoff for transient failures.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(g *Gateway) {
		g.maxRetries = maxRetries
		g.retryBackoff = backoff
	}
}

// WithRateLimitWait sets the extended wait bounds used when the upstream
// returns 429.
func WithRateLimitWait(min, max time.Duration) Option {
	return func(g *Gateway) {
		g.rateLimitMin = min
		g.rateLimitMax = max
	}
}

// NewGateway creates a gateway with the default cache, spacing, and retry
// policy.
func NewGateway(apiKey string, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:      rate.NewLimiter(rate.Every(DefaultMinInterval), 1),
		cache:        NewCache(DefaultCacheTTL, DefaultCacheMaxEntries),
		maxRetries:   DefaultMaxRetries,
		retryBackoff: DefaultRetryBackoff,
		jitterMin:    DefaultJitterMin,
		jitterMax:    DefaultJitterMax,
		rateLimitMin: DefaultRateLimitMin,
		rateLimitMax: DefaultRateLimitMax,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// NewGatewayFromConfig builds a gateway from the [marketdata] config section.
func NewGatewayFromConfig(cfg common.MarketDataConfig, logger arbor.ILogger) *Gateway {
	opts := []Option{
		WithLogger(logger),
		WithHTTPClient(&http.Client{Timeout: common.ParseDuration(cfg.Timeout, DefaultTimeout)}),
		WithMinInterval(
			common.ParseDuration(cfg.MinInterval, DefaultMinInterval),
			common.ParseDuration(cfg.JitterMin, DefaultJitterMin),
			common.ParseDuration(cfg.JitterMax, DefaultJitterMax),
		),
		WithCacheLimits(common.ParseDuration(cfg.CacheTTL, DefaultCacheTTL), cfg.CacheMaxEntries),
		WithRateLimitWait(
			common.ParseDuration(cfg.RateLimitMin, DefaultRateLimitMin),
			common.ParseDuration(cfg.RateLimitMax, DefaultRateLimitMax),
		),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, WithRetry(cfg.MaxRetries, common.ParseDuration(cfg.RetryBackoff, DefaultRetryBackoff)))
	}
	return NewGateway(cfg.APIKey, opts...)
}

// CacheStats returns a snapshot of the response cache counters.
func (g *Gateway) CacheStats() CacheStats {
	return g.cache.Stats()
}

// ClearCache purges the response cache and returns entries removed.
func (g *Gateway) ClearCache() int {
	return g.cache.Clear()
}

// SweepCache purges expired cache entries.
func (g *Gateway) SweepCache() int {
	return g.cache.Sweep()
}

// get performs a GET request with retries. Cache lookups happen in the
// callers; everything passing through here pays the rate limiter.
func (g *Gateway) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			wait := g.backoffFor(lastErr, attempt)
			if g.logger != nil {
				g.logger.Warn().
					Str("endpoint", path).
					Int("attempt", attempt+1).
					Dur("wait", wait).
					Msg("Retrying upstream request")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := g.fetch(ctx, path, params, result)
		if err == nil {
			return nil
		}
		if IsNotFound(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// backoffFor picks the wait before the given retry attempt. Rate-limited
// responses wait an extended random interval instead of normal backoff.
func (g *Gateway) backoffFor(err error, attempt int) time.Duration {
	if IsRateLimited(err) {
		spread := g.rateLimitMax - g.rateLimitMin
		if spread <= 0 {
			return g.rateLimitMin
		}
		return g.rateLimitMin + time.Duration(rand.Int63n(int64(spread)))
	}

	wait := g.retryBackoff
	for i := 1; i < attempt; i++ {
		wait *= 2
	}
	return wait
}

// fetch performs a single paced request against the upstream.
func (g *Gateway) fetch(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	// Jitter after the limiter wait keeps request timing irregular
	if jitter := g.jitter(); jitter > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter):
		}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", g.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", g.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if g.logger != nil {
		g.logger.Debug().
			Str("url", g.baseURL+path).
			Msg("Upstream API request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{
			Message:   err.Error(),
			Endpoint:  path,
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Endpoint: path}
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{RetryAfter: retryAfter}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
			Retryable:  resp.StatusCode >= 500,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (g *Gateway) jitter() time.Duration {
	spread := g.jitterMax - g.jitterMin
	if spread <= 0 {
		return g.jitterMin
	}
	return g.jitterMin + time.Duration(rand.Int63n(int64(spread)))
}

// fundamentals returns the cached fundamentals document for a ticker,
// fetching it once per TTL window. Most gateway operations read from this
// single document.
func (g *Gateway) fundamentals(ctx context.Context, ticker common.Ticker) (*fundamentalsPayload, error) {
	symbol := ticker.UpstreamSymbol()
	key := "fundamentals:" + symbol

	if cached, ok := g.cache.Get(key); ok {
		return cached.(*fundamentalsPayload), nil
	}

	var payload fundamentalsPayload
	if err := g.get(ctx, "/fundamentals/"+symbol, nil, &payload); err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			nf.Symbol = ticker.String()
		}
		return nil, err
	}

	// An empty document means the symbol is unknown upstream
	if payload.General == nil && payload.Financials == nil {
		return nil, &NotFoundError{Symbol: ticker.String(), Endpoint: "/fundamentals"}
	}

	g.cache.Set(key, &payload)
	return &payload, nil
}

// GetProfile returns company name, sector, industry, and market cap.
func (g *Gateway) GetProfile(ctx context.Context, ticker common.Ticker) (*Profile, error) {
	payload, err := g.fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	profile := &Profile{Symbol: ticker.String()}
	if payload.General != nil {
		profile.Name = payload.General.Name
		profile.Sector = payload.General.Sector
		profile.Industry = payload.General.Industry
		profile.Currency = payload.General.CurrencyCode
	}
	if payload.Highlights != nil {
		profile.MarketCap = payload.Highlights.MarketCapitalization
		profile.PERatio = payload.Highlights.PERatio
	}
	return profile, nil
}

// GetQuote returns the latest traded price for a ticker.
func (g *Gateway) GetQuote(ctx context.Context, ticker common.Ticker) (*Quote, error) {
	symbol := ticker.UpstreamSymbol()
	key := "quote:" + symbol

	if cached, ok := g.cache.Get(key); ok {
		return cached.(*Quote), nil
	}

	var raw realTimeQuote
	if err := g.get(ctx, "/real-time/"+symbol, nil, &raw); err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			nf.Symbol = ticker.String()
		}
		return nil, err
	}

	quote := &Quote{
		Symbol:        ticker.String(),
		Price:         toFloat(raw.Close),
		PreviousClose: toFloat(raw.PreviousClose),
		ChangePercent: toFloat(raw.ChangeP),
		Volume:        int64(toFloat(raw.Volume)),
	}
	g.cache.Set(key, quote)
	return quote, nil
}

// GetQuarterlyIncome returns up to quarters income statements, newest first.
func (g *Gateway) GetQuarterlyIncome(ctx context.Context, ticker common.Ticker, quarters int) ([]IncomeQuarter, error) {
	payload, err := g.fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	block := incomeBlock(payload)
	if block == nil {
		return nil, &NotFoundError{Symbol: ticker.String(), Endpoint: "/fundamentals/income"}
	}

	result := make([]IncomeQuarter, 0, quarters)
	for _, date := range newestDates(block.Quarterly, quarters) {
		row := block.Quarterly[date]
		result = append(result, IncomeQuarter{
			EndDate:         parseStatementDate(date),
			Revenue:         fieldFloat(row, "totalRevenue"),
			GrossProfit:     fieldFloat(row, "grossProfit"),
			OperatingIncome: fieldFloat(row, "operatingIncome"),
			NetIncome:       fieldFloat(row, "netIncome"),
		})
	}
	return result, nil
}

// GetQuarterlyBalance returns up to quarters balance sheets, newest first.
func (g *Gateway) GetQuarterlyBalance(ctx context.Context, ticker common.Ticker, quarters int) ([]BalanceQuarter, error) {
	payload, err := g.fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	block := balanceBlock(payload)
	if block == nil {
		return nil, &NotFoundError{Symbol: ticker.String(), Endpoint: "/fundamentals/balance"}
	}

	result := make([]BalanceQuarter, 0, quarters)
	for _, date := range newestDates(block.Quarterly, quarters) {
		row := block.Quarterly[date]
		result = append(result, BalanceQuarter{
			EndDate:            parseStatementDate(date),
			TotalAssets:        fieldFloat(row, "totalAssets"),
			TotalLiabilities:   fieldFloat(row, "totalLiab"),
			CurrentAssets:      fieldFloat(row, "totalCurrentAssets"),
			CurrentLiabilities: fieldFloat(row, "totalCurrentLiabilities"),
			Inventory:          fieldFloat(row, "inventory"),
			Cash:               fieldFloat(row, "cash"),
			TotalDebt:          fieldFloat(row, "shortLongTermDebtTotal"),
			TotalEquity:        fieldFloat(row, "totalStockholderEquity"),
		})
	}
	return result, nil
}

// GetQuarterlyCashflow returns up to quarters cash-flow statements, newest
// first. Free cash flow is derived when the upstream omits it.
func (g *Gateway) GetQuarterlyCashflow(ctx context.Context, ticker common.Ticker, quarters int) ([]CashflowQuarter, error) {
	payload, err := g.fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	block := cashflowBlock(payload)
	if block == nil {
		return nil, &NotFoundError{Symbol: ticker.String(), Endpoint: "/fundamentals/cashflow"}
	}

	result := make([]CashflowQuarter, 0, quarters)
	for _, date := range newestDates(block.Quarterly, quarters) {
		row := block.Quarterly[date]
		quarter := CashflowQuarter{
			EndDate:            parseStatementDate(date),
			OperatingCashFlow:  fieldFloat(row, "totalCashFromOperatingActivities"),
			CapitalExpenditure: fieldFloat(row, "capitalExpenditures"),
			FreeCashFlow:       fieldFloat(row, "freeCashFlow"),
		}
		if quarter.FreeCashFlow == 0 && quarter.OperatingCashFlow != 0 {
			quarter.FreeCashFlow = quarter.OperatingCashFlow - quarter.CapitalExpenditure
		}
		result = append(result, quarter)
	}
	return result, nil
}

// GetAnalystConsensus returns analyst ratings, optionally with estimate
// trend history.
func (g *Gateway) GetAnalystConsensus(ctx context.Context, ticker common.Ticker, includeHistory bool) (*AnalystConsensus, error) {
	payload, err := g.fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if payload.AnalystRatings == nil {
		return nil, &NotFoundError{Symbol: ticker.String(), Endpoint: "/fundamentals/analysts"}
	}

	consensus := &AnalystConsensus{
		Symbol:      ticker.String(),
		Rating:      payload.AnalystRatings.Rating,
		TargetPrice: payload.AnalystRatings.TargetPrice,
		StrongBuy:   payload.AnalystRatings.StrongBuy,
		Buy:         payload.AnalystRatings.Buy,
		Hold:        payload.AnalystRatings.Hold,
		Sell:        payload.AnalystRatings.Sell,
		StrongSell:  payload.AnalystRatings.StrongSell,
	}

	if includeHistory && payload.Earnings != nil {
		for _, trend := range payload.Earnings.Trend {
			consensus.History = append(consensus.History, RatingsTrend{
				Date:              trend.Date,
				Period:            trend.Period,
				Growth:            toFloat(trend.Growth),
				RevisionsUp30Days: int(toFloat(trend.EPSRevisionsUpLast30Days)),
				RevisionsDown30D:  int(toFloat(trend.EPSRevisionsDownLast30Days)),
			})
		}
	}

	return consensus, nil
}

// GetPriceHistory returns daily closes for the past days.
func (g *Gateway) GetPriceHistory(ctx context.Context, ticker common.Ticker, days int) (*PriceHistory, error) {
	symbol := ticker.UpstreamSymbol()
	key := fmt.Sprintf("eod:%s:%d", symbol, days)

	if cached, ok := g.cache.Get(key); ok {
		return cached.(*PriceHistory), nil
	}

	params := url.Values{}
	params.Set("from", time.Now().AddDate(0, 0, -days).Format("2006-01-02"))
	params.Set("to", time.Now().Format("2006-01-02"))
	params.Set("period", "d")
	params.Set("order", "a")

	var bars []eodBar
	if err := g.get(ctx, "/eod/"+symbol, params, &bars); err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			nf.Symbol = ticker.String()
		}
		return nil, err
	}
	if len(bars) == 0 {
		return nil, &NotFoundError{Symbol: ticker.String(), Endpoint: "/eod"}
	}

	history := &PriceHistory{Symbol: ticker.String()}
	for _, bar := range bars {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		close := bar.AdjustedClose
		if close == 0 {
			close = bar.Close
		}
		history.Points = append(history.Points, PricePoint{Date: date, Close: close})
	}

	g.cache.Set(key, history)
	return history, nil
}

// incomeBlock and friends guard the nested optional pointers.
func incomeBlock(p *fundamentalsPayload) *statementBlock {
	if p.Financials == nil {
		return nil
	}
	return p.Financials.IncomeStatement
}

func balanceBlock(p *fundamentalsPayload) *statementBlock {
	if p.Financials == nil {
		return nil
	}
	return p.Financials.BalanceSheet
}

func cashflowBlock(p *fundamentalsPayload) *statementBlock {
	if p.Financials == nil {
		return nil
	}
	return p.Financials.CashFlow
}

// newestDates returns up to n statement dates, newest first.
func newestDates(quarterly map[string]map[string]interface{}, n int) []string {
	dates := make([]string, 0, len(quarterly))
	for date := range quarterly {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if n > 0 && len(dates) > n {
		dates = dates[:n]
	}
	return dates
}

func parseStatementDate(date string) time.Time {
	t, _ := time.Parse("2006-01-02", date)
	return t
}

// fieldFloat reads a statement field that may arrive as a string, number,
// or null.
func fieldFloat(row map[string]interface{}, field string) float64 {
	return toFloat(row[field])
}

func toFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
