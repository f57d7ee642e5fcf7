package agent

import (
	"regexp"
	"strings"

	"github.com/ternarybob/aestimo/internal/models"
)

// markerRegex matches the "RECOMMENDATION: [CHOICE]" line the system prompt
// mandates, bracketed or bare.
var markerRegex = regexp.MustCompile(`(?i)RECOMMENDATION:\s*\[?\s*(STRONG\s+BUY|STRONG\s+SELL|BUY|SELL|HOLD)\s*\]?`)

// tailWindow is how much of the closing text the second tier scans.
const tailWindow = 300

// ExtractRecommendation pulls the recommendation category out of the
// model's final text. Tiers, most reliable first:
//  1. the last explicit "RECOMMENDATION: X" marker,
//  2. a category keyword: last occurrence in the closing portion of the
//     text, then most frequent across the whole text,
//  3. contextual phrasing ("excellent investment" leans buy, "overvalued"
//     or "concerning risk" leans sell).
//
// Defaults to HOLD when nothing matches.
func ExtractRecommendation(text string) models.Recommendation {
	if matches := markerRegex.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		return normalizeCategory(matches[len(matches)-1][1])
	}

	upper := strings.ToUpper(text)

	tail := upper
	if len(tail) > tailWindow {
		tail = tail[len(tail)-tailWindow:]
	}
	if rec, ok := lastCategory(tail); ok {
		return rec
	}

	if rec, ok := mostFrequentCategory(upper); ok {
		return rec
	}

	if rec, ok := contextualLeaning(upper); ok {
		return rec
	}

	return models.Hold
}

// Signal phrases for texts that never use a category keyword.
var buySignals = []string{
	"EXCELLENT INVESTMENT",
	"UNDERVALUED",
	"COMPELLING OPPORTUNITY",
	"STRONG FUNDAMENTALS",
	"SIGNIFICANT UPSIDE",
	"ATTRACTIVE VALUATION",
}

var sellSignals = []string{
	"OVERVALUED",
	"CONCERNING RISK",
	"DETERIORATING",
	"RED FLAG",
	"SIGNIFICANT DOWNSIDE",
	"POOR INVESTMENT",
}

// contextualLeaning tallies buy-leaning and sell-leaning signal phrases and
// returns the side with more. An even split is no signal.
func contextualLeaning(upper string) (models.Recommendation, bool) {
	buy := 0
	for _, phrase := range buySignals {
		buy += strings.Count(upper, phrase)
	}
	sell := 0
	for _, phrase := range sellSignals {
		sell += strings.Count(upper, phrase)
	}

	switch {
	case buy > sell:
		return models.Buy, true
	case sell > buy:
		return models.Sell, true
	}
	return models.Hold, false
}

// lastCategory returns the category appearing last in the uppercased text.
// Bare BUY/SELL inside a STRONG variant count as the strong form.
func lastCategory(upper string) (models.Recommendation, bool) {
	best := -1
	var result models.Recommendation
	consider := func(idx int, rec models.Recommendation) {
		if idx > best {
			best = idx
			result = rec
		}
	}

	consider(strings.LastIndex(upper, "STRONG BUY"), models.StrongBuy)
	consider(strings.LastIndex(upper, "STRONG SELL"), models.StrongSell)
	consider(lastBareIndex(upper, "BUY"), models.Buy)
	consider(lastBareIndex(upper, "SELL"), models.Sell)
	consider(strings.LastIndex(upper, "HOLD"), models.Hold)

	return result, best >= 0
}

// lastBareIndex finds the last occurrence of word not preceded by "STRONG ".
func lastBareIndex(upper, word string) int {
	search := upper
	for {
		idx := strings.LastIndex(search, word)
		if idx < 0 {
			return -1
		}
		if !strings.HasSuffix(search[:idx], "STRONG ") {
			return idx
		}
		search = search[:idx]
	}
}

// mostFrequentCategory returns the category mentioned most often across the
// whole text. Ties resolve in scan order, strong variants first.
func mostFrequentCategory(upper string) (models.Recommendation, bool) {
	strongBuy := strings.Count(upper, "STRONG BUY")
	strongSell := strings.Count(upper, "STRONG SELL")

	counts := []struct {
		count int
		rec   models.Recommendation
	}{
		{strongBuy, models.StrongBuy},
		{strongSell, models.StrongSell},
		{strings.Count(upper, "BUY") - strongBuy, models.Buy},
		{strings.Count(upper, "SELL") - strongSell, models.Sell},
		{strings.Count(upper, "HOLD"), models.Hold},
	}

	best := 0
	var result models.Recommendation
	for _, c := range counts {
		if c.count > best {
			best = c.count
			result = c.rec
		}
	}
	return result, best > 0
}

func normalizeCategory(raw string) models.Recommendation {
	collapsed := strings.Join(strings.Fields(strings.ToUpper(raw)), " ")
	switch collapsed {
	case "STRONG BUY":
		return models.StrongBuy
	case "BUY":
		return models.Buy
	case "SELL":
		return models.Sell
	case "STRONG SELL":
		return models.StrongSell
	default:
		return models.Hold
	}
}
