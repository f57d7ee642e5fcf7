package agent

import (
	"strings"
	"testing"

	"github.com/ternarybob/aestimo/internal/models"
)

func TestExtractRecommendationMarker(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Recommendation
	}{
		{"bracketed", "Solid fundamentals.\n\nRECOMMENDATION: [STRONG BUY]", models.StrongBuy},
		{"bare", "Weak balance sheet.\nRECOMMENDATION: SELL", models.Sell},
		{"lowercase", "recommendation: hold", models.Hold},
		{"extra spacing", "RECOMMENDATION:   [ BUY ]", models.Buy},
		{"last marker wins", "RECOMMENDATION: BUY\n...revised after peer data...\nRECOMMENDATION: [HOLD]", models.Hold},
		{"strong sell", "Deteriorating in every pillar. RECOMMENDATION: STRONG SELL", models.StrongSell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractRecommendation(tt.text); got != tt.want {
				t.Errorf("ExtractRecommendation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractRecommendationClosingScan(t *testing.T) {
	// No marker line; the category nearest the end of the text wins.
	text := "The buy case is weak given leverage. After weighing everything, this is a sell."
	if got := ExtractRecommendation(text); got != models.Sell {
		t.Errorf("ExtractRecommendation() = %q, want SELL", got)
	}

	// STRONG BUY must not be misread as bare BUY.
	text = "Everything points one way: strong buy."
	if got := ExtractRecommendation(text); got != models.StrongBuy {
		t.Errorf("ExtractRecommendation() = %q, want STRONG BUY", got)
	}
}

func TestExtractRecommendationFrequency(t *testing.T) {
	// Keywords only appear early, outside the closing window, so the
	// frequency tier decides.
	body := "Buy. The fundamentals say buy. Analysts say buy, momentum says hold."
	padding := strings.Repeat("Margins and cash generation remain consistent with prior quarters. ", 10)
	if got := ExtractRecommendation(body + padding); got != models.Buy {
		t.Errorf("ExtractRecommendation() = %q, want BUY", got)
	}
}

func TestExtractRecommendationContextualPhrasing(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Recommendation
	}{
		{
			"sell-leaning",
			"The stock looks significantly overvalued at current levels, and the debt load presents concerning risks for the next several quarters.",
			models.Sell,
		},
		{
			"buy-leaning",
			"This is an excellent investment: strong fundamentals, a wide moat, and the shares appear undervalued relative to peers.",
			models.Buy,
		},
		{
			"mixed signals cancel out",
			"Shares look overvalued, yet the strong fundamentals are hard to ignore.",
			models.Hold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractRecommendation(tt.text); got != tt.want {
				t.Errorf("ExtractRecommendation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractRecommendationDefault(t *testing.T) {
	tests := []string{
		"",
		"The company reported quarterly results in line with expectations.",
	}
	for _, text := range tests {
		if got := ExtractRecommendation(text); got != models.Hold {
			t.Errorf("ExtractRecommendation(%q) = %q, want HOLD", text, got)
		}
	}
}
