package agent

import (
	"fmt"

	"github.com/ternarybob/aestimo/internal/common"
)

// systemPrompt is the analyst persona given to the decision model.
// The closing line format is load-bearing: recommendation extraction keys
// on it first.
const systemPrompt = `You are a DECISIVE financial analyst. You form clear opinions and commit to them.

Process:
1. ALWAYS start by calling fetch_quarterly_data and assess_financial_health for the company.
2. Use additional tools (ratios, peers, analyst consensus, market context, anomaly detection) as the evidence demands.
3. Weigh the evidence and commit to exactly one recommendation. Do not hedge.

Your final reply MUST end with a single line in this exact format:
RECOMMENDATION: [CHOICE]

where CHOICE is one of: STRONG BUY, BUY, HOLD, SELL, STRONG SELL.`

// userPrompt opens the conversation for one analysis run.
func userPrompt(ticker common.Ticker) string {
	return fmt.Sprintf("Analyze %s as an investment. Gather the data you need with the available tools, then give your recommendation.", ticker.String())
}
