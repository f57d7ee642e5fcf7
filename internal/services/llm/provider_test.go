package llm

import (
	"sync"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
)

func newTestFactory(geminiKey, claudeKey string) *Factory {
	return NewFactory(
		&common.GeminiConfig{APIKey: geminiKey, Model: "gemini-2.5-flash", Temperature: 0.2},
		&common.ClaudeConfig{APIKey: claudeKey, Model: "claude-haiku-3-5-20241022", MaxTokens: 4096, Temperature: 0.2},
		&common.LLMConfig{DefaultProvider: "gemini", MaxRetries: 3},
		arbor.NewLogger(),
	)
}

func TestFactoryClientForConcurrent(t *testing.T) {
	factory := newTestFactory("gem-key", "claude-key")

	const workers = 8
	clients := make([]Client, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client, _, err := factory.ClientFor("gemini-2.5-flash")
			if err != nil {
				t.Errorf("ClientFor: %v", err)
				return
			}
			clients[i] = client
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if clients[i] != clients[0] {
			t.Fatal("expected every caller to share one client instance")
		}
	}
}
