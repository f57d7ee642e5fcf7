package llm

import (
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
)

// Factory hands out decision clients per provider, constructing them lazily
// and reusing them across requests.
type Factory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	logger       arbor.ILogger

	mu           sync.Mutex
	geminiClient *GeminiClient
	claudeClient *ClaudeClient
}

// NewFactory creates a provider factory.
func NewFactory(geminiConfig *common.GeminiConfig, claudeConfig *common.ClaudeConfig, llmConfig *common.LLMConfig, logger arbor.ILogger) *Factory {
	return &Factory{
		geminiConfig: geminiConfig,
		claudeConfig: claudeConfig,
		llmConfig:    llmConfig,
		logger:       logger,
	}
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-sonnet-4-20250514" -> Claude
// - "claude/claude-sonnet-4-20250514" -> Claude (with prefix)
// - "gemini-2.5-flash" -> Gemini
// - Empty string -> uses default provider from config
func (f *Factory) DetectProvider(model string) ProviderType {
	if model == "" {
		return ProviderType(f.llmConfig.DefaultProvider)
	}

	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}

	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}

	return ProviderType(f.llmConfig.DefaultProvider)
}

// NormalizeModel removes a provider prefix from the model name if present.
func (f *Factory) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// ClientFor returns the decision client for a model string. Safe for
// concurrent use; clients are constructed once and shared.
// ErrConfigurationMissing is returned before any network activity when the
// provider has no API key.
func (f *Factory) ClientFor(model string) (Client, string, error) {
	provider := f.DetectProvider(model)
	normalized := f.NormalizeModel(model)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch provider {
	case ProviderClaude:
		if f.claudeConfig.APIKey == "" {
			return nil, "", ErrConfigurationMissing
		}
		if normalized == "" {
			normalized = f.claudeConfig.Model
		}
		if f.claudeClient == nil {
			f.claudeClient = NewClaudeClient(f.claudeConfig, f.logger)
		}
		return f.claudeClient, normalized, nil
	default:
		if f.geminiConfig.APIKey == "" {
			return nil, "", ErrConfigurationMissing
		}
		if normalized == "" {
			normalized = f.geminiConfig.Model
		}
		if f.geminiClient == nil {
			f.geminiClient = NewGeminiClient(f.geminiConfig, f.logger)
		}
		return f.geminiClient, normalized, nil
	}
}

// Configured reports whether at least one provider has an API key.
func (f *Factory) Configured() bool {
	return f.geminiConfig.APIKey != "" || f.claudeConfig.APIKey != ""
}
