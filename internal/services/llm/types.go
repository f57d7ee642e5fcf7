// Package llm provides the provider-agnostic decision client used by the
// analysis orchestrator. Gemini and Claude back the same interface.
package llm

import (
	"context"
	"errors"

	"github.com/ternarybob/aestimo/internal/models"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderClaude ProviderType = "claude"
)

// ErrConfigurationMissing means no API key is configured for the selected
// provider. Checked before any network call; the orchestrator escalates it
// to the fallback analyzer.
var ErrConfigurationMissing = errors.New("llm provider API key not configured")

// Turn is one entry in a decision conversation.
type Turn struct {
	Role        string // "user" or "assistant"
	Text        string
	ToolCalls   []models.ToolCall   // assistant turns requesting tools
	ToolResults []models.ToolResult // user turns carrying results back
}

// Conversation is the accumulated state of one analysis run.
type Conversation struct {
	System string
	Turns  []Turn
}

// NewConversation starts a conversation with a system prompt and opening
// user message.
func NewConversation(system, userText string) *Conversation {
	return &Conversation{
		System: system,
		Turns:  []Turn{{Role: "user", Text: userText}},
	}
}

// AddAssistantTurn appends the model's reply, including any tool requests.
func (c *Conversation) AddAssistantTurn(text string, calls []models.ToolCall) {
	c.Turns = append(c.Turns, Turn{Role: "assistant", Text: text, ToolCalls: calls})
}

// AddToolResults appends tool results as a user turn.
func (c *Conversation) AddToolResults(results []models.ToolResult) {
	c.Turns = append(c.Turns, Turn{Role: "user", ToolResults: results})
}

// Outcome is the tagged result of one decision call: either a final answer
// (no tool calls) or a batch of tool requests.
type Outcome struct {
	Text      string
	ToolCalls []models.ToolCall
}

// IsFinal reports whether the model answered without requesting tools.
func (o *Outcome) IsFinal() bool {
	return len(o.ToolCalls) == 0
}

// Client is a function-calling decision client.
type Client interface {
	// Decide sends the conversation and tool schemas to the named model
	// and returns its next step.
	Decide(ctx context.Context, model string, conv *Conversation, tools []models.ToolSchema) (*Outcome, error)
}
