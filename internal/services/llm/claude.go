package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/models"
)

// ClaudeClient is the Claude-backed decision client using the Messages API
// tool-use protocol.
type ClaudeClient struct {
	config *common.ClaudeConfig
	logger arbor.ILogger

	mu     sync.Mutex
	client anthropic.Client
	ready  bool
}

// NewClaudeClient creates a Claude decision client.
func NewClaudeClient(config *common.ClaudeConfig, logger arbor.ILogger) *ClaudeClient {
	return &ClaudeClient{
		config: config,
		logger: logger,
	}
}

func (c *ClaudeClient) ensureClient() (anthropic.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return c.client, nil
	}
	if c.config.APIKey == "" {
		return anthropic.Client{}, ErrConfigurationMissing
	}

	c.client = anthropic.NewClient(
		option.WithAPIKey(c.config.APIKey),
	)
	c.ready = true
	return c.client, nil
}

// Decide sends the conversation with tool declarations and returns the
// model's next step.
func (c *ClaudeClient) Decide(ctx context.Context, model string, conv *Conversation, tools []models.ToolSchema) (*Outcome, error) {
	client, err := c.ensureClient()
	if err != nil {
		return nil, err
	}

	timeout := common.ParseDuration(c.config.Timeout, 15*time.Second)

	maxTokens := c.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Messages:    convertMessagesToClaude(conv),
		Temperature: anthropic.Float(c.config.Temperature),
		Tools:       convertToolsToClaude(tools),
	}
	if conv.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: conv.System}}
	}

	var message *anthropic.Message
	err = callWithRetry(ctx, timeout, c.logger, "Claude", func(callCtx context.Context) error {
		var callErr error
		message, callErr = client.Messages.New(callCtx, params)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if message == nil || len(message.Content) == 0 {
		return nil, fmt.Errorf("empty response from Claude API")
	}

	outcome := &Outcome{}
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			outcome.Text += b.Text
		case anthropic.ToolUseBlock:
			arguments := map[string]interface{}{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &arguments); err != nil {
					return nil, fmt.Errorf("failed to decode tool input for %s: %w", b.Name, err)
				}
			}
			outcome.ToolCalls = append(outcome.ToolCalls, models.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: arguments,
			})
		}
	}

	return outcome, nil
}

// convertMessagesToClaude maps conversation turns to Claude message params.
// Tool results travel back as tool_result blocks in a user message.
func convertMessagesToClaude(conv *Conversation) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(conv.Turns))

	for _, turn := range conv.Turns {
		switch {
		case turn.Role == "assistant":
			blocks := []anthropic.ContentBlockParamUnion{}
			if turn.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(turn.Text))
			}
			for _, call := range turn.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, call.Arguments, call.Name))
			}
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		case len(turn.ToolResults) > 0:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.ToolResults))
			for _, result := range turn.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(result.ToolCallID, result.Content, result.IsError))
			}
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Text)))
		}
	}

	return messages
}

func convertToolsToClaude(tools []models.ToolSchema) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		properties, _ := tool.InputSchema["properties"].(map[string]interface{})
		required, _ := tool.InputSchema["required"].([]string)

		params = append(params, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return params
}
