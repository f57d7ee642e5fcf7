package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/models"
)

// GeminiClient is the Gemini-backed decision client using native function
// calling.
type GeminiClient struct {
	config *common.GeminiConfig
	logger arbor.ILogger

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient creates a Gemini decision client. The underlying SDK
// client is constructed on first use.
func NewGeminiClient(config *common.GeminiConfig, logger arbor.ILogger) *GeminiClient {
	return &GeminiClient{
		config: config,
		logger: logger,
	}
}

func (g *GeminiClient) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	if g.config.APIKey == "" {
		return nil, ErrConfigurationMissing
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g.client = client
	return client, nil
}

// Decide sends the conversation with tool declarations and returns the
// model's next step.
func (g *GeminiClient) Decide(ctx context.Context, model string, conv *Conversation, tools []models.ToolSchema) (*Outcome, error) {
	client, err := g.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	timeout := common.ParseDuration(g.config.Timeout, 15*time.Second)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.config.Temperature)),
	}
	if conv.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: conv.System}},
		}
	}

	declarations, err := convertToolDeclarations(tools)
	if err != nil {
		return nil, err
	}
	if len(declarations) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	contents := convertConversation(conv)

	var resp *genai.GenerateContentResponse
	err = callWithRetry(ctx, timeout, g.logger, "Gemini", func(callCtx context.Context) error {
		var callErr error
		resp, callErr = client.Models.GenerateContent(callCtx, model, contents, config)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from Gemini API")
	}

	outcome := &Outcome{}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			call := models.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			}
			// Gemini omits call IDs; mint one so results pair up
			if call.ID == "" {
				call.ID = uuid.New().String()
			}
			outcome.ToolCalls = append(outcome.ToolCalls, call)
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	outcome.Text = text.String()

	return outcome, nil
}

// convertConversation maps conversation turns to genai contents.
// Tool results travel back as function-response parts in a user turn.
func convertConversation(conv *Conversation) []*genai.Content {
	contents := make([]*genai.Content, 0, len(conv.Turns))

	for _, turn := range conv.Turns {
		switch {
		case turn.Role == "assistant":
			parts := []*genai.Part{}
			if turn.Text != "" {
				parts = append(parts, &genai.Part{Text: turn.Text})
			}
			for _, call := range turn.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Arguments,
					},
				})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
		case len(turn.ToolResults) > 0:
			parts := make([]*genai.Part, 0, len(turn.ToolResults))
			for _, result := range turn.ToolResults {
				response := map[string]any{"result": result.Content}
				if result.IsError {
					response = map[string]any{"error": result.Content}
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       result.ToolCallID,
						Name:     result.Name,
						Response: response,
					},
				})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: turn.Text}},
			})
		}
	}

	return contents
}

func convertToolDeclarations(tools []models.ToolSchema) ([]*genai.FunctionDeclaration, error) {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		parameters, err := convertToGenaiSchema(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to convert schema for tool %s: %w", tool.Name, err)
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  parameters,
		})
	}
	return declarations, nil
}

// convertToGenaiSchema converts a map[string]interface{} JSON schema
// fragment to a genai.Schema structure.
func convertToGenaiSchema(schemaMap map[string]interface{}) (*genai.Schema, error) {
	if len(schemaMap) == 0 {
		return nil, nil
	}

	schema := &genai.Schema{}

	if typeStr, ok := schemaMap["type"].(string); ok {
		switch strings.ToLower(typeStr) {
		case "object":
			schema.Type = genai.TypeObject
		case "array":
			schema.Type = genai.TypeArray
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		}
	}

	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}

	if enumVals, ok := schemaMap["enum"].([]interface{}); ok {
		for _, v := range enumVals {
			if s, ok := v.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	} else if enumVals, ok := schemaMap["enum"].([]string); ok {
		schema.Enum = enumVals
	}

	if reqVals, ok := schemaMap["required"].([]interface{}); ok {
		for _, v := range reqVals {
			if s, ok := v.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	} else if reqVals, ok := schemaMap["required"].([]string); ok {
		schema.Required = reqVals
	}

	if minVal, ok := schemaMap["minimum"].(int); ok {
		f := float64(minVal)
		schema.Minimum = &f
	} else if minVal, ok := schemaMap["minimum"].(float64); ok {
		schema.Minimum = &minVal
	}
	if maxVal, ok := schemaMap["maximum"].(int); ok {
		f := float64(maxVal)
		schema.Maximum = &f
	} else if maxVal, ok := schemaMap["maximum"].(float64); ok {
		schema.Maximum = &maxVal
	}

	if itemsMap, ok := schemaMap["items"].(map[string]interface{}); ok {
		itemSchema, err := convertToGenaiSchema(itemsMap)
		if err != nil {
			return nil, fmt.Errorf("failed to convert items schema: %w", err)
		}
		schema.Items = itemSchema
	}

	if propsMap, ok := schemaMap["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for propName, propVal := range propsMap {
			if propMap, ok := propVal.(map[string]interface{}); ok {
				propSchema, err := convertToGenaiSchema(propMap)
				if err != nil {
					return nil, fmt.Errorf("failed to convert property '%s': %w", propName, err)
				}
				schema.Properties[propName] = propSchema
			}
		}
	}

	return schema, nil
}
