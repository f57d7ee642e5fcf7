// Package tools implements the analysis tool catalogue exposed to the
// decision model. The registry is built once at startup and never mutated.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/common"
	"github.com/ternarybob/aestimo/internal/marketdata"
	"github.com/ternarybob/aestimo/internal/models"
)

// DataSource is the slice of the market-data gateway the tool handlers use.
type DataSource interface {
	GetProfile(ctx context.Context, ticker common.Ticker) (*marketdata.Profile, error)
	GetQuote(ctx context.Context, ticker common.Ticker) (*marketdata.Quote, error)
	GetQuarterlyIncome(ctx context.Context, ticker common.Ticker, quarters int) ([]marketdata.IncomeQuarter, error)
	GetQuarterlyBalance(ctx context.Context, ticker common.Ticker, quarters int) ([]marketdata.BalanceQuarter, error)
	GetQuarterlyCashflow(ctx context.Context, ticker common.Ticker, quarters int) ([]marketdata.CashflowQuarter, error)
	GetAnalystConsensus(ctx context.Context, ticker common.Ticker, includeHistory bool) (*marketdata.AnalystConsensus, error)
	GetPriceHistory(ctx context.Context, ticker common.Ticker, days int) (*marketdata.PriceHistory, error)
}

// handler executes one tool against validated arguments.
type handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

type tool struct {
	schema  models.ToolSchema
	handler handler
}

// Catalog is the immutable tool registry: name -> schema + handler.
type Catalog struct {
	source DataSource
	logger arbor.ILogger
	tools  map[string]tool
}

// NewCatalog builds the registry over a data source.
func NewCatalog(source DataSource, logger arbor.ILogger) *Catalog {
	c := &Catalog{
		source: source,
		logger: logger,
		tools:  make(map[string]tool),
	}

	c.register(fetchQuarterlyDataSchema, c.fetchQuarterlyData)
	c.register(calculateFinancialRatiosSchema, c.calculateFinancialRatios)
	c.register(compareWithPeersSchema, c.compareWithPeers)
	c.register(getAnalystConsensusSchema, c.getAnalystConsensus)
	c.register(fetchMarketContextSchema, c.fetchMarketContext)
	c.register(detectFinancialAnomaliesSchema, c.detectFinancialAnomalies)
	c.register(assessFinancialHealthSchema, c.assessFinancialHealth)

	return c
}

func (c *Catalog) register(schema models.ToolSchema, h handler) {
	c.tools[schema.Name] = tool{schema: schema, handler: h}
}

// Schemas returns the tool schemas in name order for the decision model.
func (c *Catalog) Schemas() []models.ToolSchema {
	schemas := make([]models.ToolSchema, 0, len(c.tools))
	for _, t := range c.tools {
		schemas = append(schemas, t.schema)
	}
	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].Name < schemas[j].Name
	})
	return schemas
}

// Execute validates and runs a tool call, always returning a ToolResult.
// Validation failures and handler errors become error results, never panics
// or lost calls.
func (c *Catalog) Execute(ctx context.Context, call models.ToolCall) models.ToolResult {
	start := time.Now()

	entry, ok := c.tools[call.Name]
	if !ok {
		return models.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    fmt.Sprintf("unknown tool: %s", call.Name),
			IsError:    true,
		}
	}

	if err := validateArgs(entry.schema.InputSchema, call.Arguments); err != nil {
		if c.logger != nil {
			c.logger.Warn().
				Str("tool", call.Name).
				Str("error", err.Error()).
				Msg("Tool argument validation failed")
		}
		return models.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    fmt.Sprintf("invalid arguments: %v", err),
			IsError:    true,
		}
	}

	result, err := entry.handler(ctx, call.Arguments)
	duration := time.Since(start)

	if c.logger != nil {
		c.logger.Debug().
			Str("tool", call.Name).
			Dur("duration", duration).
			Bool("error", err != nil).
			Msg("Tool executed")
	}

	if err != nil {
		return models.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    err.Error(),
			IsError:    true,
		}
	}

	content, err := json.Marshal(result)
	if err != nil {
		return models.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    fmt.Sprintf("failed to encode result: %v", err),
			IsError:    true,
		}
	}

	return models.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    string(content),
	}
}

// validateArgs checks arguments against a flat JSON Schema fragment.
// Fail-closed: unknown arguments, missing required fields, wrong types,
// out-of-range values, and enum violations all reject the call.
func validateArgs(schema map[string]interface{}, args map[string]interface{}) error {
	properties, _ := schema["properties"].(map[string]interface{})

	for name := range args {
		if _, ok := properties[name]; !ok {
			return fmt.Errorf("unknown argument %q", name)
		}
	}

	if required, ok := schema["required"].([]string); ok {
		for _, name := range required {
			if _, present := args[name]; !present {
				return fmt.Errorf("missing required argument %q", name)
			}
		}
	}

	for name, value := range args {
		spec, _ := properties[name].(map[string]interface{})
		if spec == nil {
			continue
		}
		if err := validateValue(name, spec, value); err != nil {
			return err
		}
	}

	return nil
}

func validateValue(name string, spec map[string]interface{}, value interface{}) error {
	declaredType, _ := spec["type"].(string)

	switch declaredType {
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
		if enum, ok := spec["enum"].([]string); ok {
			for _, allowed := range enum {
				if s == allowed {
					return nil
				}
			}
			return fmt.Errorf("argument %q must be one of %v", name, enum)
		}
	case "integer":
		// JSON numbers decode as float64
		f, ok := value.(float64)
		if !ok {
			return fmt.Errorf("argument %q must be an integer", name)
		}
		if f != float64(int(f)) {
			return fmt.Errorf("argument %q must be an integer", name)
		}
		if min, ok := spec["minimum"].(int); ok && int(f) < min {
			return fmt.Errorf("argument %q must be >= %d", name, min)
		}
		if max, ok := spec["maximum"].(int); ok && int(f) > max {
			return fmt.Errorf("argument %q must be <= %d", name, max)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	case "array":
		items, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("argument %q must be an array", name)
		}
		for _, item := range items {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("argument %q must be an array of strings", name)
			}
		}
	}

	return nil
}

// Argument accessors. Validation runs first, so these only handle
// defaulting for optional arguments.

func argString(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]interface{}, name string, fallback int) int {
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	return fallback
}

func argBool(args map[string]interface{}, name string) bool {
	v, _ := args[name].(bool)
	return v
}

func argStringSlice(args map[string]interface{}, name string) []string {
	items, ok := args[name].([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
