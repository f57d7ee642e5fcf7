// Package common provides shared configuration, logging, and utilities.
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level application configuration.
// Priority: defaults -> TOML files -> environment variables -> CLI flags.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Logging    LoggingConfig    `toml:"logging"`
	MarketData MarketDataConfig `toml:"marketdata"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Claude     ClaudeConfig     `toml:"claude"`
	LLM        LLMConfig        `toml:"llm"`
	Agent      AgentConfig      `toml:"agent"`
	Scheduler  SchedulerConfig  `toml:"scheduler"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string   `toml:"level"`
	Output []string `toml:"output"`
}

// MarketDataConfig holds upstream gateway settings.
type MarketDataConfig struct {
	BaseURL         string  `toml:"base_url"`
	APIKey          string  `toml:"api_key"`
	Timeout         string  `toml:"timeout"`           // per-request HTTP timeout
	MinInterval     string  `toml:"min_interval"`      // process-wide spacing between upstream calls
	JitterMin       string  `toml:"jitter_min"`        // added after each limiter wait
	JitterMax       string  `toml:"jitter_max"`
	CacheTTL        string  `toml:"cache_ttl"`
	CacheMaxEntries int     `toml:"cache_max_entries"`
	MaxRetries      int     `toml:"max_retries"`
	RetryBackoff    string  `toml:"retry_backoff"`     // base for exponential backoff
	RateLimitMin    string  `toml:"rate_limit_min"`    // extended wait bounds on 429
	RateLimitMax    string  `toml:"rate_limit_max"`
	DefaultExchange string  `toml:"default_exchange"`
}

// GeminiConfig holds Gemini provider settings.
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float64 `toml:"temperature"`
}

// ClaudeConfig holds Claude provider settings.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float64 `toml:"temperature"`
}

// LLMConfig selects the default decision provider.
type LLMConfig struct {
	DefaultProvider string `toml:"default_provider"` // "gemini" or "claude"
	MaxRetries      int    `toml:"max_retries"`
}

// AgentConfig holds orchestrator settings.
type AgentConfig struct {
	MaxRounds  int    `toml:"max_rounds"`
	RoundPause string `toml:"round_pause"`
}

// SchedulerConfig holds background job schedules.
type SchedulerConfig struct {
	CacheSweep string `toml:"cache_sweep"` // cron spec for expired-entry purge
}

// NewDefaultConfig returns a Config populated with defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8085,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		MarketData: MarketDataConfig{
			BaseURL:         "https://eodhd.com/api",
			Timeout:         "10s",
			MinInterval:     "1s",
			JitterMin:       "200ms",
			JitterMax:       "800ms",
			CacheTTL:        "300s",
			CacheMaxEntries: 1000,
			MaxRetries:      3,
			RetryBackoff:    "2s",
			RateLimitMin:    "3s",
			RateLimitMax:    "8s",
			DefaultExchange: "NASDAQ",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Timeout:     "15s",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "15s",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
			MaxRetries:      3,
		},
		Agent: AgentConfig{
			MaxRounds:  5,
			RoundPause: "500ms",
		},
		Scheduler: SchedulerConfig{
			CacheSweep: "@every 1m",
		},
	}
}

// LoadFromFiles loads configuration from TOML files in order, later files
// overriding earlier ones, then applies environment overrides.
// Missing files are skipped silently.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.applyEnvOverrides()

	return config, nil
}

// applyEnvOverrides applies AESTIMO_* environment variable overrides.
// Provider API keys also honor the conventional GEMINI_API_KEY and
// ANTHROPIC_API_KEY names.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AESTIMO_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("AESTIMO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("AESTIMO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("AESTIMO_MARKETDATA_URL"); v != "" {
		c.MarketData.BaseURL = v
	}
	if v := os.Getenv("AESTIMO_MARKETDATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	} else if v := os.Getenv("EODHD_API_TOKEN"); v != "" && c.MarketData.APIKey == "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("AESTIMO_GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	} else if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.Gemini.APIKey == "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("AESTIMO_CLAUDE_API_KEY"); v != "" {
		c.Claude.APIKey = v
	} else if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && c.Claude.APIKey == "" {
		c.Claude.APIKey = v
	}
	if v := os.Getenv("AESTIMO_DEFAULT_PROVIDER"); v != "" {
		c.LLM.DefaultProvider = v
	}
}

// ParseDuration parses a duration string, returning fallback on empty or
// invalid input.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
