package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Scraper ScraperConfig `toml:"scraper"`
	Gemini  GeminiConfig  `toml:"gemini"`
	Claude  ClaudeConfig  `toml:"claude"`
	LLM     LLMConfig     `toml:"llm"`
	Cache   CacheConfig   `toml:"cache"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig selects the MCP transport
type ServerConfig struct {
	Transport       string `toml:"transport" validate:"oneof=stdio http"` // "stdio" (default) or "http" (streamable HTTP)
	Host            string `toml:"host" validate:"required_if=Transport http"`
	Port            int    `toml:"port" validate:"min=1,max=65535"`
	Endpoint        string `toml:"endpoint" validate:"startswith=/"`  // MCP endpoint path for HTTP transport
	ShutdownTimeout string `toml:"shutdown_timeout" validate:"duration"` // Graceful shutdown window
}

// ScraperConfig controls how AAStocks pages are fetched
type ScraperConfig struct {
	BaseURL           string  `toml:"base_url" validate:"required,url"`
	IndexURL          string  `toml:"index_url" validate:"required,url"`
	NewsURL           string  `toml:"news_url" validate:"required,url"`
	QuoteURL          string  `toml:"quote_url" validate:"required,contains=%s"` // Quick-quote page, %s is the symbol
	FeedURL           string  `toml:"feed_url" validate:"required,contains=%s"`  // Real-time quote feed, %s is the symbol
	UserAgent         string  `toml:"user_agent" validate:"required"`
	Timeout           string  `toml:"timeout" validate:"duration"`
	RateLimit         float64 `toml:"rate_limit" validate:"gte=0"` // Requests per second, 0 disables limiting
	RateBurst         int     `toml:"rate_burst" validate:"gte=1"`
	MaxAttempts       int     `toml:"max_attempts" validate:"gte=1,lte=10"`
	MinHeadlineLength int     `toml:"min_headline_length" validate:"gte=1"`
	MaxHeadlineLength int     `toml:"max_headline_length" validate:"gtfield=MinHeadlineLength"`
}

// GeminiConfig contains Google Gemini configuration.
// APIKey selects the Gemini API backend; Project selects Vertex AI.
type GeminiConfig struct {
	APIKey             string `toml:"api_key"`
	Project            string `toml:"project"`
	Location           string `toml:"location"`
	Model              string `toml:"model" validate:"required"`               // Default model
	SummarizationModel string `toml:"summarization_model" validate:"required"` // Cost-effective model for summaries
	GroundingModel     string `toml:"grounding_model" validate:"required"`     // Model with Google Search grounding support
	Timeout            string `toml:"timeout" validate:"duration"`
	MaxRetries         int    `toml:"max_retries" validate:"gte=0"` // Rate-limit retries per call
}

// ClaudeConfig contains Anthropic Claude configuration
type ClaudeConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model" validate:"required"`
	Timeout string `toml:"timeout" validate:"duration"`
}

// LLMConfig selects the AI provider
type LLMConfig struct {
	DefaultProvider string `toml:"default_provider" validate:"oneof=gemini claude"`
}

// CacheConfig controls the tool response cache
type CacheConfig struct {
	Enabled      bool   `toml:"enabled"`
	TTL          string `toml:"ttl" validate:"duration"`
	MaxItems     int    `toml:"max_items" validate:"gte=1"`
	Path         string `toml:"path"`          // Badger directory, empty keeps the cache in memory
	WarmSchedule string `toml:"warm_schedule"` // Cron spec (with seconds) for refreshing index data, empty disables
}

// LoggingConfig controls log level and outputs
type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output" validate:"dive,oneof=stderr console file"` // "stderr"/"console" only applies to HTTP transport
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport:       "stdio",
			Host:            "0.0.0.0",
			Port:            8080,
			Endpoint:        "/mcp",
			ShutdownTimeout: "10s",
		},
		Scraper: ScraperConfig{
			BaseURL:           "https://www.aastocks.com",
			IndexURL:          "https://www.aastocks.com/en/stocks/market/index/hk-index-con.aspx?index=HSI",
			NewsURL:           "https://www.aastocks.com/en/stocks/news/aafn/popular-news",
			QuoteURL:          "https://www.aastocks.com/en/stocks/quote/quick-quote.aspx?symbol=%s",
			FeedURL:           "https://www.aastocks.com/en/resources/datafeed/getrtqsymbol.ashx?s=%s",
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:           "10s",
			RateLimit:         2,
			RateBurst:         2,
			MaxAttempts:       3,
			MinHeadlineLength: 20,
			MaxHeadlineLength: 200,
		},
		Gemini: GeminiConfig{
			Location:           "us-central1",
			Model:              "gemini-2.0-flash-lite-001",
			SummarizationModel: "gemini-2.0-flash-lite-001",
			GroundingModel:     "gemini-2.0-flash-001",
			Timeout:            "30s",
			MaxRetries:         2,
		},
		Claude: ClaudeConfig{
			Model:   "claude-3-5-haiku-20241022",
			Timeout: "30s",
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTL:      "60s",
			MaxItems: 100,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Output: []string{"stderr"},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// A missing file is not an error; the defaults and environment still apply.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults only
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies HSI_* environment variables, falling back to the
// unprefixed names used by earlier deployments
func applyEnvOverrides(config *Config) {
	// Server configuration
	if transport := firstEnv("HSI_SERVER_TRANSPORT", "MCP_TRANSPORT"); transport != "" {
		config.Server.Transport = strings.ToLower(transport)
	}
	if host := firstEnv("HSI_SERVER_HOST", "HOST"); host != "" {
		config.Server.Host = host
	}
	if port := firstEnv("HSI_SERVER_PORT", "PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Scraper configuration
	if userAgent := os.Getenv("HSI_SCRAPER_USER_AGENT"); userAgent != "" {
		config.Scraper.UserAgent = userAgent
	}
	if timeout := os.Getenv("HSI_SCRAPER_TIMEOUT"); timeout != "" {
		config.Scraper.Timeout = timeout
	}
	if rateLimit := os.Getenv("HSI_SCRAPER_RATE_LIMIT"); rateLimit != "" {
		if r, err := strconv.ParseFloat(rateLimit, 64); err == nil {
			config.Scraper.RateLimit = r
		}
	}

	// Gemini configuration
	if apiKey := firstEnv("HSI_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if project := firstEnv("HSI_GEMINI_PROJECT", "GOOGLE_CLOUD_PROJECT"); project != "" {
		config.Gemini.Project = project
	}
	if location := firstEnv("HSI_GEMINI_LOCATION", "GEMINI_LOCATION"); location != "" {
		config.Gemini.Location = location
	}
	if model := firstEnv("HSI_GEMINI_MODEL", "GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := firstEnv("HSI_GEMINI_SUMMARIZATION_MODEL", "GEMINI_SUMMARIZATION_MODEL"); model != "" {
		config.Gemini.SummarizationModel = model
	}
	if model := firstEnv("HSI_GEMINI_GROUNDING_MODEL", "GEMINI_GROUNDING_MODEL"); model != "" {
		config.Gemini.GroundingModel = model
	}
	if timeout := os.Getenv("HSI_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}

	// Claude configuration
	if apiKey := firstEnv("HSI_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("HSI_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// LLM provider selection
	if provider := os.Getenv("HSI_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = strings.ToLower(provider)
	}

	// Cache configuration
	if enabled := firstEnv("HSI_CACHE_ENABLED", "CACHE_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Cache.Enabled = b
		}
	}
	if ttl := os.Getenv("HSI_CACHE_TTL"); ttl != "" {
		config.Cache.TTL = ttl
	} else if seconds := os.Getenv("CACHE_TTL_SECONDS"); seconds != "" {
		if s, err := strconv.Atoi(seconds); err == nil {
			config.Cache.TTL = (time.Duration(s) * time.Second).String()
		}
	}
	if path := os.Getenv("HSI_CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}
	if schedule := os.Getenv("HSI_CACHE_WARM_SCHEDULE"); schedule != "" {
		config.Cache.WarmSchedule = schedule
	}

	// Logging configuration
	if level := firstEnv("HSI_LOG_LEVEL", "LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if output := os.Getenv("HSI_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, transport string, port int, host string) {
	// Command-line flags have highest priority
	if transport != "" {
		config.Server.Transport = strings.ToLower(transport)
	}
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks struct tags and the cache warm schedule
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("duration", validateDuration); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Cache.WarmSchedule != "" {
		if err := ValidateSchedule(c.Cache.WarmSchedule); err != nil {
			return fmt.Errorf("invalid configuration: cache.warm_schedule: %w", err)
		}
	}
	return nil
}

// HasGemini reports whether Gemini credentials are configured
func (c *Config) HasGemini() bool {
	return c.Gemini.APIKey != "" || c.Gemini.Project != ""
}

// HasClaude reports whether Claude credentials are configured
func (c *Config) HasClaude() bool {
	return c.Claude.APIKey != ""
}

// ValidateSchedule checks a 6-field cron expression (seconds first)
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}
	return nil
}

// ParseDuration parses a duration string, returning fallback when empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func validateDuration(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	d, err := time.ParseDuration(value)
	return err == nil && d > 0
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
