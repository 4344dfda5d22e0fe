package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"

	// ProviderOpenRouter routes completions through OpenRouter's OpenAI-compatible API.
	ProviderOpenRouter = "openrouter"
	// ProviderAnthropic calls the Anthropic Messages API directly.
	ProviderAnthropic = "anthropic"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"3000"`

	// Security settings
	HSTSMaxAge int    `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode    string `envconfig:"CSP_MODE" default:"relaxed"`

	// ExportsToken enables GET /exports for bearers of this token. Empty
	// keeps exported manuscripts off the HTTP surface.
	ExportsToken string `envconfig:"EXPORTS_TOKEN"`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	// Storage settings
	DataDir string `envconfig:"DATA_DIR"`

	// Chat transport settings
	TelegramToken    string        `envconfig:"TELEGRAM_TOKEN"`
	AuthorizedUserID int64         `envconfig:"AUTHORIZED_USER_ID"`
	// MessageLimit is in UTF-16 code units. Telegram allows 4096; the rest is
	// left for the "Part i/N" header.
	MessageLimit     int           `envconfig:"MESSAGE_LIMIT" default:"4000"`
	ChunkDelay       time.Duration `envconfig:"CHUNK_DELAY" default:"500ms"`

	// Completion service settings
	Provider         string  `envconfig:"COMPLETION_PROVIDER" default:"openrouter"`
	OpenRouterAPIKey string  `envconfig:"OPENROUTER_API_KEY"`
	AnthropicAPIKey  string  `envconfig:"ANTHROPIC_API_KEY"`
	Model            string  `envconfig:"MODEL"`
	MaxOutputTokens  int     `envconfig:"MAX_OUTPUT_TOKENS" default:"4000"`
	TruncationRatio  float64 `envconfig:"TRUNCATION_RATIO" default:"0.94"`
	AppReferer       string  `envconfig:"APP_REFERER" default:"https://fiction-bot.railway.app"`
	AppTitle         string  `envconfig:"APP_TITLE" default:"Fiction Writing Bot"`

	// Usage limits and pricing (USD per million tokens)
	DailyMessageLimit  int     `envconfig:"DAILY_MESSAGE_LIMIT" default:"50"`
	DailySpendingLimit float64 `envconfig:"DAILY_SPENDING_LIMIT" default:"2.00"`
	InputRate          float64 `envconfig:"INPUT_RATE_PER_MILLION" default:"0.80"`
	OutputRate         float64 `envconfig:"OUTPUT_RATE_PER_MILLION" default:"4.00"`

	// Writing settings
	TargetChapterWords int `envconfig:"TARGET_CHAPTER_WORDS" default:"20000"`
	RecentChapters     int `envconfig:"RECENT_CHAPTERS" default:"3"`
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() (*Config, error) {
	// Try to load .env file (optional for development)
	if err := godotenv.Load(); err != nil {
		// Not an error if file doesn't exist (expected in production)
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	// Parse environment variables into config struct
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that envconfig cannot express as tags.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenRouter, ProviderAnthropic:
	default:
		return fmt.Errorf("invalid COMPLETION_PROVIDER %q: must be %q or %q",
			c.Provider, ProviderOpenRouter, ProviderAnthropic)
	}

	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("MAX_OUTPUT_TOKENS must be positive, got %d", c.MaxOutputTokens)
	}

	if c.TruncationRatio <= 0 || c.TruncationRatio > 1 {
		return fmt.Errorf("TRUNCATION_RATIO must be in (0, 1], got %v", c.TruncationRatio)
	}

	if c.MessageLimit <= 0 {
		return fmt.Errorf("MESSAGE_LIMIT must be positive, got %d", c.MessageLimit)
	}

	return nil
}

// APIKey returns the key for the configured completion provider.
func (c *Config) APIKey() string {
	if c.Provider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}

	return c.OpenRouterAPIKey
}

// BuildCSP constructs Content Security Policy based on mode.
func BuildCSP(mode string) string {
	if mode == "strict" {
		// Production CSP
		return "default-src 'none'; " +
			"frame-ancestors 'none'; " +
			"base-uri 'none'; " +
			"form-action 'none'"
	}

	// Development/relaxed CSP
	return "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:"
}
