// Package completion talks to the remote LLM completion service.
package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/alkime/fictionbot/internal/config"
)

// Request is a single-prompt completion request.
type Request struct {
	Prompt    string
	MaxTokens int
}

// Response is a single text completion.
type Response struct {
	Text string
	// Truncated is set when the service reports it stopped at the output limit.
	Truncated    bool
	InputTokens  int
	OutputTokens int
	Model        string
}

// Client sends prompts to a completion service.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ErrMissingAPIKey is returned when a provider is used without credentials.
var ErrMissingAPIKey = errors.New("API key required: set OPENROUTER_API_KEY or ANTHROPIC_API_KEY, or run 'fictionbot config set-key'")

// ErrEmptyResponse is returned when the service answers without any text.
var ErrEmptyResponse = errors.New("empty response from completion service")

// Default models per provider.
const (
	DefaultOpenRouterModel = "anthropic/claude-3.5-haiku"
	DefaultAnthropicModel  = "claude-3-5-haiku-latest"
)

// New builds the client for the configured provider.
func New(cfg *config.Config) (Client, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.Model), nil
	case config.ProviderOpenRouter:
		return NewOpenRouter(OpenRouterOptions{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.Model,
			Referer: cfg.AppReferer,
			Title:   cfg.AppTitle,
		}), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
