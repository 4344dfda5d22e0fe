package completion

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenRouterBaseURL is OpenRouter's OpenAI-compatible endpoint.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterOptions configures the OpenRouter provider.
type OpenRouterOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Referer string
	Title   string
}

// OpenRouter sends chat completions through OpenRouter.
type OpenRouter struct {
	opts OpenRouterOptions
}

// NewOpenRouter creates an OpenRouter provider, filling in the default model and base URL.
func NewOpenRouter(opts OpenRouterOptions) *OpenRouter {
	if opts.Model == "" {
		opts.Model = DefaultOpenRouterModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = OpenRouterBaseURL
	}
	return &OpenRouter{opts: opts}
}

// Complete sends the prompt as a single user message.
func (o *OpenRouter) Complete(ctx context.Context, req Request) (*Response, error) {
	if o.opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(o.opts.APIKey),
		option.WithBaseURL(o.opts.BaseURL),
	}
	if o.opts.Referer != "" {
		reqOpts = append(reqOpts, option.WithHeader("HTTP-Referer", o.opts.Referer))
	}
	if o.opts.Title != "" {
		reqOpts = append(reqOpts, option.WithHeader("X-Title", o.opts.Title))
	}
	client := openai.NewClient(reqOpts...)

	//nolint:exhaustruct // Only model, messages and max tokens are sent
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion via OpenRouter: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	choice := resp.Choices[0]

	return &Response{
		Text:         choice.Message.Content,
		Truncated:    choice.FinishReason == "length",
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		Model:        resp.Model,
	}, nil
}
