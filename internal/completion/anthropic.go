package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic sends prompts to the Anthropic Messages API.
type Anthropic struct {
	apiKey  string
	model   anthropic.Model
	baseURL string
}

// NewAnthropic creates an Anthropic provider. An empty model selects DefaultAnthropicModel.
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &Anthropic{
		apiKey: apiKey,
		model:  anthropic.Model(model),
	}
}

// WithBaseURL points the provider at a different API host.
func (a *Anthropic) WithBaseURL(baseURL string) *Anthropic {
	a.baseURL = baseURL
	return a
}

// Complete sends the prompt as a single user message.
func (a *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	if a.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(a.apiKey)}
	if a.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(a.baseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	//nolint:exhaustruct // Only model, max tokens and messages are sent
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create message via Anthropic API: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(textBlock.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Text:         sb.String(),
		Truncated:    resp.StopReason == anthropic.StopReasonMaxTokens,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
		Model:        string(resp.Model),
	}, nil
}
