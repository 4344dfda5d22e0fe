package completion

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alkime/fictionbot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	client, err := New(&config.Config{Provider: config.ProviderAnthropic, AnthropicAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Anthropic{}, client)

	client, err = New(&config.Config{Provider: config.ProviderOpenRouter, OpenRouterAPIKey: "k"})
	require.NoError(t, err)
	require.IsType(t, &OpenRouter{}, client)
	assert.Equal(t, DefaultOpenRouterModel, client.(*OpenRouter).opts.Model)

	_, err = New(&config.Config{Provider: "nope"})
	assert.Error(t, err)
}

func TestComplete_MissingAPIKey(t *testing.T) {
	_, err := NewOpenRouter(OpenRouterOptions{}).Complete(t.Context(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewAnthropic("", "").Complete(t.Context(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenRouter_Complete(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "gen-1", "object": "chat.completion", "created": 1, "model": "anthropic/claude-3.5-haiku",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "The bell rang."}, "finish_reason": "length"}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 4000, "total_tokens": 4120}
		}`)
	}))
	defer srv.Close()

	provider := NewOpenRouter(OpenRouterOptions{
		APIKey:  "or-key",
		BaseURL: srv.URL,
		Referer: "https://example.test",
		Title:   "Fiction Writing Bot",
	})

	resp, err := provider.Complete(t.Context(), Request{Prompt: "Write Chapter 1", MaxTokens: 4000})
	require.NoError(t, err)

	assert.Equal(t, "The bell rang.", resp.Text)
	assert.True(t, resp.Truncated)
	assert.Equal(t, 120, resp.InputTokens)
	assert.Equal(t, 4000, resp.OutputTokens)

	assert.Equal(t, DefaultOpenRouterModel, got.Model)
	assert.Equal(t, 4000, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Write Chapter 1", got.Messages[0].Content)

	assert.Equal(t, "Bearer or-key", headers.Get("Authorization"))
	assert.Equal(t, "https://example.test", headers.Get("HTTP-Referer"))
	assert.Equal(t, "Fiction Writing Bot", headers.Get("X-Title"))
}

func TestOpenRouter_CompleteServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": {"message": "bad model", "code": 400}}`)
	}))
	defer srv.Close()

	provider := NewOpenRouter(OpenRouterOptions{APIKey: "k", BaseURL: srv.URL})

	_, err := provider.Complete(t.Context(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenRouter")
}

func TestAnthropic_Complete(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ant-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "Fog "}, {"type": "text", "text": "lifted."}],
			"stop_reason": "end_turn", "stop_sequence": null,
			"usage": {"input_tokens": 30, "output_tokens": 2}
		}`)
	}))
	defer srv.Close()

	provider := NewAnthropic("ant-key", "").WithBaseURL(srv.URL)

	resp, err := provider.Complete(t.Context(), Request{Prompt: "Continue", MaxTokens: 4000})
	require.NoError(t, err)

	assert.Equal(t, "Fog lifted.", resp.Text)
	assert.False(t, resp.Truncated)
	assert.Equal(t, 30, resp.InputTokens)
	assert.Equal(t, 2, resp.OutputTokens)
	assert.Equal(t, DefaultAnthropicModel, got.Model)
	assert.Equal(t, 4000, got.MaxTokens)
}
