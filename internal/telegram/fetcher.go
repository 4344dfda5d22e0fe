package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alkime/fictionbot/internal/bot"
)

// FileURLResolver resolves a Telegram file id into a download URL.
type FileURLResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// Fetcher downloads uploaded documents.
type Fetcher struct {
	api    FileURLResolver
	client *http.Client
}

// NewFetcher creates a Fetcher with a bounded HTTP client.
func NewFetcher(api FileURLResolver) *Fetcher {
	//nolint:exhaustruct // Default transport and redirect policy
	return &Fetcher{api: api, client: &http.Client{Timeout: 30 * time.Second}}
}

// Fetch downloads at most bot.MaxUploadSize+1 bytes of the file so callers can detect oversize content.
func (f *Fetcher) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	url, err := f.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file %s: status %d", fileID, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, bot.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}

	return data, nil
}
