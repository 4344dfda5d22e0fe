package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alkime/fictionbot/internal/bot"
	"github.com/alkime/fictionbot/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu      sync.Mutex
	updates chan tgbotapi.Update
	sent    []tgbotapi.Chattable
	stopped bool
	fileURL string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
}

func (f *fakeAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	if f.fileURL == "" {
		return "", errors.New("unknown file " + fileID)
	}
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type recordingHandler struct {
	mu       sync.Mutex
	messages []bot.Message
	replies  []bot.Reply
}

func (h *recordingHandler) Handle(_ context.Context, msg bot.Message) []bot.Reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	if msg.Progress != nil {
		msg.Progress("working...")
	}
	return h.replies
}

func TestTransport_Run(t *testing.T) {
	api := newFakeAPI()
	handler := &recordingHandler{replies: []bot.Reply{{Text: "📄 Part 1/2\n\nfirst"}, {Text: "📄 Part 2/2\n\nsecond"}}}
	tr := New(api, handler, 0, logger.Discard())

	api.updates <- tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 42},
			Chat: &tgbotapi.Chat{ID: 99},
			Text: "/write_chapter 1",
		},
	}
	api.updates <- tgbotapi.Update{UpdateID: 2}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	require.Eventually(t, func() bool { return api.sentCount() == 3 }, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.True(t, api.stopped)

	texts := make([]string, 0, len(api.sent))
	for _, c := range api.sent {
		m, ok := c.(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, int64(99), m.ChatID)
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"working...", "📄 Part 1/2\n\nfirst", "📄 Part 2/2\n\nsecond"}, texts)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Len(t, handler.messages, 1, "updates without a message are skipped")
	assert.Equal(t, int64(42), handler.messages[0].SenderID)
}

func TestTransport_DocumentUpdate(t *testing.T) {
	api := newFakeAPI()
	handler := &recordingHandler{}
	tr := New(api, handler, 0, logger.Discard())

	tr.handleUpdate(t.Context(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7},
		Chat: &tgbotapi.Chat{ID: 7},
		Document: &tgbotapi.Document{
			FileID:   "abc",
			FileName: "rules.txt",
			MimeType: "text/plain",
			FileSize: 120,
		},
	}})

	require.Len(t, handler.messages, 1)
	require.NotNil(t, handler.messages[0].Document)
	assert.Equal(t, bot.Upload{FileID: "abc", FileName: "rules.txt", MimeType: "text/plain", Size: 120},
		*handler.messages[0].Document)
}

func TestTransport_DeliverDocument(t *testing.T) {
	api := newFakeAPI()
	tr := New(api, &recordingHandler{}, 0, logger.Discard())

	tr.Deliver(t.Context(), 5, []bot.Reply{{
		Document: &bot.Document{Name: "My_Novel_2025-03-14.txt", Bytes: []byte("# My Novel"), Caption: "exported"},
	}})

	require.Len(t, api.sent, 1)
	doc, ok := api.sent[0].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, "exported", doc.Caption)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "My_Novel_2025-03-14.txt", file.Name)
	assert.Equal(t, []byte("# My Novel"), file.Bytes)
}

func TestTransport_DeliverStopsOnCancel(t *testing.T) {
	api := newFakeAPI()
	tr := New(api, &recordingHandler{}, time.Hour, logger.Discard())

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	tr.Deliver(ctx, 5, []bot.Reply{{Text: "one"}, {Text: "two"}})

	assert.Len(t, api.sent, 1, "first reply goes out before any delay")
}

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rules":
			_, _ = io.WriteString(w, "Write in present tense.")
		case "/huge":
			_, _ = io.WriteString(w, strings.Repeat("x", bot.MaxUploadSize+100))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	api := newFakeAPI()
	api.fileURL = srv.URL
	f := NewFetcher(api)

	data, err := f.Fetch(t.Context(), "rules")
	require.NoError(t, err)
	assert.Equal(t, "Write in present tense.", string(data))

	data, err = f.Fetch(t.Context(), "huge")
	require.NoError(t, err)
	assert.Len(t, data, bot.MaxUploadSize+1)

	_, err = f.Fetch(t.Context(), "missing")
	assert.ErrorContains(t, err, "status 404")

	api.fileURL = ""
	_, err = f.Fetch(t.Context(), "rules")
	assert.ErrorContains(t, err, "failed to resolve file")
}

func TestConnect_MissingToken(t *testing.T) {
	_, err := Connect("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
