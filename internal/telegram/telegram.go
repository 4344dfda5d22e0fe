// Package telegram connects the bot controller to the Telegram Bot API using long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alkime/fictionbot/internal/bot"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the subset of the Telegram client the transport uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Handler processes one inbound message.
type Handler interface {
	Handle(ctx context.Context, msg bot.Message) []bot.Reply
}

// Transport polls for updates and delivers replies in order.
type Transport struct {
	api     API
	handler Handler
	delay   time.Duration
	logger  *slog.Logger
}

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("telegram token required: set TELEGRAM_TOKEN or run 'fictionbot config set-key telegram'")

// Connect authenticates against the Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	return api, nil
}

// New creates a Transport. delay is the pause between consecutive replies.
func New(api API, handler Handler, delay time.Duration, logger *slog.Logger) *Transport {
	return &Transport{
		api:     api,
		handler: handler,
		delay:   delay,
		logger:  logger,
	}
}

// Run handles updates until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	t.logger.Info("Telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Telegram polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Transport) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return
	}

	chatID := m.Chat.ID
	msg := bot.Message{
		SenderID: m.From.ID,
		Text:     m.Text,
		Progress: func(text string) {
			t.send(tgbotapi.NewMessage(chatID, text))
		},
	}
	if d := m.Document; d != nil {
		msg.Document = &bot.Upload{
			FileID:   d.FileID,
			FileName: d.FileName,
			MimeType: d.MimeType,
			Size:     int64(d.FileSize),
		}
	}

	t.Deliver(ctx, chatID, t.handler.Handle(ctx, msg))
}

// Deliver sends replies in order, pausing between them. It stops early when
// ctx is cancelled.
func (t *Transport) Deliver(ctx context.Context, chatID int64, replies []bot.Reply) {
	for i, r := range replies {
		if i > 0 && t.delay > 0 {
			select {
			case <-ctx.Done():
				t.logger.Warn("Reply delivery cancelled", "sent", i, "total", len(replies))
				return
			case <-time.After(t.delay):
			}
		}

		if r.Document != nil {
			doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: r.Document.Name, Bytes: r.Document.Bytes})
			doc.Caption = r.Document.Caption
			t.send(doc)
			continue
		}

		if r.Oversized {
			t.logger.Warn("Sending chunk longer than the message limit", "chat_id", chatID, "part", i+1)
		}
		t.send(tgbotapi.NewMessage(chatID, r.Text))
	}
}

func (t *Transport) send(c tgbotapi.Chattable) {
	if _, err := t.api.Send(c); err != nil {
		t.logger.Error("Failed to send Telegram message", "error", err)
	}
}
