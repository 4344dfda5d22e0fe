package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alkime/fictionbot/internal/bot"
	"github.com/alkime/fictionbot/internal/completion"
	"github.com/alkime/fictionbot/internal/logger"
	"github.com/alkime/fictionbot/internal/server"
	"github.com/alkime/fictionbot/internal/telegram"
	"golang.org/x/sync/errgroup"
)

// ServeCmd runs the Telegram transport and the HTTP status server.
type ServeCmd struct{}

// Run executes the serve command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *ServeCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, closer, err := logger.SetupLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	defer closer.Close()

	var missing []string
	if cfg.TelegramToken == "" {
		missing = append(missing, "telegram token")
	}
	if cfg.APIKey() == "" {
		missing = append(missing, cfg.Provider+" API key")
	}
	if cfg.AuthorizedUserID == 0 {
		missing = append(missing, "AUTHORIZED_USER_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s. Set via environment variables or run 'fictionbot config set-key'",
			strings.Join(missing, ", "))
	}

	st, err := openState(cfg, log)
	if err != nil {
		return err
	}

	client, err := completion.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	api, err := telegram.Connect(cfg.TelegramToken)
	if err != nil {
		return err
	}
	log.Info("Connected to Telegram", "bot", api.Self.UserName)

	ctrl := bot.New(st.session, st.store, telegram.NewFetcher(api), client, newMeter(cfg), botOptions(cfg), log)
	transport := telegram.New(api, ctrl, cfg.ChunkDelay, log)
	srv := server.New(cfg, log, ctrl, st.store.ExportDir())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return transport.Run(ctx)
	})
	g.Go(func() error {
		return srv.Run(ctx)
	})

	log.Info("Fiction bot started",
		"env", cfg.Env,
		"provider", cfg.Provider,
		"data_dir", st.layout.Root,
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}

	log.Info("Fiction bot stopped")

	return nil
}
