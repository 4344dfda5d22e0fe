package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alkime/fictionbot/internal/bot"
	"github.com/alkime/fictionbot/internal/completion"
	"github.com/alkime/fictionbot/internal/console"
	"github.com/alkime/fictionbot/internal/logger"
	"github.com/alkime/fictionbot/internal/workdir"
)

// ConsoleCmd runs the bot against a terminal chat instead of Telegram.
type ConsoleCmd struct {
	Plain bool `flag:"" help:"Show replies as plain text instead of rendered markdown"`
	Width int  `flag:"" default:"76" help:"Wrap width for rendered replies"`
}

// Run executes the console command.
func (c *ConsoleCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	root, err := workdir.Root(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// The terminal belongs to the chat, so logs go to a file.
	log, closer, err := logger.SetupFileLogger(cfg, filepath.Join(root, "console.log"))
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	defer closer.Close()

	st, err := openState(cfg, log)
	if err != nil {
		return err
	}

	client, err := completion.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	render := console.Renderer(console.PlainRenderer)
	if !c.Plain {
		if render, err = console.NewGlamourRenderer(c.Width); err != nil {
			return err
		}
	}

	// No uploads in the terminal: paste setup text instead.
	ctrl := bot.New(st.session, st.store, nil, client, newMeter(cfg), botOptions(cfg), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return console.Run(ctx, ctrl, cfg.AuthorizedUserID, render)
}
