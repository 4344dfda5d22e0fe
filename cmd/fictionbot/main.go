package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/alkime/fictionbot/internal/bot"
	"github.com/alkime/fictionbot/internal/config"
	"github.com/alkime/fictionbot/internal/keyring"
	"github.com/alkime/fictionbot/internal/story"
	"github.com/alkime/fictionbot/internal/store"
	"github.com/alkime/fictionbot/internal/usage"
	"github.com/alkime/fictionbot/internal/workdir"
	"github.com/alkime/fictionbot/internal/workflow"
)

// CLI defines the fictionbot command structure.
type CLI struct {
	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the Telegram bot and the status server"`
	Console ConsoleCmd `cmd:"" help:"Chat with the bot in the terminal"`
	Status  StatusCmd  `cmd:"" help:"Print usage and story progress"`
	Export  ExportCmd  `cmd:"" help:"Write the approved chapters to a manuscript file"`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration"`
}

func main() {
	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("fictionbot"),
		kong.Description("A single-operator chapter-by-chapter fiction writing bot."),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}

// loadConfig reads the environment and fills unset secrets from the keychain.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Environment variables take priority, fallback to keychain
	cfg.TelegramToken = keyring.Lookup(cfg.TelegramToken, keyring.Telegram)
	cfg.OpenRouterAPIKey = keyring.Lookup(cfg.OpenRouterAPIKey, keyring.OpenRouter)
	cfg.AnthropicAPIKey = keyring.Lookup(cfg.AnthropicAPIKey, keyring.Anthropic)

	return cfg, nil
}

func requireAPIKey(cfg *config.Config) error {
	if cfg.APIKey() != "" {
		return nil
	}
	return fmt.Errorf("missing %s API key: set it in the environment or run 'fictionbot config set-key %s <key>'",
		cfg.Provider, cfg.Provider)
}

// state is the persisted session with the store it came from.
type state struct {
	layout  workdir.Layout
	store   *store.FileStore
	session *story.Session
}

func openState(cfg *config.Config, log *slog.Logger) (*state, error) {
	layout, err := workdir.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	fs, err := store.New(layout, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	session, err := fs.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &state{layout: layout, store: fs, session: session}, nil
}

func newMeter(cfg *config.Config) *usage.Meter {
	return usage.NewMeter(
		usage.Limits{
			DailyMessages: cfg.DailyMessageLimit,
			DailySpending: cfg.DailySpendingLimit,
		},
		usage.Rates{
			InputPerMillion:  cfg.InputRate,
			OutputPerMillion: cfg.OutputRate,
		},
	)
}

func botOptions(cfg *config.Config) bot.Options {
	return bot.Options{
		AuthorizedUserID: cfg.AuthorizedUserID,
		MessageLimit:     cfg.MessageLimit,
		TargetWords:      cfg.TargetChapterWords,
		Workflow: workflow.Options{
			MaxOutputTokens: cfg.MaxOutputTokens,
			TruncationRatio: cfg.TruncationRatio,
			RecentChapters:  cfg.RecentChapters,
		},
	}
}

// cliLogger is the plain text logger used by the short-lived commands.
func cliLogger(w io.Writer) *slog.Logger {
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}
