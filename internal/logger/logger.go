package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alkime/fictionbot/internal/config"
	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger configures structured logging based on environment.
// When cfg.LogFile is set, records are written to stdout and appended to that file.
// The returned closer releases the log file and is never nil.
func SetupLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	opts := handlerOptions(cfg)

	handlers := []slog.Handler{slog.NewJSONHandler(os.Stdout, opts)}
	var closer io.Closer = nopCloser{}

	if cfg.LogFile != "" {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closer = f
	}

	logger := slog.New(slogmulti.Fanout(handlers...))

	// Set as default logger
	slog.SetDefault(logger)

	return logger, closer, nil
}

// SetupFileLogger is SetupLogger without stdout, for full-screen terminal
// modes. Records go to cfg.LogFile, or to fallback when that is unset.
func SetupFileLogger(cfg *config.Config, fallback string) (*slog.Logger, io.Closer, error) {
	path := cfg.LogFile
	if path == "" {
		path = fallback
	}

	f, err := openLogFile(path)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewJSONHandler(f, handlerOptions(cfg)))
	slog.SetDefault(logger)

	return logger, f, nil
}

// Discard returns a logger that drops everything below error level, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{
		Level:       slog.LevelError,
		AddSource:   false,
		ReplaceAttr: nil,
	}))
}

func handlerOptions(cfg *config.Config) *slog.HandlerOptions {
	// Determine log level
	logLevel := slog.LevelInfo
	if cfg.Env == "development" {
		logLevel = slog.LevelDebug
	}
	if cfg.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}

	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	return &slog.HandlerOptions{
		Level: logLevel,
	}
}

func openLogFile(path string) (*os.File, error) {
	//nolint:gosec // Log file path comes from operator configuration
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
