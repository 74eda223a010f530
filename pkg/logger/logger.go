// Package logger builds the process-wide slog logger. Handlers emit JSON to
// stdout so log lines are collector-friendly without extra configuration.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

const defaultService = "spicemart-api"

type Options struct {
	Service   string
	Env       string
	Level     string
	AddSource bool
}

// New configures the logger and installs it as the slog default. An empty
// service name falls back to defaultService so every line stays attributable.
func New(opts Options) *slog.Logger {
	if strings.TrimSpace(opts.Service) == "" {
		opts.Service = defaultService
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: opts.AddSource,
	})

	base := slog.New(h).With(
		slog.String("service", opts.Service),
		slog.String("env", opts.Env),
	)

	slog.SetDefault(base)
	return base
}

// Component returns a child logger tagged with the subsystem name, so logs
// from the HTTP surface, stores, and background work can be told apart.
func Component(base *slog.Logger, name string) *slog.Logger {
	return base.With(slog.String("component", name))
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
