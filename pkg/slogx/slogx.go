// Package slogx configures the service's structured logging and carries a
// request-scoped logger through context. Handlers and services pull the
// logger back out with FromContext rather than holding their own.
package slogx

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Service string
	Version string
	Env     string // "dev", "staging", "prod"
	Level   string // "debug", "info", "warn", "error"
	Format  string // "json" (default) or "text"
}

// New builds the root logger and installs it as the slog default. Every line
// carries the service identity, so aggregated logs from multiple deployments
// stay attributable. Text format is meant for local development; source
// locations are added there too since dev is where they get read.
func New(cfg Config) *slog.Logger {
	dev := cfg.Env == "dev"

	opts := &slog.HandlerOptions{
		AddSource: dev,
		Level:     parseLevel(cfg.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

// parseLevel maps a config string to a slog.Level, defaulting to Info for
// anything unrecognized rather than failing startup over a typo.
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
