package app

import (
	"log/slog"
	"os"

	"github.com/rxdesk/pharmacy-api/internal/config"
)

// NewLogger builds the process logger: JSON or text on stdout at cfg.Level.
// Unknown levels fall back to info.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
