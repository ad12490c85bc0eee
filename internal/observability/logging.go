package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn" or "error".
	Level string

	// Format is "text" or "json".
	Format string

	// Output defaults to os.Stderr; stdout belongs to the stdio transport.
	Output io.Writer

	// LevelVar, when set, receives the level and drives the handler so the
	// level can be changed after construction.
	LevelVar *slog.LevelVar
}

// NewLogger builds a slog logger from cfg.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	var level slog.Leveler = ParseLevel(cfg.Level)
	if cfg.LevelVar != nil {
		cfg.LevelVar.Set(ParseLevel(cfg.Level))
		level = cfg.LevelVar
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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
