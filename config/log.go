package config

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a JSON logger writing to the rotating log file and to
// mirror, if not nil. Close the returned io.Closer on shutdown.
func (c LogConfig) NewLogger(mirror io.Writer) (*slog.Logger, io.Closer) {
	rotator := &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
		Compress:   true,
	}

	var w io.Writer = rotator
	if mirror != nil {
		w = io.MultiWriter(rotator, mirror)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(c.Level)})

	return slog.New(h), rotator
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
