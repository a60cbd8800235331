package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// parseLogLevel accepts error, warn (or warning), info and debug in any case.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	}
	return 0, fmt.Errorf("invalid log level %q (must be error, warn, info, or debug)", s)
}

func validLogFormat(f string) bool {
	return f == "text" || f == "json"
}

// newLogger builds the daemon logger. Level and format must already be
// validated; unknown formats fall back to text.
func newLogger(level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
