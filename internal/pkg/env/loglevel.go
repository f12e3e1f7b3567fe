package env

import (
	"log/slog"
	"strings"
)

// ParseLogLevel maps LOG_LEVEL ("debug", "info", "warn", "error") to a slog.Level,
// returning fallback when the variable is unset or unknown.
func ParseLogLevel(fallback slog.Level) slog.Level {
	if level, ok := levelFromString(Get("LOG_LEVEL", "")); ok {
		return level
	}
	return fallback
}

func levelFromString(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
