package logging

import (
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

// InitLogger initializes the global logger instance and installs it as the
// slog default.
func InitLogger(logDir string, retentionWeeks int, maxFileSize int64) {
	defaultLogger = SetupLogger(logDir, retentionWeeks, maxFileSize)
	slog.SetDefault(defaultLogger)
}

// Package-level helpers. Before InitLogger runs they fall back to a plain
// console logger so early startup and tests still produce output.

func fallback(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func Info(msg string, args ...any) {
	if defaultLogger == nil {
		fallback(slog.LevelInfo).Info(msg, args...)
		return
	}
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	if defaultLogger == nil {
		fallback(slog.LevelWarn).Warn(msg, args...)
		return
	}
	defaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	if defaultLogger == nil {
		fallback(slog.LevelError).Error(msg, args...)
		return
	}
	defaultLogger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	if defaultLogger == nil {
		fallback(slog.LevelDebug).Debug(msg, args...)
		return
	}
	defaultLogger.Debug(msg, args...)
}
