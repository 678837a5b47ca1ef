package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger from a level string ("debug", "info", "warn",
// "error") and a format ("json" or "console"). Unknown levels fall back to
// info so a bad config value never silences logging entirely.
func New(level, format string) *zap.Logger {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	if format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		// zap only fails on invalid encoder configs; fall back to a
		// bare production logger rather than panicking at startup.
		log, _ = zap.NewProduction()
	}
	return log
}

// NewNop returns a no-op logger for tests and optional dependencies.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// Named returns a sugared logger with a component name attached.
func Named(log *zap.Logger, name string) *zap.SugaredLogger {
	return log.Named(name).Sugar()
}

// Sync flushes buffered log entries, ignoring the spurious error that
// stderr sinks return on some platforms.
func Sync(log *zap.Logger) {
	if log == nil {
		return
	}
	if err := log.Sync(); err != nil {
		fmt.Printf("logger sync: %v\n", err)
	}
}
