// Package logging builds the process logger. The core packages only ever
// see the small leveled interface declared in internal/bus, so anything
// with Debugw/Infow/Warnw/Errorw can stand in during tests.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a production logger at the given level. Supported levels
// are debug, info, warn, and error; anything else is an error rather than
// a silent fallback.
func New(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return nil, fmt.Errorf("logging: unknown level %q", level)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything. Handy for tests and for
// the TUI, which owns the terminal.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
