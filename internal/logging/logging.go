// Package logging builds the logr.Logger used throughout the engine: a
// go.uber.org/zap logger wrapped with go-logr/zapr, built directly here
// rather than through a controller-manager's logging setup, since this
// program has no manager to register a logger against.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logr.Logger. pretty selects a human-readable console
// encoder (matching the outer CLI's DC_PRETTY flag); otherwise JSON
// lines are emitted, suitable for bulk/pipeline consumption.
func New(pretty bool, level string) (logr.Logger, error) {
	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	zl, err := cfg.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() logr.Logger {
	return logr.Discard()
}
