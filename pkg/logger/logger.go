// Package logger provides opinionated logging capabilities for the relay system
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a console logger at the given named level ("debug", "info",
// "warn", "error"). The debug flag forces the level down to Debug regardless
// of the name. The returned AtomicLevel can be retuned at runtime.
func NewLogger(level string, debug bool) (*zap.Logger, zap.AtomicLevel) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	atom := zap.NewAtomicLevelAt(ParseLevel(level, debug))

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		atom,
	)

	return zap.New(core, zap.AddCaller()), atom
}

// ParseLevel maps a level name to a zap level, with debug winning over the name.
func ParseLevel(level string, debug bool) zapcore.Level {
	if debug {
		return zap.DebugLevel
	}

	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
