// Package logger configures the zap logger used across tripsim.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It is a no-op until Initialize is called
// so library code can log unconditionally.
var Logger = zap.NewNop().Sugar()

// Standard field names for structured logging.
const (
	FieldRequestID   = "request_id"
	FieldRunID       = "run_id"
	FieldComponent   = "component"
	FieldRules       = "rules"
	FieldNodes       = "nodes"
	FieldRound       = "round"
	FieldScore       = "score"
	FieldCandidates  = "candidates"
	FieldDescription = "description"
	FieldCatalogue   = "catalogue"
	FieldDurationMS  = "duration_ms"
	FieldError       = "error"
	FieldPath        = "path"
	FieldCount       = "count"
)

// Initialize replaces the global logger. JSON output uses the zap production
// encoder; otherwise a console encoder is written to stderr.
func Initialize(jsonOutput bool, level string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zapcore.InfoLevel
	}

	var zl *zap.Logger
	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		zl, err = cfg.Build()
		if err != nil {
			return err
		}
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zl = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stderr),
			lvl,
		))
	}

	Logger = zl.Sugar()
	return nil
}

// Named returns a child of the global logger tagged with a component name.
func Named(component string) *zap.SugaredLogger {
	return Logger.Named(component).With(FieldComponent, component)
}

// Or returns l when non-nil, otherwise the named global logger.
func Or(l *zap.SugaredLogger, component string) *zap.SugaredLogger {
	if l != nil {
		return l
	}
	return Named(component)
}

// Sync flushes buffered entries; errors from syncing stderr are ignored.
func Sync() {
	_ = Logger.Sync()
}
