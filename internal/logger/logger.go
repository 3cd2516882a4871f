package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured logging across careerpilot.
const (
	FieldComponent = "component"
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
	FieldPlatform  = "platform"
	FieldTab       = "tab"
	FieldURL       = "url"
	FieldOutcome   = "outcome"
	FieldPhase     = "phase"
	FieldStatus    = "status"
	FieldDelayMS   = "delay_ms"
	FieldType      = "type"
	FieldAddress   = "address"
	FieldTopic     = "topic"
	FieldError     = "error"
)

// New builds a logger. format "json" gives production JSON output, anything
// else a console encoder. Unknown levels fall back to info.
func New(level, format string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevelAt(parseLevel(level))
	var cfg zap.Config
	if strings.EqualFold(format, "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.Level = lvl
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Component returns l tagged with a component name.
func Component(l *zap.Logger, name string) *zap.Logger {
	return OrNop(l).With(zap.String(FieldComponent, name))
}

func parseLevel(level string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
