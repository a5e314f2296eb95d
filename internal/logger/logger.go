package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents log level
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel maps a level name to a Level
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown log level %q", s)
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger provides JSON Lines logging
type Logger struct {
	zl *zap.Logger
}

// NewLogger creates a new Logger
func NewLogger(writer io.Writer, level Level) *Logger {
	if writer == nil {
		writer = os.Stderr
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     utcRFC3339Nano,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(writer),
		level.zapLevel(),
	)

	return &Logger{zl: zap.New(core)}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

func utcRFC3339Nano(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	zapcore.RFC3339NanoTimeEncoder(t.UTC(), enc)
}

// WithRunID returns a child logger that tags every line with the run id
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{zl: l.zl.With(zap.String("run_id", runID))}
}

// LogLicenseCheck logs the verdict for one package/license pair
func (l *Logger) LogLicenseCheck(name, license, decision, reason string) {
	l.zl.Debug("license checked",
		zap.String("event", "license_check"),
		zap.String("name", name),
		zap.String("license", license),
		zap.String("decision", decision),
		zap.String("reason", reason),
	)
}

// Log logs a generic event
func (l *Logger) Log(level Level, event, message string, data map[string]interface{}) {
	fields := []zap.Field{zap.String("event", event)}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data))
	}

	if ce := l.zl.Check(level.zapLevel(), message); ce != nil {
		ce.Write(fields...)
	}
}

// Debug logs a debug event
func (l *Logger) Debug(event, message string, data map[string]interface{}) {
	l.Log(LevelDebug, event, message, data)
}

// Info logs an info event
func (l *Logger) Info(event, message string, data map[string]interface{}) {
	l.Log(LevelInfo, event, message, data)
}

// Warn logs a warning event
func (l *Logger) Warn(event, message string, data map[string]interface{}) {
	l.Log(LevelWarn, event, message, data)
}

// Error logs an error event
func (l *Logger) Error(event, message string, data map[string]interface{}) {
	l.Log(LevelError, event, message, data)
}

// Sync flushes buffered log entries
func (l *Logger) Sync() error {
	return l.zl.Sync()
}
