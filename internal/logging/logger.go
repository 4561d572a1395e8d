package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name as given on the command line.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", name)
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger interface for structured logging
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
	Error(ctx context.Context, err error, msg string, fields ...interface{})

	With(fields ...interface{}) Logger
	WithComponent(component string) Logger
}

// DegybLogger implements Logger on top of zerolog.
type DegybLogger struct {
	logger zerolog.Logger
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      LogLevel
	Format     string // "json" or "text"
	Output     io.Writer
	TimeFormat string
	NoColor    bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:      LevelInfo,
		Format:     "text",
		Output:     os.Stderr,
		TimeFormat: time.Kitchen,
	}
}

// NewLogger creates a new structured logger
func NewLogger(config *LoggerConfig) *DegybLogger {
	if config == nil {
		config = DefaultConfig()
	}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	if config.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: config.TimeFormat,
			NoColor:    config.NoColor,
		}
	}

	logger := zerolog.New(out).
		Level(config.Level.zerolog()).
		With().
		Timestamp().
		Logger()

	return &DegybLogger{logger: logger}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *DegybLogger {
	return &DegybLogger{logger: zerolog.Nop()}
}

// Debug logs a debug message
func (l *DegybLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.log(l.logger.Debug(), nil, msg, fields)
}

// Info logs an info message
func (l *DegybLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.log(l.logger.Info(), nil, msg, fields)
}

// Warn logs a warning message
func (l *DegybLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.log(l.logger.Warn(), err, msg, fields)
}

// Error logs an error message
func (l *DegybLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.log(l.logger.Error(), err, msg, fields)
}

// With creates a new logger with additional fields
func (l *DegybLogger) With(fields ...interface{}) Logger {
	return &DegybLogger{logger: l.logger.With().Fields(pairs(fields)).Logger()}
}

// WithComponent creates a new logger with component context
func (l *DegybLogger) WithComponent(component string) Logger {
	return &DegybLogger{logger: l.logger.With().Str("component", component).Logger()}
}

func (l *DegybLogger) log(event *zerolog.Event, err error, msg string, fields []interface{}) {
	if event == nil {
		return
	}
	if err != nil {
		event = event.Err(err)
	}
	event.Fields(pairs(fields)).Msg(msg)
}

// pairs turns alternating key/value arguments into a field map, dropping
// entries whose key is not a string.
func pairs(fields []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			m[key] = fields[i+1]
		}
	}
	return m
}

type ctxKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return logger
	}
	return NewNopLogger()
}
