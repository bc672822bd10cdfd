// Package logging provides a tiny abstraction over slog so the engine can
// depend on a minimal interface (Logger) while allowing hosts to plug any
// structured logger. It also offers a richer EngramLogger with contextual
// helpers (world, component) and domain helpers for summarization and
// eviction reporting.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled
// from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the minimal logging interface the engine depends on.
// Hosts can provide their own implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// EngramLogger wraps slog.Logger adding contextual cloning helpers plus
// domain convenience methods for the memory engine. It is cheap to copy via
// the With* methods.
type EngramLogger struct {
	logger    *slog.Logger
	level     LogLevel
	context   map[string]any
	component string
	worldID   string
}

// LoggerConfig configures construction of an EngramLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
	WorldID   string
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout}
}

// NewLogger builds an EngramLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *EngramLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &EngramLogger{
		logger:    slog.New(handler),
		level:     cfg.Level,
		context:   map[string]any{},
		component: cfg.Component,
		worldID:   cfg.WorldID,
	}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *EngramLogger) clone() *EngramLogger {
	nl := *l
	nl.context = map[string]any{}
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute attached to every log entry.
func (l *EngramLogger) WithContext(key string, value any) *EngramLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (store, engine, snapshot, etc.).
func (l *EngramLogger) WithComponent(c string) *EngramLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithWorld attaches the world identifier.
func (l *EngramLogger) WithWorld(worldID string) *EngramLogger {
	nl := l.clone()
	nl.worldID = worldID
	return nl
}

func (l *EngramLogger) buildAttrs(extra ...slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+len(extra)+2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.worldID != "" {
		attrs = append(attrs, slog.String("world_id", l.worldID))
	}
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return append(attrs, extra...)
}

func (l *EngramLogger) log(level slog.Level, allowed bool, msg string, extra ...slog.Attr) {
	if !allowed {
		return
	}
	l.logger.LogAttrs(context.Background(), level, msg, l.buildAttrs(extra...)...)
}

// Debug logs at debug level.
func (l *EngramLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, slog.Group("args", args...))
}

// Info logs at info level.
func (l *EngramLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, slog.Group("args", args...))
}

// Warn logs at warn level.
func (l *EngramLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, slog.Group("args", args...))
}

// Error logs at error level.
func (l *EngramLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, slog.Group("args", args...))
}

// LogSummarization records the outcome of one summarization round trip.
func (l *EngramLogger) LogSummarization(requestID string, sources int, dur time.Duration, applied bool, err error) {
	attrs := []slog.Attr{
		slog.String("request_id", requestID),
		slog.Int("source_count", sources),
		slog.Duration("duration", dur),
		slog.Bool("applied", applied),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	level := slog.LevelInfo
	msg := "summarization applied"
	if !applied {
		level = slog.LevelWarn
		msg = "summarization not applied"
	}
	l.log(level, l.level <= LogLevelWarn, msg, attrs...)
}

// LogEviction records a local store shedding records to meet capacity.
func (l *EngramLogger) LogEviction(entityID string, evicted, remaining int) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, "local memory evicted",
		slog.String("entity_id", entityID),
		slog.Int("evicted", evicted),
		slog.Int("remaining", remaining),
	)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is
// disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
