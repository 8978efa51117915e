// Package logger provides a small structured logging facade backed by
// log/slog. Components receive a Logger and attach typed fields instead
// of formatting strings themselves.
package logger

import (
	"io"
	"log/slog"
	"time"
)

// LogLevel controls the minimum level a Logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Field is a typed key/value attribute attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// Logger is the logging interface used throughout the engine.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger that includes the given fields on every entry.
	With(fields ...Field) Logger
}

// Field constructors.

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field   { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value any) Field         { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value.Format(time.RFC3339)}
}

// Error attaches an error under the conventional "error" key.
// A nil error renders as "<nil>" rather than being dropped, so call
// sites don't need to guard.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// slogLogger adapts slog to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger creates a Logger writing JSON entries to w at the given
// minimum level. Base fields, if any, are attached to every entry.
func NewSlogLogger(w io.Writer, level LogLevel, base []Field) Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: toSlogLevel(level)})
	l := slog.New(h)
	if len(base) > 0 {
		l = l.With(toAttrs(base)...)
	}
	return &slogLogger{l: l}
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func toAttrs(fields []Field) []any {
	attrs := make([]any, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	return attrs
}

func (s *slogLogger) Debug(msg string, fields ...Field) { s.l.Debug(msg, toAttrs(fields)...) }
func (s *slogLogger) Info(msg string, fields ...Field)  { s.l.Info(msg, toAttrs(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.l.Warn(msg, toAttrs(fields)...) }
func (s *slogLogger) Error(msg string, fields ...Field) { s.l.Error(msg, toAttrs(fields)...) }

func (s *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{l: s.l.With(toAttrs(fields)...)}
}
