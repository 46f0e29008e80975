package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
)

type Logger struct {
	service string
	base    *slog.Logger
	sl      *slog.Logger
}

// New logs JSON lines to stderr; stdout belongs to the CLI views.
func New(service string) *Logger { return NewWithWriter(service, os.Stderr, "info") }

func NewWithWriter(service string, w io.Writer, level string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: replaceAttr,
	})
	base := slog.New(h).With("hostname", hostname())
	return &Logger{service: service, base: base, sl: base.With("service", service)}
}

// With returns a logger for another service name sharing the same sink.
func (l *Logger) With(service string) *Logger {
	return &Logger{service: service, base: l.base, sl: l.base.With("service", service)}
}

func (l *Logger) log(level slog.Level, action string, fields map[string]any, err error) {
	attrs := []any{"action", action, "request_id", requestID(fields)}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != "request_id" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, fields[k])
	}
	if err != nil {
		attrs = append(attrs, slog.Group("error", "msg", err.Error(), "stack", fmt.Sprintf("%T", err)))
	}
	l.sl.Log(context.Background(), level, action, attrs...)
}

func (l *Logger) Info(action string, fields map[string]any)  { l.log(slog.LevelInfo, action, fields, nil) }
func (l *Logger) Debug(action string, fields map[string]any) { l.log(slog.LevelDebug, action, fields, nil) }
func (l *Logger) Warn(action string, err error, fields map[string]any) {
	l.log(slog.LevelWarn, action, fields, err)
}
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(slog.LevelError, action, fields, err)
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("timestamp", a.Value.Time().UTC().Format(time.RFC3339Nano))
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func requestID(fields map[string]any) string {
	if v, ok := fields["request_id"].(string); ok {
		return v
	}
	return ""
}

func hostname() string { h, _ := os.Hostname(); return h }
