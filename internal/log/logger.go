// Package log wraps log/slog with component-scoped loggers and the field
// names shared across the service.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger whose records carry a component attribute.
// base is the same logger without it, so WithComponent replaces the component
// instead of appending a second one.
type Logger struct {
	*slog.Logger
	base *slog.Logger
}

type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer // stdout when nil; ignored when Handler is set
	Handler   slog.Handler
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: ComponentApp}
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
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

// New builds a text logger for config. The component is attached once, as a
// logger attribute.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level})
	}

	l := &Logger{Logger: slog.New(handler)}
	l.base = l.Logger
	if config.Component != "" {
		l = l.WithComponent(config.Component)
	}
	return l
}

func wrap(l *slog.Logger) *Logger {
	return &Logger{Logger: l, base: l}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), base: l.base.With(args...)}
}

// WithComponent scopes the logger to component, replacing any previous one.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.base.With(FieldComponent, component), base: l.base}
}

func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
