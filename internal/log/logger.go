package log

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger and stamps every record with the component
// that produced it.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// New creates a logger. A nil Handler falls back to a text handler on
// stdout at the configured level.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.Level,
		})
	}
	return &Logger{
		Logger:    slog.New(handler),
		component: config.Component,
	}
}

// With returns a logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// WithComponent returns a logger stamped with a different component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With("component", component),
		component: component,
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, append([]any{"component", l.component}, args...)...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.Logger.DebugContext(ctx, msg, append([]any{"component", l.component}, args...)...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, append([]any{"component", l.component}, args...)...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.Logger.InfoContext(ctx, msg, append([]any{"component", l.component}, args...)...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, append([]any{"component", l.component}, args...)...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.Logger.WarnContext(ctx, msg, append([]any{"component", l.component}, args...)...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.Logger.Error(msg, append([]any{"component", l.component}, args...)...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.Logger.ErrorContext(ctx, msg, append([]any{"component", l.component}, args...)...)
}

// SetDefault routes the stdlib's default slog output through this
// logger.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
