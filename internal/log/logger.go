// Package log configures structured logging for the application and
// carries correlation identifiers through request contexts.
package log

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/snapvec/snapvec/internal/config"
)

type contextKey string

const (
	// CorrelationIDKey keys the correlation ID attached to contexts.
	CorrelationIDKey contextKey = "correlation_id"
	// RequestIDKey keys the HTTP request ID attached to contexts.
	RequestIDKey contextKey = "request_id"
)

// Configure installs the global slog default handler according to the
// application configuration.
func Configure(cfg *config.AppConfig) {
	level := parseLevel(cfg.LogLevel())

	var handler slog.Handler
	switch cfg.LogFormat() {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	default:
		handler = newTerminalHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// WithCorrelationID returns a context carrying the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// WithRequestID returns a context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// FromContext returns the default logger enriched with any correlation
// and request identifiers stored on the context.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok && id != "" {
		logger = logger.With(slog.String(string(CorrelationIDKey), id))
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		logger = logger.With(slog.String(string(RequestIDKey), id))
	}
	return logger
}
