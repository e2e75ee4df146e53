package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext extracts a logger from the context, falling back to the
// process default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return Default()
}

// RequestLogger logs the start and completion of HTTP requests.
type RequestLogger struct {
	logger *Logger
}

func NewRequestLogger(logger *Logger) *RequestLogger {
	return &RequestLogger{logger: logger.WithComponent(ComponentHTTP)}
}

// Start logs the start of an HTTP request
func (rl *RequestLogger) Start(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithClientIP(clientIP)
	FromContext(ctx).DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// End logs the completion of an HTTP request. 4xx log at WARN, 5xx at ERROR.
func (rl *RequestLogger) End(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP)
	FromContext(ctx).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// Base returns the logger requests derive their context loggers from.
func (rl *RequestLogger) Base() *Logger {
	return rl.logger
}
