package log

import (
	"context"
	"log/slog"
	"net/http"
)

// Middleware stores logger in every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware adds the request ID to the context logger.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger logs request and domain events with standard fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs a completed request at a level derived from its status.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP)

	sl.from(ctx).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogExpenseChanged logs a committed expense mutation.
func (sl *StructuredLogger) LogExpenseChanged(ctx context.Context, op, id, ownerID, category string, amountCents int64) {
	fields := NewFields().
		WithExpense(id, ownerID, category, amountCents).
		WithOperation(op)
	sl.from(ctx).WithComponent(ComponentExpense).InfoContext(ctx, "Expense "+op+"d", fields.ToSlice()...)
}

// LogError logs err with component and operation context.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err).WithOperation(operation)
	sl.from(ctx).WithComponent(component).ErrorContext(ctx, msg, fields.ToSlice()...)
}

// from prefers the request-scoped logger over the one given at construction.
func (sl *StructuredLogger) from(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	return sl.logger
}
