// Package requestctx carries correlation data through contexts so that HTTP
// requests and background job runs log and audit under one id.
package requestctx

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	originKey
)

const (
	OriginHTTP = "http"
	OriginJob  = "job"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

// WithJob marks ctx as a background job run; runID doubles as request id.
func WithJob(ctx context.Context, runID string) context.Context {
	ctx = context.WithValue(ctx, originKey, OriginJob)
	return WithRequestID(ctx, runID)
}

func Origin(ctx context.Context) string {
	if value, ok := ctx.Value(originKey).(string); ok {
		return value
	}
	return OriginHTTP
}

// LogAttrs returns the correlation attributes for slog calls.
func LogAttrs(ctx context.Context) []any {
	attrs := []any{slog.String("origin", Origin(ctx))}
	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, slog.String("requestId", id))
	}
	return attrs
}
