package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

type contextKey string

const (
	traceIDBytes = 16 // OpenTelemetry trace ID size in bytes
	spanIDBytes  = 8  // OpenTelemetry span ID size in bytes
)

const (
	// TraceIDKey holds the OpenTelemetry trace ID.
	TraceIDKey contextKey = "trace_id"

	// SpanIDKey holds the OpenTelemetry span ID.
	SpanIDKey contextKey = "span_id"

	// RequestIDKey holds the unique request identifier.
	RequestIDKey contextKey = "request_id"

	// ProviderKey holds the name of the provider serving the call.
	ProviderKey contextKey = "provider"

	// ModelKey holds the requested model.
	ModelKey contextKey = "model"

	// ModeKey holds the execution mode of the call, blocking or non-blocking.
	ModeKey contextKey = "mode"
)

// contextKeys lists the keys copied into log fields, in field order.
var contextKeys = []contextKey{TraceIDKey, SpanIDKey, RequestIDKey, ProviderKey, ModelKey, ModeKey}

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func value(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithTraceID injects trace ID into context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withValue(ctx, TraceIDKey, traceID)
}

// WithSpanID injects span ID into context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return withValue(ctx, SpanIDKey, spanID)
}

// WithRequestID injects request ID into context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withValue(ctx, RequestIDKey, requestID)
}

// WithProvider injects provider name into context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return withValue(ctx, ProviderKey, provider)
}

// WithModel injects model name into context.
func WithModel(ctx context.Context, model string) context.Context {
	return withValue(ctx, ModelKey, model)
}

// WithMode injects the execution mode into context.
func WithMode(ctx context.Context, mode string) context.Context {
	return withValue(ctx, ModeKey, mode)
}

// GetTraceID extracts trace ID from context.
func GetTraceID(ctx context.Context) string {
	return value(ctx, TraceIDKey)
}

// GetSpanID extracts span ID from context.
func GetSpanID(ctx context.Context) string {
	return value(ctx, SpanIDKey)
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	return value(ctx, RequestIDKey)
}

// GetProvider extracts provider name from context.
func GetProvider(ctx context.Context) string {
	return value(ctx, ProviderKey)
}

// GetModel extracts model name from context.
func GetModel(ctx context.Context) string {
	return value(ctx, ModelKey)
}

// GetMode extracts the execution mode from context.
func GetMode(ctx context.Context) string {
	return value(ctx, ModeKey)
}

// GenerateTraceID generates an OpenTelemetry-compatible trace ID (32 hex chars).
func GenerateTraceID() string {
	bytes := make([]byte, traceIDBytes)
	if _, err := rand.Read(bytes); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(bytes)
}

// GenerateSpanID generates an OpenTelemetry-compatible span ID (16 hex chars).
func GenerateSpanID() string {
	bytes := make([]byte, spanIDBytes)
	if _, err := rand.Read(bytes); err != nil {
		return uuid.New().String()[:16]
	}
	return hex.EncodeToString(bytes)
}

// GenerateRequestID generates a unique request identifier (UUID).
func GenerateRequestID() string {
	return uuid.New().String()
}
