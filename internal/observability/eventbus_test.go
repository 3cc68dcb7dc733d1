package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davidbz/prism/internal/observability"
)

func TestEventBus_Publish(t *testing.T) {
	t.Run("should log event with data and context fields", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		bus := observability.NewEventBus(zap.New(core))

		ctx := observability.WithRequestID(context.Background(), "req-1")
		bus.Publish(ctx, "chat.completed", map[string]any{"provider": "echo", "total_tokens": 6})

		entries := logs.All()
		require.Len(t, entries, 1)
		require.Equal(t, "chat.completed", entries[0].Message)

		fields := entries[0].ContextMap()
		require.Equal(t, "req-1", fields["request_id"])
		require.Equal(t, "echo", fields["provider"])
		require.Equal(t, "chat.completed", fields["event"])
	})

	t.Run("should ignore publish without logger", func(t *testing.T) {
		bus := observability.NewEventBus(nil)
		require.NotPanics(t, func() {
			bus.Publish(context.Background(), "noop", nil)
		})
	})
}

func TestContext(t *testing.T) {
	t.Run("should round trip values through context", func(t *testing.T) {
		ctx := context.Background()
		ctx = observability.WithTraceID(ctx, "trace")
		ctx = observability.WithProvider(ctx, "anthropic")
		ctx = observability.WithModel(ctx, "claude-sonnet-4")

		require.Equal(t, "trace", observability.GetTraceID(ctx))
		require.Equal(t, "anthropic", observability.GetProvider(ctx))
		require.Equal(t, "claude-sonnet-4", observability.GetModel(ctx))
		require.Empty(t, observability.GetSpanID(ctx))
	})

	t.Run("should carry the execution mode into log fields", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		observability.SetLogger(zap.New(core))
		t.Cleanup(func() { observability.SetLogger(nil) })

		ctx := observability.WithMode(context.Background(), "non-blocking")
		ctx = observability.WithModel(ctx, "")
		observability.FromContext(ctx).Info("call")

		fields := logs.All()[0].ContextMap()
		require.Equal(t, "non-blocking", fields["mode"])
		require.NotContains(t, fields, "model")
		require.Equal(t, "non-blocking", observability.GetMode(ctx))
	})

	t.Run("should generate ids of the expected length", func(t *testing.T) {
		require.Len(t, observability.GenerateTraceID(), 32)
		require.Len(t, observability.GenerateSpanID(), 16)
		require.NotEqual(t, observability.GenerateRequestID(), observability.GenerateRequestID())
	})
}
