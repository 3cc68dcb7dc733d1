package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/provider/anthropic"
)

const messageJSON = `{
	"id": "msg_1",
	"type": "message",
	"role": "assistant",
	"model": "claude-sonnet-4-20250514",
	"content": [{"type": "thinking", "thinking": "Easy", "signature": "sig"}, {"type": "text", "text": "Four"}],
	"stop_reason": "end_turn",
	"stop_sequence": null,
	"usage": {"input_tokens": 12, "output_tokens": 6}
}`

func sse(events ...string) string {
	var b strings.Builder
	for _, ev := range events {
		var typed struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal([]byte(ev), &typed)
		b.WriteString("event: " + typed.Type + "\ndata: " + ev + "\n\n")
	}
	return b.String()
}

var fullStream = []string{
	`{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514","content":[],"usage":{"input_tokens":12,"output_tokens":1}}}`,
	`{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":""}}`,
	`{"type":"ping"}`,
	`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"Easy"}}`,
	`{"type":"content_block_stop","index":0}`,
	`{"type":"content_block_start","index":1,"content_block":{"type":"text","text":""}}`,
	`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"Fo"}}`,
	`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"ur"}}`,
	`{"type":"content_block_stop","index":1}`,
	`{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":6}}`,
	`{"type":"message_stop"}`,
}

func newAnthropicServer(t *testing.T, stream []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body anthropic.MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, 64000, body.MaxTokens)

		if body.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, sse(stream...))
			return
		}
		_, _ = io.WriteString(w, messageJSON)
	}))
}

func newTestProvider(t *testing.T, url string) *anthropic.Provider {
	t.Helper()
	provider, err := anthropic.NewProvider(anthropic.Config{
		APIKey:         "test-key",
		BaseURL:        url,
		Timeout:        5,
		MaxTokens:      anthropic.DefaultMaxTokens,
		ThinkingBudget: anthropic.DefaultThinkingBudget,
	})
	require.NoError(t, err)
	return provider
}

func claudeRequest(stream bool) *domain.ChatRequest {
	return &domain.ChatRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "2+2?"}},
		Options:  domain.Options{Stream: stream},
	}
}

func TestProvider(t *testing.T) {
	t.Run("should convert a complete message", func(t *testing.T) {
		server := newAnthropicServer(t, fullStream)
		defer server.Close()

		resp, err := newTestProvider(t, server.URL).Chat(context.Background(), claudeRequest(false))

		require.NoError(t, err)
		require.Equal(t, "Four", resp.Content)
		require.Equal(t, "Easy", resp.Thinking)
		require.Equal(t, &domain.Usage{PromptTokens: 12, CompletionTokens: 6, TotalTokens: 18}, resp.Usage)
	})

	t.Run("should accumulate an event stream in both execution modes", func(t *testing.T) {
		server := newAnthropicServer(t, fullStream)
		defer server.Close()
		provider := newTestProvider(t, server.URL)

		var fragments []string
		req := claudeRequest(true)
		req.Options.Callback = func(_ domain.ContentKind, text string, _ int) {
			fragments = append(fragments, text)
		}

		blockingResp, err := provider.Chat(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, []string{"Easy", "Fo", "ur"}, fragments)

		asyncResp, err := provider.ChatAsync(context.Background(), claudeRequest(true)).Wait(context.Background())
		require.NoError(t, err)

		for _, resp := range []*domain.Response{blockingResp, asyncResp} {
			require.Equal(t, "Four", resp.Content)
			require.Equal(t, "Easy", resp.Thinking)
			require.Equal(t, "end_turn", resp.FinishReason)
			require.Equal(t, 18, resp.Usage.TotalTokens)
		}
	})

	t.Run("should report an error event as an interruption with partial output", func(t *testing.T) {
		broken := append([]string{}, fullStream[:7]...)
		broken = append(broken, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
		server := newAnthropicServer(t, broken)
		defer server.Close()

		_, err := newTestProvider(t, server.URL).Chat(context.Background(), claudeRequest(true))

		var interrupted *domain.StreamInterruptedError
		require.ErrorAs(t, err, &interrupted)
		require.Equal(t, "Fo", interrupted.Partial.Content)
		var apiErr *anthropic.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "overloaded_error", apiErr.Type)
	})

	t.Run("should report model support", func(t *testing.T) {
		server := newAnthropicServer(t, fullStream)
		defer server.Close()
		provider := newTestProvider(t, server.URL)

		require.Equal(t, "anthropic", provider.Name())
		require.Equal(t, domain.KindAnthropic, provider.Kind())
		require.True(t, provider.IsModelSupported(context.Background(), "claude-opus-4-20250514"))
		require.False(t, provider.IsModelSupported(context.Background(), "gemini-2.5-pro"))
	})
}

func TestNewProvider_MissingKey(t *testing.T) {
	t.Run("should fail without an API key", func(t *testing.T) {
		provider, err := anthropic.NewProvider(anthropic.Config{BaseURL: "http://localhost"})

		require.Error(t, err)
		require.Nil(t, provider)
		require.Contains(t, err.Error(), "Anthropic API key is required")
	})
}
