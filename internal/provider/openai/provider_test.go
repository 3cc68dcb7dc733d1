package openai_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/provider/openai"
)

const completionJSON = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "deepseek-reasoner",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": "Paris", "reasoning_content": "France"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 4, "completion_tokens": 2, "total_tokens": 6}
}`

func sseBody(payloads ...string) string {
	var body string
	for _, p := range payloads {
		body += "data: " + p + "\n\n"
	}
	return body
}

var streamPayloads = []string{
	`{"id":"c","object":"chat.completion.chunk","created":1,"model":"deepseek-reasoner","choices":[{"index":0,"delta":{"role":"assistant","reasoning_content":"Fr"}}]}`,
	`{"id":"c","object":"chat.completion.chunk","created":1,"model":"deepseek-reasoner","choices":[{"index":0,"delta":{"content":"Pa"}}]}`,
	`{"id":"c","object":"chat.completion.chunk","created":1,"model":"deepseek-reasoner","choices":[{"index":0,"delta":{"content":"ris"},"finish_reason":"stop"}]}`,
	`{"id":"c","object":"chat.completion.chunk","created":1,"model":"deepseek-reasoner","choices":[],"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}`,
}

func newServer(t *testing.T, capture *map[string]any, respond func(w http.ResponseWriter, stream bool)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if capture != nil {
			*capture = body
		}

		stream, _ := body["stream"].(bool)
		respond(w, stream)
	}))
}

func chatRequest(stream bool) *domain.ChatRequest {
	return &domain.ChatRequest{
		Model:    "deepseek-reasoner",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "Capital of France?"}},
		Options:  domain.Options{Stream: stream},
	}
}

func TestCompatibleProvider(t *testing.T) {
	respond := func(w http.ResponseWriter, stream bool) {
		if stream {
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, sseBody(append(streamPayloads, "[DONE]")...))
			return
		}
		_, _ = io.WriteString(w, completionJSON)
	}

	t.Run("should complete a single response", func(t *testing.T) {
		var body map[string]any
		server := newServer(t, &body, respond)
		defer server.Close()

		provider, err := openai.NewCompatibleProvider(openai.VendorDeepSeek, openai.Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
		require.NoError(t, err)

		resp, err := provider.Chat(context.Background(), chatRequest(false))

		require.NoError(t, err)
		require.Equal(t, "Paris", resp.Content)
		require.Equal(t, "France", resp.Thinking)
		require.Equal(t, 6, resp.Usage.TotalTokens)
		require.NotContains(t, body, "stream")
	})

	t.Run("should accumulate a stream in both execution modes", func(t *testing.T) {
		var body map[string]any
		server := newServer(t, &body, respond)
		defer server.Close()

		provider, err := openai.NewCompatibleProvider(openai.VendorDeepSeek, openai.Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
		require.NoError(t, err)

		blockingResp, err := provider.Chat(context.Background(), chatRequest(true))
		require.NoError(t, err)

		asyncResp, err := provider.ChatAsync(context.Background(), chatRequest(true)).Wait(context.Background())
		require.NoError(t, err)

		for _, resp := range []*domain.Response{blockingResp, asyncResp} {
			require.Equal(t, "Paris", resp.Content)
			require.Equal(t, "Fr", resp.Thinking)
			require.Equal(t, "stop", resp.FinishReason)
			require.Equal(t, &domain.Usage{PromptTokens: 4, CompletionTokens: 2, TotalTokens: 6}, resp.Usage)
		}
		require.Equal(t, map[string]any{"include_usage": true}, body["stream_options"])
	})

	t.Run("should keep partial output when the stream breaks", func(t *testing.T) {
		server := newServer(t, nil, func(w http.ResponseWriter, _ bool) {
			_, _ = io.WriteString(w, sseBody(streamPayloads[1], streamPayloads[2], `{"choices": [`))
		})
		defer server.Close()

		provider, err := openai.NewCompatibleProvider(openai.VendorDeepSeek, openai.Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
		require.NoError(t, err)

		_, err = provider.Chat(context.Background(), chatRequest(true))

		var interrupted *domain.StreamInterruptedError
		require.ErrorAs(t, err, &interrupted)
		require.Equal(t, "Paris", interrupted.Partial.Content)
	})

	t.Run("should surface status errors", func(t *testing.T) {
		server := newServer(t, nil, func(w http.ResponseWriter, _ bool) {
			http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
		})
		defer server.Close()

		provider, err := openai.NewCompatibleProvider(openai.VendorDeepSeek, openai.Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
		require.NoError(t, err)

		_, err = provider.Chat(context.Background(), chatRequest(false))

		require.ErrorContains(t, err, "401")
	})

	t.Run("should reject unknown vendors and missing keys", func(t *testing.T) {
		_, err := openai.NewCompatibleProvider("nope", openai.Config{APIKey: "k"})
		require.ErrorContains(t, err, "unknown chat completions vendor")

		_, err = openai.NewCompatibleProvider(openai.VendorMoonshot, openai.Config{})
		require.ErrorContains(t, err, "API key is not configured")
	})
}

func TestProvider_SDK(t *testing.T) {
	t.Run("should keep vendor fields from the raw SDK response", func(t *testing.T) {
		server := newServer(t, nil, func(w http.ResponseWriter, stream bool) {
			w.Header().Set("Content-Type", "application/json")
			if stream {
				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = io.WriteString(w, sseBody(append(streamPayloads, "[DONE]")...))
				return
			}
			_, _ = io.WriteString(w, completionJSON)
		})
		defer server.Close()

		provider, err := openai.NewProvider(openai.Config{APIKey: "test-key", BaseURL: server.URL + "/", Timeout: 5})
		require.NoError(t, err)
		require.Equal(t, "openai", provider.Name())
		require.Equal(t, domain.KindOpenAI, provider.Kind())

		resp, err := provider.Chat(context.Background(), chatRequest(false))
		require.NoError(t, err)
		require.Equal(t, "Paris", resp.Content)
		require.Equal(t, "France", resp.Thinking)

		streamed, err := provider.Chat(context.Background(), chatRequest(true))
		require.NoError(t, err)
		require.Equal(t, "Paris", streamed.Content)
		require.Equal(t, 6, streamed.Usage.TotalTokens)
	})

	t.Run("should forward extra message keys and custom roles", func(t *testing.T) {
		var body map[string]any
		server := newServer(t, &body, func(w http.ResponseWriter, _ bool) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, completionJSON)
		})
		defer server.Close()

		provider, err := openai.NewProvider(openai.Config{APIKey: "test-key", BaseURL: server.URL + "/", Timeout: 5})
		require.NoError(t, err)

		req := chatRequest(false)
		req.Messages = []domain.Message{
			{Role: domain.RoleUser, Content: "hi", Metadata: map[string]any{"name": "alice", domain.MetaUsage: 1}},
			{Role: "function", Content: "42", Metadata: map[string]any{"name": "lookup"}},
		}
		req.Options.Params = map[string]any{"top_p": 0.5}

		_, err = provider.Chat(context.Background(), req)
		require.NoError(t, err)

		messages, ok := body["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)

		first := messages[0].(map[string]any)
		require.Equal(t, "user", first["role"])
		require.Equal(t, "alice", first["name"])
		require.NotContains(t, first, domain.MetaUsage)

		second := messages[1].(map[string]any)
		require.Equal(t, "function", second["role"])
		require.Equal(t, "lookup", second["name"])
		require.InDelta(t, 0.5, body["top_p"], 0)
	})

	t.Run("should require an API key", func(t *testing.T) {
		provider, err := openai.NewProvider(openai.Config{})

		require.Error(t, err)
		require.Nil(t, provider)
		require.Contains(t, err.Error(), "OpenAI API key is required")
	})
}

func TestProvider_IsModelSupported(t *testing.T) {
	provider, err := openai.NewProvider(openai.Config{APIKey: "test-key"})
	require.NoError(t, err)

	tests := []struct {
		model     string
		supported bool
	}{
		{model: "gpt-4o", supported: true},
		{model: "gpt-4.1-nano", supported: true},
		{model: "o3-mini", supported: true},
		{model: "claude-sonnet-4", supported: false},
		{model: "gemini-2.5-flash", supported: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s supported=%v", tt.model, tt.supported), func(t *testing.T) {
			require.Equal(t, tt.supported, provider.IsModelSupported(context.Background(), tt.model))
		})
	}
}
