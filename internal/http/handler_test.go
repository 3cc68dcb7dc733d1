package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/prism/internal/config"
	"github.com/davidbz/prism/internal/domain"
	prismhttp "github.com/davidbz/prism/internal/http"
	"github.com/davidbz/prism/internal/http/middleware"
	"github.com/davidbz/prism/internal/provider/echo"
	"github.com/davidbz/prism/internal/provider/registry"
	"github.com/davidbz/prism/internal/routing"
)

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(context.Background(), echo.NewProvider()))

	gateway := domain.NewGatewayService(reg, domain.WithRouter(routing.NewRouter(reg)))
	return newServer(t, gateway)
}

func newServer(t *testing.T, gateway prismhttp.ChatService) *httptest.Server {
	t.Helper()

	handler := prismhttp.NewHandler(gateway, &config.DisplayConfig{})
	server := prismhttp.NewServer(&config.ServerConfig{}, handler, middleware.BuildMiddlewareChain(nil))

	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postChat(t *testing.T, ts *httptest.Server, body string, header http.Header) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/chat", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, body io.Reader) []sseEvent {
	t.Helper()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)

	var events []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(string(raw)), "\n\n") {
		var e sseEvent
		for _, line := range strings.Split(block, "\n") {
			if name, ok := strings.CutPrefix(line, "event: "); ok {
				e.name = name
			}
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				e.data = data
			}
		}
		events = append(events, e)
	}
	return events
}

func TestHandleChat(t *testing.T) {
	t.Run("should return the canonical response as JSON", func(t *testing.T) {
		ts := newEchoServer(t)

		resp := postChat(t, ts, `{"model":"echo4","messages":[{"role":"user","content":"Hello world"}]}`, nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		require.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

		var body domain.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "[user]: Hello world\n", body.Content)
		require.Equal(t, domain.RoleAssistant, body.Role)
		require.Equal(t, 6, body.Usage.TotalTokens)
	})

	t.Run("should stream fragments as server sent events", func(t *testing.T) {
		ts := newEchoServer(t)

		resp := postChat(t, ts, `{"model":"echo4","stream":true,"messages":[{"role":"user","content":"Hello world"}]}`, nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		events := readEvents(t, resp.Body)
		require.Len(t, events, 4)

		var texts []string
		for i, e := range events[:3] {
			require.Equal(t, "answer", e.name)
			var f struct {
				Text  string `json:"text"`
				Index int    `json:"index"`
			}
			require.NoError(t, json.Unmarshal([]byte(e.data), &f))
			require.Equal(t, i, f.Index)
			texts = append(texts, f.Text)
		}
		require.Equal(t, []string{"[user]: ", "Hello ", "world"}, texts)

		require.Equal(t, "done", events[3].name)
		var final domain.Response
		require.NoError(t, json.Unmarshal([]byte(events[3].data), &final))
		require.Equal(t, "[user]: Hello world", final.Content)
	})

	t.Run("should let the provider header override the body", func(t *testing.T) {
		ts := newEchoServer(t)

		header := http.Header{}
		header.Set(prismhttp.ProviderHeader, "missing")
		resp := postChat(t, ts, `{"model":"echo4","provider":"echo","messages":[{"role":"user","content":"hi"}]}`, header)

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("should return not found for unknown models", func(t *testing.T) {
		ts := newEchoServer(t)

		resp := postChat(t, ts, `{"model":"gpt-unknown","messages":[{"role":"user","content":"hi"}]}`, nil)

		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Contains(t, body["error"], "provider not found")
	})

	t.Run("should reject malformed messages", func(t *testing.T) {
		ts := newEchoServer(t)

		resp := postChat(t, ts, `{"model":"echo4","messages":[{"role":"user"}]}`, nil)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("should reject invalid bodies", func(t *testing.T) {
		ts := newEchoServer(t)

		cases := map[string]string{
			"invalid json":     `{`,
			"missing model":    `{"messages":[{"role":"user","content":"hi"}]}`,
			"missing messages": `{"model":"echo4"}`,
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				resp := postChat(t, ts, body, nil)
				require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			})
		}
	})

	t.Run("should reject other methods", func(t *testing.T) {
		ts := newEchoServer(t)

		resp, err := http.Get(ts.URL + "/v1/chat")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

// interruptingGateway fails every streamed call after one fragment.
type interruptingGateway struct {
	received *domain.ChatRequest
}

func (g *interruptingGateway) Chat(_ context.Context, req *domain.ChatRequest) (*domain.Response, error) {
	g.received = req
	if req.Options.Callback != nil {
		req.Options.Callback(domain.ContentAnswer, "Par", 0)
	}
	return nil, &domain.StreamInterruptedError{
		Partial: &domain.Response{Role: domain.RoleAssistant, Content: "Par"},
		Err:     errors.New("connection reset"),
	}
}

func TestHandleChat_Interrupted(t *testing.T) {
	t.Run("should send an error event with the partial response", func(t *testing.T) {
		gateway := &interruptingGateway{}
		ts := newServer(t, gateway)

		resp := postChat(t, ts, `{"model":"m","stream":true,"show_thinking":false,"temperature":0.5,"messages":[{"role":"user","content":"hi"}]}`, nil)

		events := readEvents(t, resp.Body)
		require.Len(t, events, 2)
		require.Equal(t, "answer", events[0].name)
		require.Equal(t, "error", events[1].name)

		var body struct {
			Error   string           `json:"error"`
			Partial *domain.Response `json:"partial"`
		}
		require.NoError(t, json.Unmarshal([]byte(events[1].data), &body))
		require.Contains(t, body.Error, "connection reset")
		require.Equal(t, "Par", body.Partial.Content)

		require.False(t, gateway.received.Options.ShowThinking)
		require.InDelta(t, 0.5, *gateway.received.Options.Temperature, 0)
	})

	t.Run("should return the partial response on non-streamed calls", func(t *testing.T) {
		ts := newServer(t, &interruptingGateway{})

		resp := postChat(t, ts, `{"model":"m","messages":[{"role":"user","content":"hi"}]}`, nil)

		require.Equal(t, http.StatusBadGateway, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "Par", body["partial"].(map[string]any)["content"])
	})
}

func TestHandleHealth(t *testing.T) {
	t.Run("should report healthy", func(t *testing.T) {
		ts := newEchoServer(t)

		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "healthy", body["status"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("should expose chat metrics after a call", func(t *testing.T) {
		ts := newEchoServer(t)

		chat := postChat(t, ts, `{"model":"echo4","messages":[{"role":"user","content":"hi"}]}`, nil)
		require.Equal(t, http.StatusOK, chat.StatusCode)

		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Contains(t, string(data), "prism_chat_requests_total")
	})
}
