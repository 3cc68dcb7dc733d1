package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/prism/internal/engine"
	"github.com/davidbz/prism/internal/observability"
	"github.com/davidbz/prism/internal/transport"
)

const completionsPath = "/chat/completions"

// HTTPTransport posts chat completions requests directly, reading streams as
// Server-Sent Events until the [DONE] sentinel.
type HTTPTransport struct {
	client *transport.Client
}

// NewHTTPTransport creates a transport for an OpenAI-compatible endpoint.
func NewHTTPTransport(config Config) (*HTTPTransport, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is not configured")
	}
	if config.BaseURL == "" {
		return nil, errors.New("base URL is not configured")
	}

	return &HTTPTransport{
		client: transport.NewClient(
			config.BaseURL,
			time.Duration(config.Timeout)*time.Second,
			map[string]string{"Authorization": "Bearer " + config.APIKey},
		),
	}, nil
}

// Complete sends a non-streaming request.
func (t *HTTPTransport) Complete(ctx context.Context, req *ChatRequest) (*ChatCompletion, error) {
	observability.FromContext(ctx).Debug("calling chat completions endpoint",
		observability.String("base_url", t.client.BaseURL()))

	var native ChatCompletion
	if err := t.client.PostJSON(ctx, completionsPath, req, &native); err != nil {
		return nil, fmt.Errorf("chat completions call failed: %w", err)
	}
	return &native, nil
}

// Stream sends a streaming request.
func (t *HTTPTransport) Stream(ctx context.Context, req *ChatRequest) (engine.ChunkStream[ChatCompletionChunk], error) {
	observability.FromContext(ctx).Debug("calling chat completions streaming endpoint",
		observability.String("base_url", t.client.BaseURL()))

	body := *req
	body.Stream = true
	if body.StreamOptions == nil {
		body.StreamOptions = &StreamOptions{IncludeUsage: true}
	}

	stream, err := transport.OpenStream[ChatCompletionChunk](ctx, t.client, completionsPath, body)
	if err != nil {
		return nil, fmt.Errorf("chat completions stream failed: %w", err)
	}
	return stream, nil
}
