package anthropic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/prism/internal/engine"
	"github.com/davidbz/prism/internal/observability"
	"github.com/davidbz/prism/internal/transport"
)

const (
	messagesPath = "/v1/messages"
	apiVersion   = "2023-06-01"
)

// HTTPTransport calls the Messages API.
type HTTPTransport struct {
	client *transport.Client
}

// NewHTTPTransport creates a transport from config.
func NewHTTPTransport(config Config) (*HTTPTransport, error) {
	if config.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	if config.BaseURL == "" {
		return nil, errors.New("base URL is not configured")
	}

	return &HTTPTransport{
		client: transport.NewClient(
			config.BaseURL,
			time.Duration(config.Timeout)*time.Second,
			map[string]string{
				"x-api-key":         config.APIKey,
				"anthropic-version": apiVersion,
			},
		),
	}, nil
}

func (t *HTTPTransport) Complete(ctx context.Context, req *MessagesRequest) (*MessageResponse, error) {
	observability.FromContext(ctx).Debug("calling Anthropic API",
		observability.String("base_url", t.client.BaseURL()))

	body := *req
	body.Stream = false

	var native MessageResponse
	if err := t.client.PostJSON(ctx, messagesPath, body, &native); err != nil {
		return nil, fmt.Errorf("Anthropic API call failed: %w", err)
	}
	return &native, nil
}

func (t *HTTPTransport) Stream(ctx context.Context, req *MessagesRequest) (engine.ChunkStream[StreamEvent], error) {
	observability.FromContext(ctx).Debug("calling Anthropic streaming API",
		observability.String("base_url", t.client.BaseURL()))

	body := *req
	body.Stream = true

	stream, err := transport.OpenStream[StreamEvent](ctx, t.client, messagesPath, body)
	if err != nil {
		return nil, fmt.Errorf("Anthropic stream failed: %w", err)
	}
	return &eventStream{ChunkStream: stream}, nil
}

// eventStream ends the stream with an error when the server sends an error
// event, so buffered output is reported as a partial response.
type eventStream struct {
	engine.ChunkStream[StreamEvent]
	err error
}

func (s *eventStream) Next() bool {
	if s.err != nil || !s.ChunkStream.Next() {
		return false
	}
	if ev := s.Current(); ev.Type == EventError {
		s.err = &APIError{Type: "unknown", Message: "error event without details"}
		if ev.Error != nil {
			s.err = ev.Error
		}
		return false
	}
	return true
}

func (s *eventStream) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.ChunkStream.Err()
}
