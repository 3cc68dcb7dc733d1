package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/davidbz/prism/internal/engine"
	"github.com/davidbz/prism/internal/observability"
	"github.com/davidbz/prism/internal/transport"
)

// HTTPTransport calls the generateContent endpoints. Streams are requested
// with alt=sse and arrive as one snapshot per event.
type HTTPTransport struct {
	client *transport.Client
}

// NewHTTPTransport creates a transport from config.
func NewHTTPTransport(config Config) (*HTTPTransport, error) {
	if config.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if config.BaseURL == "" {
		return nil, errors.New("base URL is not configured")
	}

	return &HTTPTransport{
		client: transport.NewClient(
			config.BaseURL,
			time.Duration(config.Timeout)*time.Second,
			map[string]string{"x-goog-api-key": config.APIKey},
		),
	}, nil
}

func (t *HTTPTransport) Complete(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	observability.FromContext(ctx).Debug("calling Gemini API",
		observability.String("base_url", t.client.BaseURL()))

	var native GenerateContentResponse
	if err := t.client.PostJSON(ctx, modelPath(req.Model, "generateContent"), req, &native); err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}
	return &native, nil
}

func (t *HTTPTransport) Stream(ctx context.Context, req *GenerateContentRequest) (engine.ChunkStream[GenerateContentResponse], error) {
	observability.FromContext(ctx).Debug("calling Gemini streaming API",
		observability.String("base_url", t.client.BaseURL()))

	path := modelPath(req.Model, "streamGenerateContent") + "?alt=sse"
	stream, err := transport.OpenStream[GenerateContentResponse](ctx, t.client, path, req)
	if err != nil {
		return nil, fmt.Errorf("Gemini stream failed: %w", err)
	}
	return stream, nil
}

func modelPath(model, method string) string {
	return "/v1beta/models/" + url.PathEscape(model) + ":" + method
}
