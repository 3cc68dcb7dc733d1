// Package anthropic speaks the Messages API, whose streams are typed events
// describing content blocks.
package anthropic

import (
	"context"

	"github.com/davidbz/prism/internal/engine"
	"github.com/davidbz/prism/internal/provider/catalog"
)

const providerName = "anthropic"

// Transport is the Messages API view of engine.Transport.
type Transport = engine.Transport[*MessagesRequest, StreamEvent, *MessageResponse]

// Provider implements the domain.Provider interface for Anthropic.
type Provider struct {
	*engine.Orchestrator[*MessagesRequest, StreamEvent, *MessageResponse]
	models *catalog.Catalog
}

// Models returns the Claude model catalog.
func Models() *catalog.Catalog {
	return catalog.New(
		[]string{"claude-sonnet-4-20250514", "claude-opus-4-20250514", "claude-3-7-sonnet-20250219", "claude-3-5-haiku-20241022"},
		"claude-",
	)
}

// NewProvider creates an Anthropic provider over HTTP.
func NewProvider(config Config, opts ...engine.Option) (*Provider, error) {
	t, err := NewHTTPTransport(config)
	if err != nil {
		return nil, err
	}
	return NewProviderWithTransport(t, Codec{MaxTokens: config.MaxTokens, ThinkingBudget: config.ThinkingBudget}, opts...), nil
}

// NewProviderWithTransport assembles a provider around any Messages API transport.
func NewProviderWithTransport(t Transport, codec Codec, opts ...engine.Option) *Provider {
	return &Provider{
		Orchestrator: engine.NewOrchestrator[*MessagesRequest, StreamEvent, *MessageResponse](providerName, codec, t, opts...),
		models:       Models(),
	}
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return p.models.Supports(model)
}

// SupportedModels returns the models known up front.
func (p *Provider) SupportedModels(_ context.Context) []string {
	return p.models.Models()
}
