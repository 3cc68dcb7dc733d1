package openai

import (
	"context"
	"fmt"

	"github.com/davidbz/prism/internal/engine"
	"github.com/davidbz/prism/internal/provider/catalog"
)

// Transport is the chat completions view of engine.Transport.
type Transport = engine.Transport[*ChatRequest, ChatCompletionChunk, *ChatCompletion]

// Provider implements the domain.Provider interface for chat completions endpoints.
type Provider struct {
	*engine.Orchestrator[*ChatRequest, ChatCompletionChunk, *ChatCompletion]
	models *catalog.Catalog
}

// NewProvider creates the api.openai.com provider on the official SDK.
func NewProvider(config Config, opts ...engine.Option) (*Provider, error) {
	vendor := Vendors()[VendorOpenAI]
	if config.BaseURL == "" {
		config.BaseURL = vendor.BaseURL
	}

	t, err := NewSDKTransport(config)
	if err != nil {
		return nil, err
	}
	return NewProviderWithTransport(vendor.Name, t, vendor.Models, opts...), nil
}

// NewCompatibleProvider creates a provider for a known OpenAI-compatible
// vendor, talking plain HTTP.
func NewCompatibleProvider(vendorName string, config Config, opts ...engine.Option) (*Provider, error) {
	vendor, ok := Vendors()[vendorName]
	if !ok {
		return nil, fmt.Errorf("unknown chat completions vendor: %s", vendorName)
	}
	if config.BaseURL == "" {
		config.BaseURL = vendor.BaseURL
	}

	t, err := NewHTTPTransport(config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", vendorName, err)
	}
	return NewProviderWithTransport(vendor.Name, t, vendor.Models, opts...), nil
}

// NewProviderWithTransport assembles a provider around any chat completions transport.
func NewProviderWithTransport(name string, t Transport, models *catalog.Catalog, opts ...engine.Option) *Provider {
	return &Provider{
		Orchestrator: engine.NewOrchestrator[*ChatRequest, ChatCompletionChunk, *ChatCompletion](name, Codec{}, t, opts...),
		models:       models,
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
