// Package gemini speaks the generateContent protocol, whose streams deliver
// full snapshots rather than increments.
package gemini

import (
	"context"

	"github.com/davidbz/prism/internal/engine"
	"github.com/davidbz/prism/internal/provider/catalog"
)

const providerName = "gemini"

// Transport is the generateContent view of engine.Transport.
type Transport = engine.Transport[*GenerateContentRequest, GenerateContentResponse, *GenerateContentResponse]

// Provider implements the domain.Provider interface for Gemini.
type Provider struct {
	*engine.Orchestrator[*GenerateContentRequest, GenerateContentResponse, *GenerateContentResponse]
	models *catalog.Catalog
}

// Models returns the Gemini model catalog.
func Models() *catalog.Catalog {
	return catalog.New(
		[]string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.5-flash-lite", "gemini-2.0-flash"},
		"gemini-",
	)
}

// NewProvider creates a Gemini provider over HTTP.
func NewProvider(config Config, opts ...engine.Option) (*Provider, error) {
	t, err := NewHTTPTransport(config)
	if err != nil {
		return nil, err
	}
	return NewProviderWithTransport(t, config.ThinkingBudget, opts...), nil
}

// NewProviderWithTransport assembles a provider around any generateContent transport.
func NewProviderWithTransport(t Transport, thinkingBudget int, opts ...engine.Option) *Provider {
	codec := Codec{ThinkingBudget: thinkingBudget}
	return &Provider{
		Orchestrator: engine.NewOrchestrator[*GenerateContentRequest, GenerateContentResponse, *GenerateContentResponse](
			providerName, codec, t, opts...,
		),
		models: Models(),
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
