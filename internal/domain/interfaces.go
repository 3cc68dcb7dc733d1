package domain

import (
	"context"
	"time"
)

// Provider represents any LLM provider.
type Provider interface {
	// Chat runs a call to completion, blocking the caller.
	Chat(ctx context.Context, req *ChatRequest) (*Response, error)

	// ChatAsync starts a call and returns immediately.
	ChatAsync(ctx context.Context, req *ChatRequest) *Pending

	// Name returns the provider identifier.
	Name() string

	// Kind returns the wire family the provider speaks.
	Kind() ProviderKind

	// IsModelSupported checks if the provider supports the given model.
	IsModelSupported(ctx context.Context, model string) bool

	// SupportedModels lists the models known up front, for the registry index.
	SupportedModels(ctx context.Context) []string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)

	// GetByModel retrieves a provider that supports the given model.
	GetByModel(ctx context.Context, model string) (Provider, error)
}

// ResponseCache stores canonical responses for identical requests.
type ResponseCache interface {
	// Get returns ErrCacheMiss when nothing is stored for the request.
	Get(ctx context.Context, provider string, req *ChatRequest) (*Response, error)

	// Set stores a response for the request.
	Set(ctx context.Context, provider string, req *ChatRequest, resp *Response, ttl time.Duration) error
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]any)
}

// Router determines which provider to use for a request.
type Router interface {
	// Route selects a provider based on request criteria.
	Route(ctx context.Context, req *RouteRequest) (string, error)
}

// RouteRequest contains criteria for provider selection.
type RouteRequest struct {
	Model    string
	Provider string
}
