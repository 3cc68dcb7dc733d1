package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/davidbz/prism/internal/domain"
)

// Registry implements the ProviderRegistry interface.
type Registry struct {
	mu              sync.RWMutex
	providers       map[string]domain.Provider
	modelToProvider map[string]string
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:              sync.RWMutex{},
		providers:       make(map[string]domain.Provider),
		modelToProvider: make(map[string]string),
	}
}

// Register adds a provider to the registry. A model listed by two providers
// stays indexed to the one registered first.
func (r *Registry) Register(ctx context.Context, provider domain.Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.providers[name] = provider

	// Build reverse index from provider's supported models
	for _, model := range provider.SupportedModels(ctx) {
		if _, taken := r.modelToProvider[model]; !taken {
			r.modelToProvider[model] = name
		}
	}

	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(_ context.Context, providerName string) (domain.Provider, error) {
	if providerName == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider %s: %w", providerName, domain.ErrProviderNotFound)
	}

	return provider, nil
}

// List returns the names of all registered providers, sorted.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(), nil
}

// GetByModel retrieves a provider that supports the given model.
func (r *Registry) GetByModel(ctx context.Context, model string) (domain.Provider, error) {
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if providerName, exists := r.modelToProvider[model]; exists {
		return r.providers[providerName], nil
	}

	// Model families are matched by the providers themselves, in name order
	// so the result does not depend on map iteration.
	for _, name := range r.sortedNames() {
		if provider := r.providers[name]; provider.IsModelSupported(ctx, model) {
			return provider, nil
		}
	}

	return nil, fmt.Errorf("no provider found for model: %s: %w", model, domain.ErrProviderNotFound)
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
