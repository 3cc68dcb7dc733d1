package routing

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/observability"
)

// SimpleRouter picks the provider named by the request, otherwise the first
// provider (in name order) that lists the model, otherwise the first one
// whose model families include it.
type SimpleRouter struct {
	registry domain.ProviderRegistry
}

// NewRouter creates a new router.
func NewRouter(registry domain.ProviderRegistry) *SimpleRouter {
	return &SimpleRouter{
		registry: registry,
	}
}

// Route selects a provider for the request.
func (r *SimpleRouter) Route(ctx context.Context, req *domain.RouteRequest) (string, error) {
	if req == nil {
		return "", errors.New("route request cannot be nil")
	}

	if req.Model == "" {
		return "", errors.New("model name is required")
	}

	logger := observability.FromContext(ctx)

	if req.Provider != "" {
		provider, err := r.registry.Get(ctx, req.Provider)
		if err != nil {
			return "", fmt.Errorf("requested provider unavailable: %w", err)
		}
		if !provider.IsModelSupported(ctx, req.Model) {
			logger.Debug("requested provider does not list model",
				observability.String("requested_provider", req.Provider),
				observability.String("requested_model", req.Model),
			)
		}
		return provider.Name(), nil
	}

	providerNames, err := r.registry.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list providers: %w", err)
	}

	if len(providerNames) == 0 {
		return "", errors.New("no providers available")
	}
	slices.Sort(providerNames)

	var familyMatch string
	for _, name := range providerNames {
		provider, getErr := r.registry.Get(ctx, name)
		if getErr != nil {
			continue
		}

		if slices.Contains(provider.SupportedModels(ctx), req.Model) {
			return name, nil
		}

		if familyMatch == "" && provider.IsModelSupported(ctx, req.Model) {
			familyMatch = name
		}
	}

	if familyMatch != "" {
		return familyMatch, nil
	}

	return "", fmt.Errorf("no provider found for model: %s: %w", req.Model, domain.ErrProviderNotFound)
}
